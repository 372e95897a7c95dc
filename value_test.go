// Copyright 2025 The gcp-bigquery-client Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bigquery

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"
	bq "google.golang.org/api/bigquery/v2"
)

func testRow(schema *bq.TableSchema, vals ...interface{}) *Row {
	cells := make([]*bq.TableCell, len(vals))
	for i, v := range vals {
		cells[i] = &bq.TableCell{V: v}
	}
	return newRow(newRowSchemaFromTableSchema(schema), &bq.TableRow{F: cells})
}

func singleFieldRow(typ string, v interface{}) *Row {
	return testRow(&bq.TableSchema{Fields: []*bq.TableFieldSchema{{Name: "x", Type: typ}}}, v)
}

func TestRowInt64(t *testing.T) {
	for _, test := range []struct {
		wire    string
		want    int64
		wantErr bool
	}{
		{wire: "0", want: 0},
		{wire: "42", want: 42},
		{wire: "-7", want: -7},
		{wire: "9223372036854775807", want: 1<<63 - 1},
		{wire: "-9223372036854775808", want: -1 << 63},
		{wire: "9223372036854775808", wantErr: true}, // overflow
		{wire: "1.5", wantErr: true},
		{wire: "0x10", wantErr: true},
		{wire: "abc", wantErr: true},
		{wire: "", wantErr: true},
	} {
		r := singleFieldRow("INTEGER", test.wire)
		got, err := r.Int64(0)
		if test.wantErr {
			var ce *TypeConversionError
			if !errors.As(err, &ce) {
				t.Errorf("Int64(%q): got err %v, want TypeConversionError", test.wire, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Int64(%q): %v", test.wire, err)
			continue
		}
		if !got.Valid || got.Int64 != test.want {
			t.Errorf("Int64(%q) = %v, want %d", test.wire, got, test.want)
		}
	}
}

func TestRowFloat64(t *testing.T) {
	for _, test := range []struct {
		wire    string
		want    float64
		wantErr bool
	}{
		{wire: "0", want: 0},
		{wire: "3.25", want: 3.25},
		{wire: "-1e3", want: -1000},
		{wire: "1.5E-2", want: 0.015},
		{wire: "abc", wantErr: true},
	} {
		r := singleFieldRow("FLOAT", test.wire)
		got, err := r.Float64(0)
		if test.wantErr {
			var ce *TypeConversionError
			if !errors.As(err, &ce) {
				t.Errorf("Float64(%q): got err %v, want TypeConversionError", test.wire, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Float64(%q): %v", test.wire, err)
			continue
		}
		if !got.Valid || got.Float64 != test.want {
			t.Errorf("Float64(%q) = %v, want %g", test.wire, got, test.want)
		}
	}
}

func TestRowBoolStrict(t *testing.T) {
	for _, test := range []struct {
		wire    string
		want    bool
		wantErr bool
	}{
		{wire: "true", want: true},
		{wire: "false", want: false},
		// Only the exact lowercase literals convert.
		{wire: "TRUE", wantErr: true},
		{wire: "True", wantErr: true},
		{wire: "1", wantErr: true},
		{wire: "0", wantErr: true},
		{wire: "t", wantErr: true},
		{wire: "", wantErr: true},
	} {
		r := singleFieldRow("BOOLEAN", test.wire)
		got, err := r.Bool(0)
		if test.wantErr {
			var ce *TypeConversionError
			if !errors.As(err, &ce) {
				t.Errorf("Bool(%q): got err %v, want TypeConversionError", test.wire, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Bool(%q): %v", test.wire, err)
			continue
		}
		if !got.Valid || got.Bool != test.want {
			t.Errorf("Bool(%q) = %v, want %t", test.wire, got, test.want)
		}
	}
}

func TestRowTimestamp(t *testing.T) {
	for _, test := range []struct {
		wire string
		want time.Time
	}{
		// Microseconds since the epoch.
		{wire: "1700000000000000", want: time.Unix(1700000000, 0).UTC()},
		{wire: "1700000000123456", want: time.Unix(1700000000, 123456000).UTC()},
		{wire: "0", want: time.Unix(0, 0).UTC()},
		// Legacy float-seconds encoding.
		{wire: "1700000000.5", want: time.Unix(1700000000, 5e8).UTC()},
		{wire: "1.7e9", want: time.Unix(1700000000, 0).UTC()},
	} {
		r := singleFieldRow("TIMESTAMP", test.wire)
		got, err := r.Timestamp(0)
		if err != nil {
			t.Errorf("Timestamp(%q): %v", test.wire, err)
			continue
		}
		if !got.Valid || !got.Timestamp.Equal(test.want) {
			t.Errorf("Timestamp(%q) = %v, want %v", test.wire, got.Timestamp, test.want)
		}
	}
	r := singleFieldRow("TIMESTAMP", "not-a-time")
	if _, err := r.Timestamp(0); err == nil {
		t.Error("Timestamp on garbage: got nil error")
	}
}

func TestRowBytes(t *testing.T) {
	r := singleFieldRow("BYTES", "aGVsbG8=") // "hello"
	got, err := r.Bytes(0)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("Bytes = %q, want hello", got)
	}
	r = singleFieldRow("BYTES", "!!!")
	if _, err := r.Bytes(0); err == nil {
		t.Error("Bytes on invalid base64: got nil error")
	}
	r = singleFieldRow("BYTES", nil)
	got, err = r.Bytes(0)
	if err != nil || got != nil {
		t.Errorf("Bytes on NULL = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestRowCivilTypes(t *testing.T) {
	r := testRow(&bq.TableSchema{Fields: []*bq.TableFieldSchema{
		{Name: "d", Type: "DATE"},
		{Name: "t", Type: "TIME"},
		{Name: "dt", Type: "DATETIME"},
	}}, "2026-08-23", "12:30:45", "2026-08-23T12:30:45")

	d, err := r.Date(0)
	if err != nil {
		t.Fatal(err)
	}
	if want := (civil.Date{Year: 2026, Month: time.August, Day: 23}); d.Date != want {
		t.Errorf("Date = %v, want %v", d.Date, want)
	}
	tm, err := r.Time(1)
	if err != nil {
		t.Fatal(err)
	}
	if want := (civil.Time{Hour: 12, Minute: 30, Second: 45}); tm.Time != want {
		t.Errorf("Time = %v, want %v", tm.Time, want)
	}
	dt, err := r.DateTime(2)
	if err != nil {
		t.Fatal(err)
	}
	if dt.DateTime.Date.Year != 2026 || dt.DateTime.Time.Hour != 12 {
		t.Errorf("DateTime = %v", dt.DateTime)
	}
}

func TestRowRecord(t *testing.T) {
	schema := &bq.TableSchema{Fields: []*bq.TableFieldSchema{
		{Name: "id", Type: "INTEGER"},
		{Name: "author", Type: "RECORD", Fields: []*bq.TableFieldSchema{
			{Name: "name", Type: "STRING"},
			{Name: "age", Type: "INTEGER"},
		}},
	}}
	r := testRow(schema,
		"1",
		map[string]interface{}{"f": []interface{}{
			map[string]interface{}{"v": "gopher"},
			map[string]interface{}{"v": "12"},
		}},
	)
	rec, err := r.RecordByName("author")
	if err != nil {
		t.Fatal(err)
	}
	name, err := rec.StringByName("name")
	if err != nil {
		t.Fatal(err)
	}
	if name.StringVal != "gopher" {
		t.Errorf("name = %q, want gopher", name.StringVal)
	}
	age, err := rec.Int64ByName("age")
	if err != nil {
		t.Fatal(err)
	}
	if age.Int64 != 12 {
		t.Errorf("age = %d, want 12", age.Int64)
	}
	// A NULL record is absent, not an error.
	r = testRow(schema, "1", nil)
	rec, err = r.Record(1)
	if err != nil || rec != nil {
		t.Errorf("NULL record = (%v, %v), want (nil, nil)", rec, err)
	}
	// A non-record column has no nested row.
	if _, err := r.Record(0); err == nil {
		t.Error("Record on INTEGER column: got nil error")
	}
}

func TestRowRepeated(t *testing.T) {
	schema := &bq.TableSchema{Fields: []*bq.TableFieldSchema{
		{Name: "nums", Type: "INTEGER", Mode: "REPEATED"},
	}}
	r := testRow(schema, []interface{}{
		map[string]interface{}{"v": "1"},
		map[string]interface{}{"v": "2"},
		map[string]interface{}{"v": "3"},
	})
	got, err := r.Repeated(0)
	if err != nil {
		t.Fatal(err)
	}
	want := []Value{int64(1), int64(2), int64(3)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Repeated mismatch (-want +got):\n%s", diff)
	}
	// NULL repeated cell is an empty result, not an error.
	r = testRow(schema, nil)
	got, err = r.Repeated(0)
	if err != nil || got != nil {
		t.Errorf("NULL repeated = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestRowValues(t *testing.T) {
	schema := &bq.TableSchema{Fields: []*bq.TableFieldSchema{
		{Name: "s", Type: "STRING"},
		{Name: "i", Type: "INTEGER"},
		{Name: "f", Type: "FLOAT"},
		{Name: "b", Type: "BOOLEAN"},
		{Name: "n", Type: "NUMERIC"},
		{Name: "null", Type: "STRING"},
	}}
	r := testRow(schema, "hi", "5", "2.5", "true", "3/1", nil)
	got, err := r.Values()
	if err != nil {
		t.Fatal(err)
	}
	want := []Value{"hi", int64(5), 2.5, true, big.NewRat(3, 1), nil}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b *big.Rat) bool { return a.Cmp(b) == 0 })); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
}

func TestRowJagged(t *testing.T) {
	// Rows may carry fewer cells than the schema has fields; missing cells
	// read as NULL.
	schema := &bq.TableSchema{Fields: []*bq.TableFieldSchema{
		{Name: "a", Type: "STRING"},
		{Name: "b", Type: "STRING"},
	}}
	r := testRow(schema, "present")
	v, err := r.String(1)
	if err != nil || v.Valid {
		t.Errorf("missing cell = (%v, %v), want invalid, nil", v, err)
	}
}

func TestConversionErrorDetail(t *testing.T) {
	r := singleFieldRow("INTEGER", "oops")
	_, err := r.Int64(0)
	var ce *TypeConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want TypeConversionError", err)
	}
	if ce.Column != "x" || ce.Type != IntegerFieldType || ce.Value != "oops" {
		t.Errorf("error detail = %+v", ce)
	}
	if errors.Unwrap(ce) == nil {
		t.Error("TypeConversionError does not wrap its cause")
	}
}

func TestParseTimestampPrecision(t *testing.T) {
	// The float-seconds path rounds to the nearest microsecond.
	got, err := parseTimestamp("1408831736.7600441")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Unix(1408831736, 760044*1000).UTC()
	if !got.Equal(want) {
		t.Errorf("parseTimestamp = %v, want %v", got, want)
	}
}
