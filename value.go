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
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	bq "google.golang.org/api/bigquery/v2"
)

// Value stores the contents of a single cell from a BigQuery result.
type Value interface{}

// A Row is a single row of a result set. Cells are positionally aligned with
// the fields of the schema that produced the row; every cell travels on the
// wire as a string (or null, or a nested row for RECORD fields), and the
// typed accessors convert it on demand.
type Row struct {
	schema *rowSchema
	cells  []*bq.TableCell
}

// A Record is a nested row held by a RECORD column. It supports the same
// typed accessors as a top-level row, resolved against the record field's
// own nested schema.
type Record = Row

func newRow(schema *rowSchema, r *bq.TableRow) *Row {
	return &Row{schema: schema, cells: r.F}
}

// NumFields returns the number of columns at this row's schema level.
func (r *Row) NumFields() int { return r.schema.len() }

func (r *Row) resolve(name string) (int, error) {
	i, ok := r.schema.indexOf(name)
	if !ok {
		return 0, &UnknownColumnError{Name: name}
	}
	return i, nil
}

func (r *Row) cell(i int) (*bq.TableCell, *bq.TableFieldSchema, error) {
	if i < 0 || i >= r.schema.len() {
		return nil, nil, &ColumnRangeError{Index: i, NumFields: r.schema.len()}
	}
	var cell *bq.TableCell
	if i < len(r.cells) {
		cell = r.cells[i]
	}
	if cell == nil {
		// Jagged row; treat the missing cell as NULL.
		cell = &bq.TableCell{}
	}
	return cell, r.schema.fields[i], nil
}

var (
	errNotScalar   = errors.New("cell does not hold a scalar value")
	errNotRecord   = errors.New("column is not a RECORD field")
	errNotRepeated = errors.New("cell does not hold a repeated value")
	errIsRepeated  = errors.New("column is repeated; use Repeated")
	errMalformed   = errors.New("malformed nested row")
	errInvalidBool = errors.New(`value is not "true" or "false"`)
)

// scalarCell returns the wire string for column i. ok is false for a NULL
// cell. Record and repeated cells have no scalar representation and yield a
// TypeConversionError.
func (r *Row) scalarCell(i int, want FieldType) (s string, ok bool, field *bq.TableFieldSchema, err error) {
	cell, field, err := r.cell(i)
	if err != nil {
		return "", false, nil, err
	}
	if cell.V == nil {
		return "", false, field, nil
	}
	s, isStr := cell.V.(string)
	if !isStr {
		return "", false, field, conversionError(field.Name, want, fmt.Sprint(cell.V), errNotScalar)
	}
	return s, true, field, nil
}

// Int64 returns the value of column col parsed as a base-10 signed 64-bit
// integer. A NULL cell yields an invalid NullInt64 and no error.
func (r *Row) Int64(col int) (NullInt64, error) {
	s, ok, f, err := r.scalarCell(col, IntegerFieldType)
	if err != nil || !ok {
		return NullInt64{}, err
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return NullInt64{}, conversionError(f.Name, IntegerFieldType, s, err)
	}
	return NullInt64{Int64: i, Valid: true}, nil
}

// Int64ByName is Int64 addressed by column name.
func (r *Row) Int64ByName(name string) (NullInt64, error) {
	col, err := r.resolve(name)
	if err != nil {
		return NullInt64{}, err
	}
	return r.Int64(col)
}

// Float64 returns the value of column col parsed as a 64-bit float.
// Scientific notation is accepted.
func (r *Row) Float64(col int) (NullFloat64, error) {
	s, ok, f, err := r.scalarCell(col, FloatFieldType)
	if err != nil || !ok {
		return NullFloat64{}, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NullFloat64{}, conversionError(f.Name, FloatFieldType, s, err)
	}
	return NullFloat64{Float64: v, Valid: true}, nil
}

// Float64ByName is Float64 addressed by column name.
func (r *Row) Float64ByName(name string) (NullFloat64, error) {
	col, err := r.resolve(name)
	if err != nil {
		return NullFloat64{}, err
	}
	return r.Float64(col)
}

// Bool returns the value of column col. Only the exact literals "true" and
// "false" convert; anything else is a TypeConversionError.
func (r *Row) Bool(col int) (NullBool, error) {
	s, ok, f, err := r.scalarCell(col, BooleanFieldType)
	if err != nil || !ok {
		return NullBool{}, err
	}
	switch s {
	case "true":
		return NullBool{Bool: true, Valid: true}, nil
	case "false":
		return NullBool{Bool: false, Valid: true}, nil
	}
	return NullBool{}, conversionError(f.Name, BooleanFieldType, s, errInvalidBool)
}

// BoolByName is Bool addressed by column name.
func (r *Row) BoolByName(name string) (NullBool, error) {
	col, err := r.resolve(name)
	if err != nil {
		return NullBool{}, err
	}
	return r.Bool(col)
}

// String returns the wire string of column col without conversion.
func (r *Row) String(col int) (NullString, error) {
	s, ok, _, err := r.scalarCell(col, StringFieldType)
	if err != nil || !ok {
		return NullString{}, err
	}
	return NullString{StringVal: s, Valid: true}, nil
}

// StringByName is String addressed by column name.
func (r *Row) StringByName(name string) (NullString, error) {
	col, err := r.resolve(name)
	if err != nil {
		return NullString{}, err
	}
	return r.String(col)
}

// Bytes returns the value of column col decoded from its base64 wire form.
// A NULL cell yields a nil slice and no error.
func (r *Row) Bytes(col int) ([]byte, error) {
	s, ok, f, err := r.scalarCell(col, BytesFieldType)
	if err != nil || !ok {
		return nil, err
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, conversionError(f.Name, BytesFieldType, s, err)
	}
	return b, nil
}

// BytesByName is Bytes addressed by column name.
func (r *Row) BytesByName(name string) ([]byte, error) {
	col, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	return r.Bytes(col)
}

// Timestamp returns the value of column col as a UTC time.
func (r *Row) Timestamp(col int) (NullTimestamp, error) {
	s, ok, f, err := r.scalarCell(col, TimestampFieldType)
	if err != nil || !ok {
		return NullTimestamp{}, err
	}
	t, err := parseTimestamp(s)
	if err != nil {
		return NullTimestamp{}, conversionError(f.Name, TimestampFieldType, s, err)
	}
	return NullTimestamp{Timestamp: t, Valid: true}, nil
}

// TimestampByName is Timestamp addressed by column name.
func (r *Row) TimestampByName(name string) (NullTimestamp, error) {
	col, err := r.resolve(name)
	if err != nil {
		return NullTimestamp{}, err
	}
	return r.Timestamp(col)
}

// Date returns the value of column col as a civil.Date.
func (r *Row) Date(col int) (NullDate, error) {
	s, ok, f, err := r.scalarCell(col, DateFieldType)
	if err != nil || !ok {
		return NullDate{}, err
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return NullDate{}, conversionError(f.Name, DateFieldType, s, err)
	}
	return NullDate{Date: d, Valid: true}, nil
}

// DateByName is Date addressed by column name.
func (r *Row) DateByName(name string) (NullDate, error) {
	col, err := r.resolve(name)
	if err != nil {
		return NullDate{}, err
	}
	return r.Date(col)
}

// Time returns the value of column col as a civil.Time.
func (r *Row) Time(col int) (NullTime, error) {
	s, ok, f, err := r.scalarCell(col, TimeFieldType)
	if err != nil || !ok {
		return NullTime{}, err
	}
	t, err := civil.ParseTime(s)
	if err != nil {
		return NullTime{}, conversionError(f.Name, TimeFieldType, s, err)
	}
	return NullTime{Time: t, Valid: true}, nil
}

// TimeByName is Time addressed by column name.
func (r *Row) TimeByName(name string) (NullTime, error) {
	col, err := r.resolve(name)
	if err != nil {
		return NullTime{}, err
	}
	return r.Time(col)
}

// DateTime returns the value of column col as a civil.DateTime.
func (r *Row) DateTime(col int) (NullDateTime, error) {
	s, ok, f, err := r.scalarCell(col, DateTimeFieldType)
	if err != nil || !ok {
		return NullDateTime{}, err
	}
	dt, err := civil.ParseDateTime(s)
	if err != nil {
		return NullDateTime{}, conversionError(f.Name, DateTimeFieldType, s, err)
	}
	return NullDateTime{DateTime: dt, Valid: true}, nil
}

// DateTimeByName is DateTime addressed by column name.
func (r *Row) DateTimeByName(name string) (NullDateTime, error) {
	col, err := r.resolve(name)
	if err != nil {
		return NullDateTime{}, err
	}
	return r.DateTime(col)
}

// Record returns the nested row held by the RECORD column col. The caller
// recurses into it with the record's own field names. A NULL cell yields a
// nil Record and no error.
func (r *Row) Record(col int) (*Record, error) {
	cell, f, err := r.cell(col)
	if err != nil {
		return nil, err
	}
	if cell.V == nil {
		return nil, nil
	}
	child := r.schema.children[col]
	if child == nil {
		return nil, conversionError(f.Name, RecordFieldType, fmt.Sprint(cell.V), errNotRecord)
	}
	if f.Mode == "REPEATED" {
		return nil, conversionError(f.Name, RecordFieldType, fmt.Sprint(cell.V), errIsRepeated)
	}
	return recordFromValue(cell.V, child, f.Name)
}

// RecordByName is Record addressed by column name.
func (r *Row) RecordByName(name string) (*Record, error) {
	col, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	return r.Record(col)
}

// Repeated returns the elements of the repeated column col, each converted
// according to the column's declared type (scalars as Go values, records as
// *Record). A NULL cell yields a nil slice and no error.
func (r *Row) Repeated(col int) ([]Value, error) {
	cell, f, err := r.cell(col)
	if err != nil {
		return nil, err
	}
	if cell.V == nil {
		return nil, nil
	}
	list, ok := cell.V.([]interface{})
	if !ok {
		return nil, conversionError(f.Name, FieldType(f.Type), fmt.Sprint(cell.V), errNotRepeated)
	}
	vals := make([]Value, 0, len(list))
	for _, e := range list {
		em, ok := e.(map[string]interface{})
		if !ok {
			return nil, conversionError(f.Name, FieldType(f.Type), fmt.Sprint(e), errMalformed)
		}
		v, err := convertValue(em["v"], f, r.schema.children[col])
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// RepeatedByName is Repeated addressed by column name.
func (r *Row) RepeatedByName(name string) ([]Value, error) {
	col, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	return r.Repeated(col)
}

// Value returns the value of column col converted according to the column's
// declared type: NULL cells as nil, scalars as Go values, RECORD columns as
// *Record and repeated columns as []Value.
func (r *Row) Value(col int) (Value, error) {
	cell, f, err := r.cell(col)
	if err != nil {
		return nil, err
	}
	return convertValue(cell.V, f, r.schema.children[col])
}

// ValueByName is Value addressed by column name.
func (r *Row) ValueByName(name string) (Value, error) {
	col, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	return r.Value(col)
}

// Values converts every column of the row, in schema order.
func (r *Row) Values() ([]Value, error) {
	vals := make([]Value, r.schema.len())
	for i := range vals {
		v, err := r.Value(i)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// convertValue converts one wire cell value according to the field that
// types it. Nested rows arrive as {"f": [...]} objects, repeated values as
// lists of {"v": ...} wrappers.
func convertValue(v interface{}, f *bq.TableFieldSchema, child *rowSchema) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		if child == nil {
			return nil, conversionError(f.Name, FieldType(f.Type), fmt.Sprint(v), errNotRecord)
		}
		return recordFromValue(val, child, f.Name)
	case []interface{}:
		vals := make([]Value, 0, len(val))
		for _, e := range val {
			em, ok := e.(map[string]interface{})
			if !ok {
				return nil, conversionError(f.Name, FieldType(f.Type), fmt.Sprint(e), errMalformed)
			}
			ev, err := convertValue(em["v"], f, child)
			if err != nil {
				return nil, err
			}
			vals = append(vals, ev)
		}
		return vals, nil
	case string:
		return convertBasicValue(val, FieldType(f.Type), f.Name)
	default:
		return nil, conversionError(f.Name, FieldType(f.Type), fmt.Sprint(v), errMalformed)
	}
}

// convertBasicValue converts a scalar wire string to a Go value of the type
// declared by the schema.
func convertBasicValue(s string, typ FieldType, col string) (Value, error) {
	switch typ {
	case IntegerFieldType:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, conversionError(col, typ, s, err)
		}
		return v, nil
	case FloatFieldType:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, conversionError(col, typ, s, err)
		}
		return v, nil
	case BooleanFieldType:
		switch s {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, conversionError(col, typ, s, errInvalidBool)
	case TimestampFieldType:
		t, err := parseTimestamp(s)
		if err != nil {
			return nil, conversionError(col, typ, s, err)
		}
		return t, nil
	case DateFieldType:
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, conversionError(col, typ, s, err)
		}
		return d, nil
	case TimeFieldType:
		t, err := civil.ParseTime(s)
		if err != nil {
			return nil, conversionError(col, typ, s, err)
		}
		return t, nil
	case DateTimeFieldType:
		dt, err := civil.ParseDateTime(s)
		if err != nil {
			return nil, conversionError(col, typ, s, err)
		}
		return dt, nil
	case BytesFieldType:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, conversionError(col, typ, s, err)
		}
		return b, nil
	case NumericFieldType, BigNumericFieldType:
		rat, ok := new(big.Rat).SetString(s)
		if !ok {
			return nil, conversionError(col, typ, s, errors.New("invalid numeric literal"))
		}
		return rat, nil
	default:
		// STRING, GEOGRAPHY, JSON, INTERVAL and anything unrecognized keep
		// their wire representation.
		return s, nil
	}
}

// recordFromValue unpacks the {"f": [{"v": ...}, ...]} envelope used by
// nested rows on the wire.
func recordFromValue(v interface{}, schema *rowSchema, col string) (*Record, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, conversionError(col, RecordFieldType, fmt.Sprint(v), errMalformed)
	}
	fs, ok := m["f"].([]interface{})
	if !ok {
		return nil, conversionError(col, RecordFieldType, fmt.Sprint(v), errMalformed)
	}
	if len(fs) != schema.len() {
		return nil, fmt.Errorf("bigquery: nested row of column %q has %d cells; its schema has %d fields", col, len(fs), schema.len())
	}
	cells := make([]*bq.TableCell, len(fs))
	for i, e := range fs {
		em, ok := e.(map[string]interface{})
		if !ok {
			return nil, conversionError(col, RecordFieldType, fmt.Sprint(e), errMalformed)
		}
		cells[i] = &bq.TableCell{V: em["v"]}
	}
	return &Record{schema: schema, cells: cells}, nil
}

// parseTimestamp handles both wire encodings BigQuery has used for TIMESTAMP
// cells: microseconds since the epoch, and seconds with a fractional part
// (possibly in scientific notation).
func parseTimestamp(s string) (time.Time, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMicro(i).UTC(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	secs := math.Trunc(f)
	micros := math.Trunc((f-secs)*1e6 + 0.5)
	return time.Unix(int64(secs), int64(micros)*1000).UTC(), nil
}
