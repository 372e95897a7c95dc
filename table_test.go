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
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	bq "google.golang.org/api/bigquery/v2"
)

func TestTableFullyQualifiedName(t *testing.T) {
	tbl := &Table{ProjectID: "p", DatasetID: "d", TableID: "t"}
	if got, want := tbl.FullyQualifiedName(), "p:d.t"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTableMetadataToBQ(t *testing.T) {
	exp := time.Date(2027, 1, 2, 3, 4, 5, 0, time.UTC)
	tm := &TableMetadata{
		Name:           "n",
		Description:    "d",
		Schema:         Schema{{Name: "x", Type: IntegerFieldType}},
		ExpirationTime: exp,
		Labels:         map[string]string{"a": "b"},
	}
	got, err := tm.toBQ()
	if err != nil {
		t.Fatal(err)
	}
	want := &bq.Table{
		FriendlyName:   "n",
		Description:    "d",
		Schema:         &bq.TableSchema{Fields: []*bq.TableFieldSchema{{Name: "x", Type: "INTEGER"}}},
		ExpirationTime: exp.UnixNano() / 1e6,
		Labels:         map[string]string{"a": "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTableMetadataToBQErrors(t *testing.T) {
	for _, tm := range []*TableMetadata{
		{Schema: Schema{{Name: "x", Type: IntegerFieldType}}, ViewQuery: "select 1"},
		{FullID: "p:d.t"},
		{Type: RegularTable},
		{CreationTime: time.Now()},
		{LastModifiedTime: time.Now()},
		{NumBytes: 1},
		{NumRows: 1},
		{ETag: "etag"},
	} {
		if _, err := tm.toBQ(); err == nil {
			t.Errorf("%+v: got nil error, want failure on read-only field", tm)
		}
	}
}

func TestBQToTableMetadata(t *testing.T) {
	in := &bq.Table{
		FriendlyName:     "n",
		Description:      "d",
		Type:             "TABLE",
		Id:               "p:d.t",
		NumBytes:         10,
		NumRows:          3,
		CreationTime:     1700000000000,
		LastModifiedTime: 1700000001000,
		Location:         "EU",
		Etag:             "etag",
		Schema:           &bq.TableSchema{Fields: []*bq.TableFieldSchema{{Name: "x", Type: "STRING"}}},
		View:             &bq.ViewDefinition{Query: "select 1", UseLegacySql: true},
	}
	got := bqToTableMetadata(in)
	if got.Name != "n" || got.Type != RegularTable || got.FullID != "p:d.t" {
		t.Errorf("metadata = %+v", got)
	}
	if got.NumBytes != 10 || got.NumRows != 3 {
		t.Errorf("size = %d bytes, %d rows", got.NumBytes, got.NumRows)
	}
	if got.ViewQuery != "select 1" || !got.UseLegacySQL {
		t.Errorf("view = %q, legacy %t", got.ViewQuery, got.UseLegacySQL)
	}
	if len(got.Schema) != 1 || got.Schema[0].Name != "x" {
		t.Errorf("schema = %v", got.Schema)
	}
	if got.CreationTime.IsZero() || got.LastModifiedTime.IsZero() {
		t.Error("timestamps not converted")
	}
}

func TestDatasetMetadataToBQ(t *testing.T) {
	dm := &DatasetMetadata{
		Name:                   "n",
		Description:            "d",
		Location:               "EU",
		DefaultTableExpiration: time.Hour,
		Labels:                 map[string]string{"a": "b"},
	}
	got, err := dm.toBQ()
	if err != nil {
		t.Fatal(err)
	}
	want := &bq.Dataset{
		FriendlyName:             "n",
		Description:              "d",
		Location:                 "EU",
		DefaultTableExpirationMs: 3600000,
		Labels:                   map[string]string{"a": "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []*DatasetMetadata{
		{CreationTime: time.Now()},
		{LastModifiedTime: time.Now()},
		{FullID: "p:d"},
		{ETag: "etag"},
	} {
		if _, err := bad.toBQ(); err == nil {
			t.Errorf("%+v: got nil error, want failure on read-only field", bad)
		}
	}
}

func TestDatasetHandles(t *testing.T) {
	c := testClient()
	d := c.Dataset("ds")
	if d.ProjectID != "project-id" || d.DatasetID != "ds" {
		t.Errorf("dataset = %+v", d)
	}
	d = c.DatasetInProject("other", "ds2")
	if d.ProjectID != "other" || d.DatasetID != "ds2" {
		t.Errorf("dataset = %+v", d)
	}
	tbl := d.Table("t")
	if tbl.ProjectID != "other" || tbl.DatasetID != "ds2" || tbl.TableID != "t" {
		t.Errorf("table = %+v", tbl)
	}
}
