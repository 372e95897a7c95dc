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
	bq "google.golang.org/api/bigquery/v2"
)

// Schema describes the fields in a table or query result.
// The order of the fields defines the positional correspondence with the
// cells of each row.
type Schema []*FieldSchema

// FieldSchema describes a single field.
type FieldSchema struct {
	// The field name. The name must contain only letters (a-z, A-Z),
	// numbers (0-9), or underscores (_), and must start with a letter
	// or underscore. The maximum length is 128 characters.
	Name string

	// A description of the field. The maximum length of the description
	// is 1,024 characters.
	Description string

	// Whether the field may contain multiple values.
	Repeated bool
	// Whether the field is required.  Ignored if Repeated is true.
	Required bool

	// The field data type.  If Type is Record, then this field contains a nested schema,
	// which is described by Schema.
	Type FieldType
	// Describes the nested schema if Type is set to Record.
	Schema Schema
}

// FieldType is the type of a BigQuery field.
type FieldType string

const (
	// StringFieldType is a string field type.
	StringFieldType FieldType = "STRING"
	// BytesFieldType is a bytes field type.
	BytesFieldType FieldType = "BYTES"
	// IntegerFieldType is a integer field type.
	IntegerFieldType FieldType = "INTEGER"
	// FloatFieldType is a float field type.
	FloatFieldType FieldType = "FLOAT"
	// BooleanFieldType is a boolean field type.
	BooleanFieldType FieldType = "BOOLEAN"
	// TimestampFieldType is a timestamp field type.
	TimestampFieldType FieldType = "TIMESTAMP"
	// RecordFieldType is a record field type. It is typically used to create
	// columns with repeated or nested data.
	RecordFieldType FieldType = "RECORD"
	// DateFieldType is a date field type.
	DateFieldType FieldType = "DATE"
	// TimeFieldType is a time field type.
	TimeFieldType FieldType = "TIME"
	// DateTimeFieldType is a datetime field type.
	DateTimeFieldType FieldType = "DATETIME"
	// NumericFieldType is a numeric field type. Numeric types include integer
	// types, floating point types and the NUMERIC data type.
	NumericFieldType FieldType = "NUMERIC"
	// BigNumericFieldType is a numeric field type that supports values of
	// larger precision and scale than the NumericFieldType.
	BigNumericFieldType FieldType = "BIGNUMERIC"
	// GeographyFieldType is a string field type. Geography types represent a
	// set of points on the Earth's surface, represented in Well Known Text
	// (WKT) format.
	GeographyFieldType FieldType = "GEOGRAPHY"
	// JSONFieldType is a representation of a json object.
	JSONFieldType FieldType = "JSON"
	// IntervalFieldType is a representation of a duration or an amount of time.
	IntervalFieldType FieldType = "INTERVAL"
	// RangeFieldType represents a continuous range of DATE, DATETIME or
	// TIMESTAMP values.
	RangeFieldType FieldType = "RANGE"
)

func (fs *FieldSchema) toBQ() *bq.TableFieldSchema {
	tfs := &bq.TableFieldSchema{
		Description: fs.Description,
		Name:        fs.Name,
		Type:        string(fs.Type),
	}

	if fs.Repeated {
		tfs.Mode = "REPEATED"
	} else if fs.Required {
		tfs.Mode = "REQUIRED"
	} // else leave as default, which is interpreted as NULLABLE.

	for _, f := range fs.Schema {
		tfs.Fields = append(tfs.Fields, f.toBQ())
	}

	return tfs
}

func (s Schema) toBQ() *bq.TableSchema {
	var fields []*bq.TableFieldSchema
	for _, f := range s {
		fields = append(fields, f.toBQ())
	}
	return &bq.TableSchema{Fields: fields}
}

func bqToFieldSchema(tfs *bq.TableFieldSchema) *FieldSchema {
	fs := &FieldSchema{
		Description: tfs.Description,
		Name:        tfs.Name,
		Repeated:    tfs.Mode == "REPEATED",
		Required:    tfs.Mode == "REQUIRED",
		Type:        FieldType(tfs.Type),
	}

	for _, f := range tfs.Fields {
		fs.Schema = append(fs.Schema, bqToFieldSchema(f))
	}
	return fs
}

func bqToSchema(ts *bq.TableSchema) Schema {
	if ts == nil {
		return nil
	}
	var s Schema
	for _, f := range ts.Fields {
		s = append(s, bqToFieldSchema(f))
	}
	return s
}

// rowSchema wraps one level of a wire-format table schema with a name-to-index
// lookup. The lookup is built once per level so that by-name access does not
// rescan the field list, and record fields get their nested level built up
// front.
type rowSchema struct {
	fields   []*bq.TableFieldSchema
	index    map[string]int
	children []*rowSchema // non-nil at positions holding RECORD fields
}

func newRowSchema(fields []*bq.TableFieldSchema) *rowSchema {
	s := &rowSchema{
		fields:   fields,
		index:    make(map[string]int, len(fields)),
		children: make([]*rowSchema, len(fields)),
	}
	for i, f := range fields {
		// BigQuery permits duplicate output column names for computed
		// columns. The first field with a given name wins.
		if _, ok := s.index[f.Name]; !ok {
			s.index[f.Name] = i
		}
		if FieldType(f.Type) == RecordFieldType {
			s.children[i] = newRowSchema(f.Fields)
		}
	}
	return s
}

func newRowSchemaFromTableSchema(ts *bq.TableSchema) *rowSchema {
	if ts == nil {
		return newRowSchema(nil)
	}
	return newRowSchema(ts.Fields)
}

func (s *rowSchema) len() int { return len(s.fields) }

func (s *rowSchema) indexOf(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}
