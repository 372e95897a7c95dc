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

// A ResultSet is a read-once, forward-only cursor over one page of query or
// table data. The cursor starts before the first row; call Next to advance
// it, then read the current row with the typed accessors. A ResultSet does
// no I/O and is not safe for concurrent use; fetching further pages is the
// job of RowIterator or of the caller holding the page token.
type ResultSet struct {
	schema *rowSchema

	rows   []*bq.TableRow
	cursor int // index into rows; -1 before the first row

	totalRows           uint64
	pageToken           string
	jobComplete         bool
	jobRef              *bq.JobReference
	cacheHit            bool
	totalBytesProcessed int64
	numDMLAffectedRows  int64
}

func newResultSetFromQueryResponse(res *bq.QueryResponse) *ResultSet {
	return &ResultSet{
		schema:              newRowSchemaFromTableSchema(res.Schema),
		rows:                res.Rows,
		cursor:              -1,
		totalRows:           res.TotalRows,
		pageToken:           res.PageToken,
		jobComplete:         res.JobComplete,
		jobRef:              res.JobReference,
		cacheHit:            res.CacheHit,
		totalBytesProcessed: res.TotalBytesProcessed,
		numDMLAffectedRows:  res.NumDmlAffectedRows,
	}
}

func newResultSetFromQueryResults(res *bq.GetQueryResultsResponse) *ResultSet {
	return &ResultSet{
		schema:              newRowSchemaFromTableSchema(res.Schema),
		rows:                res.Rows,
		cursor:              -1,
		totalRows:           res.TotalRows,
		pageToken:           res.PageToken,
		jobComplete:         res.JobComplete,
		jobRef:              res.JobReference,
		cacheHit:            res.CacheHit,
		totalBytesProcessed: res.TotalBytesProcessed,
		numDMLAffectedRows:  res.NumDmlAffectedRows,
	}
}

func newResultSetFromTableData(res *bq.TableDataList, schema *rowSchema) *ResultSet {
	return &ResultSet{
		schema:      schema,
		rows:        res.Rows,
		cursor:      -1,
		totalRows:   uint64(res.TotalRows),
		pageToken:   res.PageToken,
		jobComplete: true,
	}
}

// Next advances the cursor to the next row and reports whether one is
// available. It is the only operation that moves the cursor. Once it has
// returned false the set is exhausted: further calls keep returning false
// and the accessors keep failing with ErrNoCurrentRow.
func (rs *ResultSet) Next() bool {
	if rs.cursor >= len(rs.rows) {
		return false
	}
	rs.cursor++
	return rs.cursor < len(rs.rows)
}

// NumRows returns the number of rows in this page, independent of the
// cursor position.
func (rs *ResultSet) NumRows() int { return len(rs.rows) }

// TotalRows returns the total number of rows in the complete result,
// across all pages.
func (rs *ResultSet) TotalRows() uint64 { return rs.totalRows }

// PageToken returns the continuation token for fetching the next page, or
// "" when this is the last page. The ResultSet itself never consumes it.
func (rs *ResultSet) PageToken() string { return rs.pageToken }

// JobComplete reports whether the query had finished when this page was
// produced. When false the page carries no rows.
func (rs *ResultSet) JobComplete() bool { return rs.jobComplete }

// CacheHit reports whether the results came from the query cache.
func (rs *ResultSet) CacheHit() bool { return rs.cacheHit }

// TotalBytesProcessed returns the number of bytes processed by the query.
func (rs *ResultSet) TotalBytesProcessed() int64 { return rs.totalBytesProcessed }

// NumDMLAffectedRows returns the number of rows affected by a DML statement.
func (rs *ResultSet) NumDMLAffectedRows() int64 { return rs.numDMLAffectedRows }

// JobID returns the ID of the job that produced this page, if known.
func (rs *ResultSet) JobID() string {
	if rs.jobRef == nil {
		return ""
	}
	return rs.jobRef.JobId
}

// Schema returns the result schema.
func (rs *ResultSet) Schema() Schema {
	return bqToSchema(&bq.TableSchema{Fields: rs.schema.fields})
}

// Row returns the current row. It fails with ErrNoCurrentRow before the
// first successful Next and after exhaustion.
func (rs *ResultSet) Row() (*Row, error) {
	if rs.cursor < 0 || rs.cursor >= len(rs.rows) {
		return nil, ErrNoCurrentRow
	}
	return newRow(rs.schema, rs.rows[rs.cursor]), nil
}

// The typed accessors below read the current row; see the corresponding Row
// methods for conversion semantics.

// Int64 returns column col of the current row as an int64.
func (rs *ResultSet) Int64(col int) (NullInt64, error) {
	r, err := rs.Row()
	if err != nil {
		return NullInt64{}, err
	}
	return r.Int64(col)
}

// Int64ByName returns the named column of the current row as an int64.
func (rs *ResultSet) Int64ByName(name string) (NullInt64, error) {
	r, err := rs.Row()
	if err != nil {
		return NullInt64{}, err
	}
	return r.Int64ByName(name)
}

// Float64 returns column col of the current row as a float64.
func (rs *ResultSet) Float64(col int) (NullFloat64, error) {
	r, err := rs.Row()
	if err != nil {
		return NullFloat64{}, err
	}
	return r.Float64(col)
}

// Float64ByName returns the named column of the current row as a float64.
func (rs *ResultSet) Float64ByName(name string) (NullFloat64, error) {
	r, err := rs.Row()
	if err != nil {
		return NullFloat64{}, err
	}
	return r.Float64ByName(name)
}

// Bool returns column col of the current row as a bool.
func (rs *ResultSet) Bool(col int) (NullBool, error) {
	r, err := rs.Row()
	if err != nil {
		return NullBool{}, err
	}
	return r.Bool(col)
}

// BoolByName returns the named column of the current row as a bool.
func (rs *ResultSet) BoolByName(name string) (NullBool, error) {
	r, err := rs.Row()
	if err != nil {
		return NullBool{}, err
	}
	return r.BoolByName(name)
}

// String returns column col of the current row as its wire string.
func (rs *ResultSet) String(col int) (NullString, error) {
	r, err := rs.Row()
	if err != nil {
		return NullString{}, err
	}
	return r.String(col)
}

// StringByName returns the named column of the current row as its wire string.
func (rs *ResultSet) StringByName(name string) (NullString, error) {
	r, err := rs.Row()
	if err != nil {
		return NullString{}, err
	}
	return r.StringByName(name)
}

// Bytes returns column col of the current row decoded from base64.
func (rs *ResultSet) Bytes(col int) ([]byte, error) {
	r, err := rs.Row()
	if err != nil {
		return nil, err
	}
	return r.Bytes(col)
}

// BytesByName returns the named column of the current row decoded from base64.
func (rs *ResultSet) BytesByName(name string) ([]byte, error) {
	r, err := rs.Row()
	if err != nil {
		return nil, err
	}
	return r.BytesByName(name)
}

// Timestamp returns column col of the current row as a UTC time.
func (rs *ResultSet) Timestamp(col int) (NullTimestamp, error) {
	r, err := rs.Row()
	if err != nil {
		return NullTimestamp{}, err
	}
	return r.Timestamp(col)
}

// TimestampByName returns the named column of the current row as a UTC time.
func (rs *ResultSet) TimestampByName(name string) (NullTimestamp, error) {
	r, err := rs.Row()
	if err != nil {
		return NullTimestamp{}, err
	}
	return r.TimestampByName(name)
}

// Date returns column col of the current row as a civil.Date.
func (rs *ResultSet) Date(col int) (NullDate, error) {
	r, err := rs.Row()
	if err != nil {
		return NullDate{}, err
	}
	return r.Date(col)
}

// DateByName returns the named column of the current row as a civil.Date.
func (rs *ResultSet) DateByName(name string) (NullDate, error) {
	r, err := rs.Row()
	if err != nil {
		return NullDate{}, err
	}
	return r.DateByName(name)
}

// Time returns column col of the current row as a civil.Time.
func (rs *ResultSet) Time(col int) (NullTime, error) {
	r, err := rs.Row()
	if err != nil {
		return NullTime{}, err
	}
	return r.Time(col)
}

// TimeByName returns the named column of the current row as a civil.Time.
func (rs *ResultSet) TimeByName(name string) (NullTime, error) {
	r, err := rs.Row()
	if err != nil {
		return NullTime{}, err
	}
	return r.TimeByName(name)
}

// DateTime returns column col of the current row as a civil.DateTime.
func (rs *ResultSet) DateTime(col int) (NullDateTime, error) {
	r, err := rs.Row()
	if err != nil {
		return NullDateTime{}, err
	}
	return r.DateTime(col)
}

// DateTimeByName returns the named column of the current row as a civil.DateTime.
func (rs *ResultSet) DateTimeByName(name string) (NullDateTime, error) {
	r, err := rs.Row()
	if err != nil {
		return NullDateTime{}, err
	}
	return r.DateTimeByName(name)
}

// Record returns column col of the current row as a nested record.
func (rs *ResultSet) Record(col int) (*Record, error) {
	r, err := rs.Row()
	if err != nil {
		return nil, err
	}
	return r.Record(col)
}

// RecordByName returns the named column of the current row as a nested record.
func (rs *ResultSet) RecordByName(name string) (*Record, error) {
	r, err := rs.Row()
	if err != nil {
		return nil, err
	}
	return r.RecordByName(name)
}

// Repeated returns column col of the current row as a slice of converted
// elements.
func (rs *ResultSet) Repeated(col int) ([]Value, error) {
	r, err := rs.Row()
	if err != nil {
		return nil, err
	}
	return r.Repeated(col)
}

// RepeatedByName returns the named column of the current row as a slice of
// converted elements.
func (rs *ResultSet) RepeatedByName(name string) ([]Value, error) {
	r, err := rs.Row()
	if err != nil {
		return nil, err
	}
	return r.RepeatedByName(name)
}

// Value returns column col of the current row converted per its declared
// type.
func (rs *ResultSet) Value(col int) (Value, error) {
	r, err := rs.Row()
	if err != nil {
		return nil, err
	}
	return r.Value(col)
}

// ValueByName returns the named column of the current row converted per its
// declared type.
func (rs *ResultSet) ValueByName(name string) (Value, error) {
	r, err := rs.Row()
	if err != nil {
		return nil, err
	}
	return r.ValueByName(name)
}
