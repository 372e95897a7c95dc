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
	"context"
	"errors"

	bq "google.golang.org/api/bigquery/v2"

	"github.com/nixxholas/gcp-bigquery-client/internal/trace"
)

// An Inserter does streaming inserts into a BigQuery table.
// It is safe for concurrent use.
type Inserter struct {
	t *Table

	// SkipInvalidRows causes rows containing invalid data to be silently
	// ignored. The default value is false, which causes the entire request
	// to fail if there is an attempt to insert an invalid row.
	SkipInvalidRows bool

	// IgnoreUnknownValues causes values not matching the schema to be
	// ignored. The default value is false, which causes records containing
	// such values to be treated as invalid records.
	IgnoreUnknownValues bool

	// A TableTemplateSuffix allows Inserters to create tables automatically.
	//
	// Experimental: this option is experimental and may be modified or
	// removed in future versions, regardless of any other documented package
	// stability guarantees.
	//
	// When you specify a suffix, the table you upload data to will be used
	// as a template for creating a new table, with the same schema, called
	// <table> + <suffix>.
	//
	// More information is available at
	// https://cloud.google.com/bigquery/streaming-data-into-bigquery#template-tables
	TableTemplateSuffix string
}

// Inserter returns an Inserter that can be used to append rows to t.
func (t *Table) Inserter() *Inserter {
	return &Inserter{t: t}
}

// A RowToInsert is a row of data to be inserted into a table.
type RowToInsert struct {
	// InsertID governs the best-effort deduplication of the row on the
	// server side: rows with the same non-empty InsertID within a short
	// window are inserted once. Leave it empty to disable deduplication.
	InsertID string

	// Json maps column names to cell values. Nested records are nested
	// maps, repeated fields are slices.
	Json map[string]Value
}

// Put uploads one or more rows to the BigQuery service.
// Put returns a PutMultiError if one or more rows failed to be uploaded.
// The PutMultiError contains a RowInsertionError for each failed row.
//
// Put will retry on temporary errors. If the error persists, the call will
// run indefinitely. Pass a context with a timeout to prevent hanging calls.
func (ins *Inserter) Put(ctx context.Context, rows []*RowToInsert) (err error) {
	ctx = trace.StartSpan(ctx, "bigquery.Inserter.Put")
	defer func() { trace.EndSpan(ctx, err) }()
	if len(rows) == 0 {
		return nil
	}
	if ins.t == nil || ins.t.c == nil {
		return errors.New("bigquery: inserter has no table; use Table.Inserter")
	}
	req := &bq.TableDataInsertAllRequest{
		TemplateSuffix:      ins.TableTemplateSuffix,
		IgnoreUnknownValues: ins.IgnoreUnknownValues,
		SkipInvalidRows:     ins.SkipInvalidRows,
	}
	for _, row := range rows {
		m := make(map[string]bq.JsonValue, len(row.Json))
		for k, v := range row.Json {
			m[k] = bq.JsonValue(v)
		}
		req.Rows = append(req.Rows, &bq.TableDataInsertAllRequestRows{
			InsertId: row.InsertID,
			Json:     m,
		})
	}
	t := ins.t
	call := t.c.bqs.Tabledata.InsertAll(t.ProjectID, t.DatasetID, t.TableID, req).Context(ctx)
	setClientHeader(call.Header())
	var res *bq.TableDataInsertAllResponse
	err = runWithRetry(ctx, t.c.retry, func() (err error) {
		sCtx := trace.StartSpan(ctx, "bigquery.tabledata.insertAll")
		res, err = call.Do()
		trace.EndSpan(sCtx, err)
		return err
	})
	if err != nil {
		return err
	}
	if len(res.InsertErrors) == 0 {
		return nil
	}

	var errs PutMultiError
	for _, e := range res.InsertErrors {
		if int(e.Index) >= len(rows) {
			return errors.New("bigquery: service error index out of range")
		}
		rie := RowInsertionError{
			InsertID: rows[e.Index].InsertID,
			RowIndex: int(e.Index),
		}
		for _, errp := range e.Errors {
			rie.Errors = append(rie.Errors, bqToError(errp))
		}
		errs = append(errs, rie)
	}
	return errs
}
