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
	"fmt"
	"time"

	bq "google.golang.org/api/bigquery/v2"

	"github.com/nixxholas/gcp-bigquery-client/internal/trace"
)

// A Table is a reference to a BigQuery table.
type Table struct {
	ProjectID string
	DatasetID string
	// TableID must contain only letters (a-z, A-Z), numbers (0-9), or
	// underscores (_). The maximum length is 1,024 characters.
	TableID string

	c *Client

	// Schema used when reading table data, fetched once on first use.
	cachedSchema *rowSchema
}

// TableMetadata contains information about a BigQuery table.
type TableMetadata struct {
	// The following fields can be set when creating a table.

	// The user-friendly name for the table.
	Name string

	// The user-friendly description of the table.
	Description string

	// The table schema. If provided on create, ViewQuery must be empty.
	Schema Schema

	// The query to use for a logical view. If provided on create, Schema
	// must be nil.
	ViewQuery string

	// Use Legacy SQL for the view query. The default is false (standard SQL).
	UseLegacySQL bool

	// The time when this table expires. If set, this table will expire at
	// the specified time. Expired tables will be deleted and their storage
	// reclaimed. The zero value is ignored.
	ExpirationTime time.Time

	// User-provided labels.
	Labels map[string]string

	// All the fields below are read-only.

	FullID           string // An opaque full ID of the table, in the form of project:dataset.table.
	Type             TableType
	CreationTime     time.Time
	LastModifiedTime time.Time

	// The size of the table in bytes. This does not include data that is
	// being buffered during a streaming insert.
	NumBytes int64

	// The number of rows of data in this table. This does not include data
	// that is being buffered during a streaming insert.
	NumRows uint64

	// The geographic location where the table resides. This value is
	// inherited from the dataset.
	Location string

	// ETag is the ETag obtained when reading metadata. Pass it to
	// Table.Update to ensure that the metadata hasn't changed since it was
	// read.
	ETag string
}

// TableType is the type of table.
type TableType string

const (
	// RegularTable is a regular table.
	RegularTable TableType = "TABLE"
	// ViewTable is a table type describing that the table is a logical view.
	// See more information at https://cloud.google.com/bigquery/docs/views.
	ViewTable TableType = "VIEW"
	// ExternalTable is a table type describing that the table is an external
	// table (also known as a federated data source). See more information at
	// https://cloud.google.com/bigquery/external-data-sources.
	ExternalTable TableType = "EXTERNAL"
)

func (t *Table) toBQ() *bq.TableReference {
	return &bq.TableReference{
		ProjectId: t.ProjectID,
		DatasetId: t.DatasetID,
		TableId:   t.TableID,
	}
}

// FullyQualifiedName returns the ID of the table in projectID:datasetID.tableID format.
func (t *Table) FullyQualifiedName() string {
	return fmt.Sprintf("%s:%s.%s", t.ProjectID, t.DatasetID, t.TableID)
}

// Create creates a table in the BigQuery service.
// Pass in a TableMetadata value to configure the table.
// If tm.View.Query is non-empty, the created table will be of type VIEW.
// If no ExpirationTime is specified, the table will never expire.
func (t *Table) Create(ctx context.Context, tm *TableMetadata) (err error) {
	ctx = trace.StartSpan(ctx, "bigquery.Table.Create")
	defer func() { trace.EndSpan(ctx, err) }()

	table, err := tm.toBQ()
	if err != nil {
		return err
	}
	table.TableReference = t.toBQ()
	call := t.c.bqs.Tables.Insert(t.ProjectID, t.DatasetID, table).Context(ctx)
	setClientHeader(call.Header())
	_, err = call.Do()
	return err
}

func (tm *TableMetadata) toBQ() (*bq.Table, error) {
	table := &bq.Table{}
	if tm == nil {
		return table, nil
	}
	if tm.Schema != nil && tm.ViewQuery != "" {
		return nil, errors.New("bigquery: provide Schema or ViewQuery, not both")
	}
	table.FriendlyName = tm.Name
	table.Description = tm.Description
	table.Labels = tm.Labels
	if tm.Schema != nil {
		table.Schema = tm.Schema.toBQ()
	}
	if tm.ViewQuery != "" {
		table.View = &bq.ViewDefinition{
			Query:        tm.ViewQuery,
			UseLegacySql: tm.UseLegacySQL,
			// UseLegacySql defaults to true server-side; always send it.
			ForceSendFields: []string{"UseLegacySql"},
		}
	}
	if !tm.ExpirationTime.IsZero() {
		table.ExpirationTime = tm.ExpirationTime.UnixNano() / 1e6
	}
	if tm.FullID != "" {
		return nil, errors.New("bigquery: Table.FullID is not writable")
	}
	if tm.Type != "" {
		return nil, errors.New("bigquery: Table.Type is not writable")
	}
	if !tm.CreationTime.IsZero() {
		return nil, errors.New("bigquery: Table.CreationTime is not writable")
	}
	if !tm.LastModifiedTime.IsZero() {
		return nil, errors.New("bigquery: Table.LastModifiedTime is not writable")
	}
	if tm.NumBytes != 0 {
		return nil, errors.New("bigquery: Table.NumBytes is not writable")
	}
	if tm.NumRows != 0 {
		return nil, errors.New("bigquery: Table.NumRows is not writable")
	}
	if tm.ETag != "" {
		return nil, errors.New("bigquery: Table.ETag is not writable")
	}
	return table, nil
}

// Metadata fetches the metadata for the table.
func (t *Table) Metadata(ctx context.Context) (md *TableMetadata, err error) {
	ctx = trace.StartSpan(ctx, "bigquery.Table.Metadata")
	defer func() { trace.EndSpan(ctx, err) }()

	call := t.c.bqs.Tables.Get(t.ProjectID, t.DatasetID, t.TableID).Context(ctx)
	setClientHeader(call.Header())
	var table *bq.Table
	err = runWithRetry(ctx, t.c.retry, func() (err error) {
		table, err = call.Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return bqToTableMetadata(table), nil
}

func bqToTableMetadata(t *bq.Table) *TableMetadata {
	md := &TableMetadata{
		Description:      t.Description,
		Name:             t.FriendlyName,
		Type:             TableType(t.Type),
		FullID:           t.Id,
		Labels:           t.Labels,
		NumBytes:         t.NumBytes,
		NumRows:          t.NumRows,
		ExpirationTime:   unixMillisToTime(t.ExpirationTime),
		CreationTime:     unixMillisToTime(t.CreationTime),
		LastModifiedTime: unixMillisToTime(int64(t.LastModifiedTime)),
		Location:         t.Location,
		ETag:             t.Etag,
	}
	if t.Schema != nil {
		md.Schema = bqToSchema(t.Schema)
	}
	if t.View != nil {
		md.ViewQuery = t.View.Query
		md.UseLegacySQL = t.View.UseLegacySql
	}
	return md
}

// Delete deletes the table.
func (t *Table) Delete(ctx context.Context) (err error) {
	ctx = trace.StartSpan(ctx, "bigquery.Table.Delete")
	defer func() { trace.EndSpan(ctx, err) }()

	call := t.c.bqs.Tables.Delete(t.ProjectID, t.DatasetID, t.TableID).Context(ctx)
	setClientHeader(call.Header())
	return call.Do()
}

// Read fetches the contents of the table, page by page.
func (t *Table) Read(ctx context.Context) *RowIterator {
	return newRowIterator(ctx, t.tableDataPage)
}

// tableDataPage fetches one page via tabledata.list. The schema is not part
// of the list response; it is fetched once via tables.get and reused for
// every page.
func (t *Table) tableDataPage(ctx context.Context, token string) (rs *ResultSet, err error) {
	if t.c == nil {
		return nil, errors.New("bigquery: table has no client; use Client.Dataset to obtain a handle")
	}
	schema, err := t.rowSchema(ctx)
	if err != nil {
		return nil, err
	}
	call := t.c.bqs.Tabledata.List(t.ProjectID, t.DatasetID, t.TableID).
		PageToken(token).
		Context(ctx)
	setClientHeader(call.Header())
	var res *bq.TableDataList
	err = runWithRetry(ctx, t.c.retry, func() (err error) {
		sCtx := trace.StartSpan(ctx, "bigquery.tabledata.list")
		res, err = call.Do()
		trace.EndSpan(sCtx, err)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newResultSetFromTableData(res, schema), nil
}

func (t *Table) rowSchema(ctx context.Context) (*rowSchema, error) {
	if t.cachedSchema != nil {
		return t.cachedSchema, nil
	}
	md, err := t.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	t.cachedSchema = newRowSchemaFromTableSchema(md.Schema.toBQ())
	return t.cachedSchema, nil
}
