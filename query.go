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
	"time"

	bq "google.golang.org/api/bigquery/v2"

	"github.com/nixxholas/gcp-bigquery-client/internal/trace"
)

// QueryPriority specifies a priority with which a query is to be executed.
type QueryPriority string

const (
	// BatchPriority specifies that the query should be scheduled with the
	// batch priority.  BigQuery queues each batch query on your behalf, and
	// starts the query as soon as idle resources are available, usually within
	// a few minutes. If BigQuery hasn't started the query within 24 hours,
	// BigQuery changes the job priority to interactive. Batch queries don't
	// count towards your concurrent rate limit, which can make it easier to
	// start many queries at once.
	BatchPriority QueryPriority = "BATCH"
	// InteractivePriority specifies that the query should be scheduled with
	// interactive priority, which means that the query is executed as soon as
	// possible. Interactive queries count towards your concurrent rate limit
	// and your daily limit. It is the default priority with which queries get
	// executed.
	InteractivePriority QueryPriority = "INTERACTIVE"
)

// QueryConfig holds the configuration for a query job.
type QueryConfig struct {
	// Q is the query string to execute.
	Q string

	// DefaultProjectID and DefaultDatasetID specify the dataset to use for
	// unqualified table names in the query. If DefaultProjectID is set,
	// DefaultDatasetID must also be set.
	DefaultProjectID string
	DefaultDatasetID string

	// DisableQueryCache prevents results being fetched from the query cache.
	// If this field is false, results are fetched from the cache if they are
	// available. The query cache is a best-effort cache that is flushed
	// whenever tables in the query are modified.
	DisableQueryCache bool

	// Priority specifies the priority with which to schedule the query.
	// The default priority is InteractivePriority.
	Priority QueryPriority

	// MaxResults limits the number of rows returned per result page.
	// The server picks a default if unset.
	MaxResults int64

	// Timeout bounds how long the stateless query path waits for the query
	// to complete before returning with JobComplete false.
	Timeout time.Duration

	// UseLegacySQL causes the query to use legacy SQL.
	UseLegacySQL bool

	// DryRun causes the query to be validated and estimated, but not run.
	DryRun bool

	// Labels to attach to the query job.
	Labels map[string]string

	// The geographic location where the job should run. Overrides the
	// client's Location for this query.
	Location string

	// JobID is a client-generated ID for the query job. Setting it makes
	// job insertion idempotent and therefore retryable.
	JobID string
}

// A Query queries data from a BigQuery table.
type Query struct {
	QueryConfig
	client *Client
}

// Query creates a query with string q.
// The returned Query may optionally be further configured before its Run
// or Read methods are called.
func (c *Client) Query(q string) *Query {
	return &Query{
		QueryConfig: QueryConfig{Q: q},
		client:      c,
	}
}

func (q *Query) location() string {
	if q.Location != "" {
		return q.Location
	}
	return q.client.Location
}

func (q *Query) defaultDataset() *bq.DatasetReference {
	if q.DefaultProjectID == "" && q.DefaultDatasetID == "" {
		return nil
	}
	return &bq.DatasetReference{
		ProjectId: q.DefaultProjectID,
		DatasetId: q.DefaultDatasetID,
	}
}

func (q *Query) toBQ() *bq.Job {
	conf := &bq.JobConfigurationQuery{
		Query:          q.Q,
		Priority:       string(q.Priority),
		DefaultDataset: q.defaultDataset(),
		UseLegacySql:   &q.UseLegacySQL,
		// UseLegacySql defaults to true server-side; always send it.
		ForceSendFields: []string{"UseLegacySql"},
	}
	if q.DisableQueryCache {
		f := false
		conf.UseQueryCache = &f
	}
	job := &bq.Job{
		Configuration: &bq.JobConfiguration{
			Query:  conf,
			DryRun: q.DryRun,
			Labels: q.Labels,
		},
	}
	if q.JobID != "" {
		job.JobReference = &bq.JobReference{
			JobId:     q.JobID,
			ProjectId: q.client.projectID,
			Location:  q.location(),
		}
	}
	return job
}

func (q *Query) toQueryRequest() *bq.QueryRequest {
	req := &bq.QueryRequest{
		Query:          q.Q,
		DefaultDataset: q.defaultDataset(),
		MaxResults:     q.MaxResults,
		DryRun:         q.DryRun,
		Labels:         q.Labels,
		Location:       q.location(),
		UseLegacySql:   &q.UseLegacySQL,
		// UseLegacySql defaults to true server-side; always send it.
		ForceSendFields: []string{"UseLegacySql"},
	}
	if q.Timeout > 0 {
		req.TimeoutMs = int64(q.Timeout / time.Millisecond)
	}
	return req
}

// Run initiates a query job.
func (q *Query) Run(ctx context.Context) (j *Job, err error) {
	ctx = trace.StartSpan(ctx, "bigquery.Query.Run")
	defer func() { trace.EndSpan(ctx, err) }()

	return q.client.insertJob(ctx, q.toBQ())
}

// ReadPage runs the query synchronously and returns the first page of its
// results as a ResultSet. If the query does not complete within the
// configured Timeout, ReadPage polls until it does. The returned set's
// PageToken, together with Job.QueryResults, fetches further pages.
func (q *Query) ReadPage(ctx context.Context) (*ResultSet, error) {
	res, err := q.client.runQuery(ctx, q.toQueryRequest())
	if err != nil {
		return nil, err
	}
	rs := newResultSetFromQueryResponse(res)
	if rs.JobComplete() {
		return rs, nil
	}
	// Query still running after the request timeout; its first page must
	// come from jobs.getQueryResults instead.
	j, err := jobFromQueryResponse(res, q.client)
	if err != nil {
		return nil, err
	}
	if err := j.waitForQuery(ctx); err != nil {
		return nil, err
	}
	var opts []ReadOption
	if q.MaxResults > 0 {
		opts = append(opts, RecordsPerRequest(q.MaxResults))
	}
	return j.QueryResults(ctx, opts...)
}

// Read runs the query and returns an iterator over all result rows, fetching
// pages as needed.
func (q *Query) Read(ctx context.Context) (it *RowIterator, err error) {
	ctx = trace.StartSpan(ctx, "bigquery.Query.Read")
	defer func() { trace.EndSpan(ctx, err) }()

	rs, err := q.ReadPage(ctx)
	if err != nil {
		return nil, err
	}
	if rs.PageToken() == "" {
		// Single-page result; no fetcher will ever be invoked.
		return newRowIteratorFromPage(ctx, rs, nil), nil
	}
	j, err := jobFromResultSet(rs, q.client)
	if err != nil {
		return nil, err
	}
	return newRowIteratorFromPage(ctx, rs, j.queryResultsPage), nil
}

// RunQuery runs a query synchronously and returns the first page of its
// results. It is shorthand for configuring a Query and calling ReadPage.
func (c *Client) RunQuery(ctx context.Context, conf QueryConfig) (*ResultSet, error) {
	q := &Query{QueryConfig: conf, client: c}
	return q.ReadPage(ctx)
}

func jobFromQueryResponse(res *bq.QueryResponse, c *Client) (*Job, error) {
	if res.JobReference == nil {
		return nil, errors.New("bigquery: query response contains no job reference")
	}
	return &Job{
		c:         c,
		projectID: res.JobReference.ProjectId,
		jobID:     res.JobReference.JobId,
		location:  res.JobReference.Location,
		isQuery:   true,
	}, nil
}

func jobFromResultSet(rs *ResultSet, c *Client) (*Job, error) {
	if rs.jobRef == nil {
		return nil, errors.New("bigquery: result set contains no job reference")
	}
	return &Job{
		c:         c,
		projectID: rs.jobRef.ProjectId,
		jobID:     rs.jobRef.JobId,
		location:  rs.jobRef.Location,
		isQuery:   true,
	}, nil
}
