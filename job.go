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

	gax "github.com/googleapis/gax-go/v2"
	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/nixxholas/gcp-bigquery-client/internal"
	"github.com/nixxholas/gcp-bigquery-client/internal/trace"
)

// A Job represents an operation which has been submitted to BigQuery for
// processing.
type Job struct {
	c         *Client
	projectID string
	jobID     string
	location  string

	isQuery bool
}

// ID returns the job's ID.
func (j *Job) ID() string { return j.jobID }

// Location returns the job's location.
func (j *Job) Location() string { return j.location }

// ProjectID returns the job's associated project.
func (j *Job) ProjectID() string { return j.projectID }

// JobFromID creates a Job which refers to an existing BigQuery job. The job
// need not have been created by this package. For example, the job may have
// been created in the BigQuery console.
//
// For jobs whose location is other than "US" or "EU", set Client.Location or use
// JobFromIDLocation.
func (c *Client) JobFromID(ctx context.Context, id string) (*Job, error) {
	return c.JobFromIDLocation(ctx, id, c.Location)
}

// JobFromIDLocation creates a Job which refers to an existing BigQuery job.
// The job need not have been created by this package (for example, it may
// have been created in the BigQuery console), but it must exist in the
// specified location.
func (c *Client) JobFromIDLocation(ctx context.Context, id, location string) (j *Job, err error) {
	ctx = trace.StartSpan(ctx, "bigquery.jobs.get")
	defer func() { trace.EndSpan(ctx, err) }()
	bqjob, err := c.getJobInternal(ctx, id, location, "configuration", "jobReference")
	if err != nil {
		return nil, err
	}
	return bqToJob(bqjob, c)
}

func bqToJob(bqjob *bq.Job, c *Client) (*Job, error) {
	if bqjob.JobReference == nil {
		return nil, errors.New("bigquery: job has no reference")
	}
	j := &Job{
		c:         c,
		projectID: bqjob.JobReference.ProjectId,
		jobID:     bqjob.JobReference.JobId,
		location:  bqjob.JobReference.Location,
	}
	if config := bqjob.Configuration; config != nil && config.Query != nil {
		j.isQuery = true
	}
	return j, nil
}

// State is one of a sequence of states that a Job progresses through as it is
// processed.
type State int

const (
	// StateUnspecified is the default JobIterator state.
	StateUnspecified State = iota
	// Pending is a state that describes that the job is pending.
	Pending
	// Running is a state that describes that the job is running.
	Running
	// Done is a state that describes that the job is done.
	Done
)

var stateMap = map[string]State{"PENDING": Pending, "RUNNING": Running, "DONE": Done}

// JobStatus contains the current State of a job, and errors encountered
// while processing that job.
type JobStatus struct {
	State State

	err error

	// All errors encountered during the running of the job.
	// Not all Errors are fatal, so errors here do not necessarily mean that
	// the job has completed or was unsuccessful.
	Errors []*Error

	// Statistics about the job.
	Statistics *JobStatistics
}

// Done reports whether the job has completed.
// After Done returns true, the Err method will return an error if the job
// completed unsuccessfully.
func (s *JobStatus) Done() bool {
	return s.State == Done
}

// Err returns the error that caused the job to complete unsuccessfully (if
// any).
func (s *JobStatus) Err() error {
	return s.err
}

// JobStatistics contains statistics about a job.
type JobStatistics struct {
	CreationTime        time.Time
	StartTime           time.Time
	EndTime             time.Time
	TotalBytesProcessed int64

	// Query is set for query jobs only.
	Query *QueryStatistics
}

// QueryStatistics contains statistics about a query job.
type QueryStatistics struct {
	// Whether the query result was fetched from the query cache.
	CacheHit bool

	// The type of query statement, if valid.
	StatementType string

	// Total bytes billed for the job.
	TotalBytesBilled int64

	// Total bytes processed for the job.
	TotalBytesProcessed int64

	// The number of rows affected by a DML statement.
	NumDMLAffectedRows int64

	// The schema of the results. Present only for successful dry run of
	// non-legacy SQL queries.
	Schema Schema
}

// Status retrieves the current status of the job from BigQuery. It fails if
// the Status could not be determined.
func (j *Job) Status(ctx context.Context) (js *JobStatus, err error) {
	ctx = trace.StartSpan(ctx, "bigquery.jobs.get")
	defer func() { trace.EndSpan(ctx, err) }()
	bqjob, err := j.c.getJobInternal(ctx, j.jobID, j.location, "status", "statistics")
	if err != nil {
		return nil, err
	}
	js, err = jobStatusFromProto(bqjob.Status)
	if err != nil {
		return nil, err
	}
	js.Statistics = jobStatisticsFromProto(bqjob.Statistics)
	return js, nil
}

func (c *Client) getJobInternal(ctx context.Context, jobID, location string, fields ...string) (*bq.Job, error) {
	call := c.bqs.Jobs.Get(c.projectID, jobID).Context(ctx)
	if location != "" {
		call = call.Location(location)
	}
	if len(fields) > 0 {
		gfields := make([]googleapi.Field, len(fields))
		for i, f := range fields {
			gfields[i] = googleapi.Field(f)
		}
		call = call.Fields(gfields...)
	}
	setClientHeader(call.Header())
	var job *bq.Job
	err := runWithRetry(ctx, c.retry, func() (err error) {
		job, err = call.Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func jobStatusFromProto(status *bq.JobStatus) (*JobStatus, error) {
	state, ok := stateMap[status.State]
	if !ok {
		return nil, fmt.Errorf("bigquery: unexpected job state: %s", status.State)
	}

	newStatus := &JobStatus{
		State: state,
		err:   nil,
	}
	if err := bqToError(status.ErrorResult); state == Done && err != nil {
		newStatus.err = err
	}

	for _, ep := range status.Errors {
		newStatus.Errors = append(newStatus.Errors, bqToError(ep))
	}
	return newStatus, nil
}

func jobStatisticsFromProto(s *bq.JobStatistics) *JobStatistics {
	if s == nil {
		return nil
	}
	js := &JobStatistics{
		CreationTime:        unixMillisToTime(s.CreationTime),
		StartTime:           unixMillisToTime(s.StartTime),
		EndTime:             unixMillisToTime(s.EndTime),
		TotalBytesProcessed: s.TotalBytesProcessed,
	}
	if s.Query != nil {
		js.Query = &QueryStatistics{
			CacheHit:            s.Query.CacheHit,
			StatementType:       s.Query.StatementType,
			TotalBytesBilled:    s.Query.TotalBytesBilled,
			TotalBytesProcessed: s.Query.TotalBytesProcessed,
			NumDMLAffectedRows:  s.Query.NumDmlAffectedRows,
			Schema:              bqToSchema(s.Query.Schema),
		}
	}
	return js
}

// Cancel requests that a job be cancelled. This method returns without
// waiting for cancellation to take effect. To check whether the job has
// terminated, use Job.Status. Cancelled jobs may still incur costs.
func (j *Job) Cancel(ctx context.Context) error {
	// Jobs.Cancel returns a job entity, but the only relevant piece of
	// its state is whether the cancel call succeeded or not.
	call := j.c.bqs.Jobs.Cancel(j.projectID, j.jobID).
		Location(j.location).
		Fields(). // request no fields
		Context(ctx)
	setClientHeader(call.Header())
	return runWithRetry(ctx, j.c.retry, func() error {
		sCtx := trace.StartSpan(ctx, "bigquery.jobs.cancel")
		_, err := call.Do()
		trace.EndSpan(sCtx, err)
		return err
	})
}

// Delete deletes the job.
func (j *Job) Delete(ctx context.Context) (err error) {
	call := j.c.bqs.Jobs.Delete(j.projectID, j.jobID).Context(ctx)
	if j.location != "" {
		call = call.Location(j.location)
	}
	setClientHeader(call.Header())

	return runWithRetry(ctx, j.c.retry, func() error {
		sCtx := trace.StartSpan(ctx, "bigquery.jobs.delete")
		err := call.Do()
		trace.EndSpan(sCtx, err)
		return err
	})
}

// Wait blocks until the job or the context is done. It returns the final
// status of the job.
// If an error occurs while retrieving the status, Wait returns that error.
// But Wait returns nil if the status was retrieved successfully, even if
// status.Err() != nil. So callers must check both errors. See the example.
func (j *Job) Wait(ctx context.Context) (js *JobStatus, err error) {
	ctx = trace.StartSpan(ctx, "bigquery.Job.Wait")
	defer func() { trace.EndSpan(ctx, err) }()
	if j.isQuery {
		// We can avoid polling for query jobs.
		if err := j.waitForQuery(ctx); err != nil {
			return nil, err
		}
		// Note: extra RPC even if you just want to wait for the query to finish.
		js, err := j.Status(ctx)
		if err != nil {
			return nil, err
		}
		return js, nil
	}
	// Non-query jobs must poll.
	err = internal.Retry(ctx, pollBackoff(), func() (stop bool, err error) {
		js, err = j.Status(ctx)
		if err != nil {
			return true, err
		}
		if js.Done() {
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return js, nil
}

func pollBackoff() gax.Backoff {
	return gax.Backoff{
		Initial:    1 * time.Second,
		Multiplier: 2,
		Max:        60 * time.Second,
	}
}

// waitForQuery waits for the query job to complete, using GetQueryResults
// only for waiting, not for reading results.
func (j *Job) waitForQuery(ctx context.Context) error {
	req := j.c.bqs.Jobs.GetQueryResults(j.projectID, j.jobID).
		Location(j.location).
		MaxResults(0).
		Context(ctx)
	setClientHeader(req.Header())
	return internal.Retry(ctx, pollBackoff(), func() (stop bool, err error) {
		sCtx := trace.StartSpan(ctx, "bigquery.jobs.getqueryresults")
		res, err := req.Do()
		trace.EndSpan(sCtx, err)
		if err != nil {
			return !retryableError(err, jobRetryReasons), err
		}
		if !res.JobComplete { // GetQueryResults may return early without error; retry.
			return false, nil
		}
		return true, nil
	})
}

// A ReadOption is an optional argument to QueryResults or Read.
type ReadOption interface {
	customizeRead(conf *pagingConf)
}

type pagingConf struct {
	recordsPerRequest    int64
	setRecordsPerRequest bool

	startIndex uint64
	pageToken  string
}

// RecordsPerRequest returns a ReadOption that sets the number of records to
// fetch per request when streaming data from BigQuery.
func RecordsPerRequest(n int64) ReadOption { return recordsPerRequest(n) }

type recordsPerRequest int64

func (opt recordsPerRequest) customizeRead(conf *pagingConf) {
	conf.recordsPerRequest = int64(opt)
	conf.setRecordsPerRequest = true
}

// StartIndex returns a ReadOption that sets the zero-based index of the row
// to start reading from.
func StartIndex(i uint64) ReadOption { return startIndex(i) }

type startIndex uint64

func (opt startIndex) customizeRead(conf *pagingConf) {
	conf.startIndex = uint64(opt)
}

// PageToken returns a ReadOption that starts reading from the page
// identified by a continuation token from a previous ResultSet.
func PageToken(tok string) ReadOption { return pageToken(tok) }

type pageToken string

func (opt pageToken) customizeRead(conf *pagingConf) {
	conf.pageToken = string(opt)
}

// QueryResults fetches one page of the results of the query job as a
// ResultSet. The returned set's PageToken identifies the next page.
// QueryResults does not wait for the job to complete; when the job is still
// running the returned set has JobComplete false and carries no rows.
func (j *Job) QueryResults(ctx context.Context, opts ...ReadOption) (rs *ResultSet, err error) {
	if !j.isQuery {
		return nil, errors.New("bigquery: job is not a query job")
	}
	var conf pagingConf
	for _, o := range opts {
		o.customizeRead(&conf)
	}
	call := j.c.bqs.Jobs.GetQueryResults(j.projectID, j.jobID).
		Location(j.location).
		Context(ctx)
	if conf.pageToken != "" {
		call.PageToken(conf.pageToken)
	} else {
		call.StartIndex(conf.startIndex)
	}
	if conf.setRecordsPerRequest {
		call.MaxResults(conf.recordsPerRequest)
	}
	setClientHeader(call.Header())

	var res *bq.GetQueryResultsResponse
	err = runWithRetry(ctx, j.c.retry, func() error {
		sCtx := trace.StartSpan(ctx, "bigquery.jobs.getqueryresults")
		res, err = call.Do()
		trace.EndSpan(sCtx, err)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newResultSetFromQueryResults(res), nil
}

// queryResultsPage adapts QueryResults to the shape RowIterator fetches
// pages with.
func (j *Job) queryResultsPage(ctx context.Context, token string) (*ResultSet, error) {
	if token == "" {
		return j.QueryResults(ctx)
	}
	return j.QueryResults(ctx, PageToken(token))
}

// Read fetches the results of a query job, waiting for the job to complete
// first.
// If j is not a query job, Read returns an error.
func (j *Job) Read(ctx context.Context) (it *RowIterator, err error) {
	ctx = trace.StartSpan(ctx, "bigquery.Job.Read")
	defer func() { trace.EndSpan(ctx, err) }()
	if !j.isQuery {
		return nil, errors.New("bigquery: cannot read from a non-query job")
	}
	if err := j.waitForQuery(ctx); err != nil {
		return nil, err
	}
	return newRowIterator(ctx, j.queryResultsPage), nil
}

// Jobs lists jobs within a project.
func (c *Client) Jobs(ctx context.Context) *JobIterator {
	return &JobIterator{
		ctx:       ctx,
		c:         c,
		ProjectID: c.projectID,
	}
}

// JobIterator iterates over jobs in a project. The job list is sorted in
// reverse chronological order, by job creation time.
type JobIterator struct {
	// ProjectID is the project to list jobs from. Set before the first call
	// to Next.
	ProjectID string
	// AllUsers also lists jobs owned by all users in the project, rather
	// than just the current caller. Set before the first call to Next.
	AllUsers bool
	// State filters the jobs by their state, when not StateUnspecified.
	// Set before the first call to Next.
	State State

	ctx       context.Context
	c         *Client
	items     []*Job
	nextToken string
	lastPage  bool
}

// Next returns the next Job. Its second return value is iterator.Done if
// there are no more results.
func (it *JobIterator) Next() (*Job, error) {
	for len(it.items) == 0 {
		if it.lastPage {
			return nil, iterator.Done
		}
		if err := it.fetch(); err != nil {
			return nil, err
		}
	}
	j := it.items[0]
	it.items = it.items[1:]
	return j, nil
}

func (it *JobIterator) fetch() error {
	var stateFilter []string
	switch it.State {
	case Pending:
		stateFilter = []string{"pending"}
	case Running:
		stateFilter = []string{"running"}
	case Done:
		stateFilter = []string{"done"}
	}
	req := it.c.bqs.Jobs.List(it.ProjectID).
		Context(it.ctx).
		PageToken(it.nextToken).
		Projection("full").
		AllUsers(it.AllUsers)
	if len(stateFilter) > 0 {
		req.StateFilter(stateFilter...)
	}
	setClientHeader(req.Header())
	var res *bq.JobList
	err := runWithRetry(it.ctx, it.c.retry, func() (err error) {
		sCtx := trace.StartSpan(it.ctx, "bigquery.jobs.list")
		res, err = req.Do()
		trace.EndSpan(sCtx, err)
		return err
	})
	if err != nil {
		return err
	}
	for _, lj := range res.Jobs {
		if lj.JobReference == nil {
			continue
		}
		j := &Job{
			c:         it.c,
			projectID: lj.JobReference.ProjectId,
			jobID:     lj.JobReference.JobId,
			location:  lj.JobReference.Location,
		}
		if lj.Configuration != nil && lj.Configuration.Query != nil {
			j.isQuery = true
		}
		it.items = append(it.items, j)
	}
	it.nextToken = res.NextPageToken
	it.lastPage = res.NextPageToken == ""
	return nil
}
