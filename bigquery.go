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
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	bq "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/option"

	"github.com/nixxholas/gcp-bigquery-client/internal"
	"github.com/nixxholas/gcp-bigquery-client/internal/trace"
)

const (
	// Scope is the Oauth2 scope for the service.
	// For relevant BigQuery scopes, see:
	// https://developers.google.com/identity/protocols/googlescopes#bigqueryv2
	Scope           = "https://www.googleapis.com/auth/bigquery"
	userAgentPrefix = "gcp-bigquery-client"
)

var xGoogHeader = fmt.Sprintf("gl-go/%s gccl/%s", goVersion(), internal.Version)

func goVersion() string {
	return strings.TrimPrefix(runtime.Version(), "go")
}

func setClientHeader(headers http.Header) {
	headers.Set("x-goog-api-client", xGoogHeader)
}

// Client may be used to perform BigQuery operations.
type Client struct {
	// Location, if set, will be used as the default location for all
	// subsequent dataset creation and job operations. A location specified
	// directly in one of those operations will override this value.
	Location string

	projectID string
	bqs       *bq.Service
	retry     *retryConfig
}

// NewClient constructs a new Client which can perform BigQuery operations.
// Operations performed via the client are billed to the specified GCP project.
func NewClient(ctx context.Context, projectID string, opts ...option.ClientOption) (*Client, error) {
	o := []option.ClientOption{
		option.WithScopes(Scope),
		option.WithUserAgent(fmt.Sprintf("%s/%s", userAgentPrefix, internal.Version)),
	}
	o = append(o, opts...)
	bqs, err := bq.NewService(ctx, o...)
	if err != nil {
		return nil, fmt.Errorf("bigquery: constructing client: %w", err)
	}

	c := &Client{
		projectID: projectID,
		bqs:       bqs,
		retry:     defaultRetryConfig(),
	}
	return c, nil
}

// NewClientFromServiceAccountKeyFile constructs a Client authenticated with
// the given service account key file, bypassing Application Default
// Credentials.
func NewClientFromServiceAccountKeyFile(ctx context.Context, projectID, keyFile string, opts ...option.ClientOption) (*Client, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("bigquery: reading service account key file: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, Scope)
	if err != nil {
		return nil, fmt.Errorf("bigquery: parsing service account key file: %w", err)
	}
	o := append([]option.ClientOption{option.WithTokenSource(conf.TokenSource(ctx))}, opts...)
	return NewClient(ctx, projectID, o...)
}

// Project returns the project ID for this instance of the client.
func (c *Client) Project() string {
	return c.projectID
}

// Close closes any resources held by the client.
// Close should be called when the client is no longer needed.
// It need not be called at program exit.
func (c *Client) Close() error {
	return nil
}

// SetRetry configures the client with custom retry behavior as specified by
// the options that are passed to it. All operations using this client will
// use the customized retry configuration.
func (c *Client) SetRetry(opts ...RetryOption) {
	var retry *retryConfig
	if c.retry != nil {
		// merge the options with the existing retry
		retry = c.retry
	} else {
		retry = defaultRetryConfig()
	}
	for _, opt := range opts {
		opt.apply(retry)
	}
	c.retry = retry
}

// Calls the Jobs.Insert RPC and returns a Job.
func (c *Client) insertJob(ctx context.Context, job *bq.Job) (*Job, error) {
	call := c.bqs.Jobs.Insert(c.projectID, job).Context(ctx)
	setClientHeader(call.Header())
	var res *bq.Job
	var err error
	invoke := func() error {
		sCtx := trace.StartSpan(ctx, "bigquery.jobs.insert")
		res, err = call.Do()
		trace.EndSpan(sCtx, err)
		return err
	}
	// A job with a client-generated ID can be retried; the presence of the
	// ID makes the insert operation idempotent.
	if job.JobReference != nil {
		// We deviate from default retries due to BigQuery wanting to retry
		// structured internal job errors.
		err = runWithRetryExplicit(ctx, c.retry, invoke, jobRetryReasons)
	} else {
		err = invoke()
	}
	if err != nil {
		return nil, err
	}
	return bqToJob(res, c)
}

// runQuery invokes the stateless query path (jobs.query), which can return
// the first page of results without a separate results call.
func (c *Client) runQuery(ctx context.Context, queryRequest *bq.QueryRequest) (*bq.QueryResponse, error) {
	call := c.bqs.Jobs.Query(c.projectID, queryRequest).Context(ctx)
	setClientHeader(call.Header())

	var res *bq.QueryResponse
	var err error
	invoke := func() error {
		sCtx := trace.StartSpan(ctx, "bigquery.jobs.query")
		res, err = call.Do()
		trace.EndSpan(sCtx, err)
		return err
	}

	err = runWithRetryExplicit(ctx, c.retry, invoke, jobRetryReasons)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Convert a number of milliseconds since the Unix epoch to a time.Time.
// Treat an input of zero specially: convert it to the zero time,
// rather than the start of the epoch.
func unixMillisToTime(m int64) time.Time {
	if m == 0 {
		return time.Time{}
	}
	return time.Unix(0, m*1e6)
}
