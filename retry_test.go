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
	"io"
	"net/url"
	"testing"
	"time"

	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/api/googleapi"
)

func TestRetryableError(t *testing.T) {
	for _, test := range []struct {
		desc string
		err  error
		want bool
	}{
		{desc: "nil error", err: nil, want: false},
		{desc: "unexpected EOF", err: io.ErrUnexpectedEOF, want: true},
		{desc: "http2 stream closed", err: errors.New("http2: stream closed"), want: true},
		{
			desc: "backendError reason",
			err:  &googleapi.Error{Errors: []googleapi.ErrorItem{{Reason: "backendError"}}},
			want: true,
		},
		{
			desc: "rateLimitExceeded reason",
			err:  &googleapi.Error{Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}}},
			want: true,
		},
		{
			desc: "non-retryable reason",
			err:  &googleapi.Error{Errors: []googleapi.ErrorItem{{Reason: "invalidQuery"}}},
			want: false,
		},
		{
			desc: "jobRateLimitExceeded not in default set",
			err:  &googleapi.Error{Errors: []googleapi.ErrorItem{{Reason: "jobRateLimitExceeded"}}},
			want: false,
		},
		{desc: "500", err: &googleapi.Error{Code: 500}, want: true},
		{desc: "502", err: &googleapi.Error{Code: 502}, want: true},
		{desc: "503", err: &googleapi.Error{Code: 503}, want: true},
		{desc: "504", err: &googleapi.Error{Code: 504}, want: true},
		{desc: "404", err: &googleapi.Error{Code: 404}, want: false},
		{desc: "429 without reason", err: &googleapi.Error{Code: 429}, want: false},
		{
			desc: "connection refused",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")},
			want: true,
		},
		{
			desc: "connection reset",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection reset by peer")},
			want: true,
		},
		{
			desc: "other url error",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: errors.New("no such host")},
			want: false,
		},
		{
			desc: "wrapped retryable",
			err:  fmt.Errorf("fetching page: %w", &googleapi.Error{Code: 503}),
			want: true,
		},
		{
			desc: "wrapped non-retryable",
			err:  fmt.Errorf("fetching page: %w", errors.New("boom")),
			want: false,
		},
	} {
		if got := retryableError(test.err, defaultRetryReasons); got != test.want {
			t.Errorf("%s: retryableError = %t, want %t", test.desc, got, test.want)
		}
	}
}

func TestRetryableErrorJobReasons(t *testing.T) {
	for _, reason := range []string{"backendError", "rateLimitExceeded", "jobRateLimitExceeded", "internalError"} {
		err := &googleapi.Error{Errors: []googleapi.ErrorItem{{Reason: reason}}}
		if !retryableError(err, jobRetryReasons) {
			t.Errorf("job-scoped reason %q not retryable", reason)
		}
	}
}

func TestRunWithRetryStopsOnPermanentError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := runWithRetry(context.Background(), defaultRetryConfig(), func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("called %d times, want 1", calls)
	}
}

func TestRunWithRetryRetriesTransientError(t *testing.T) {
	calls := 0
	cfg := &retryConfig{backoff: &gax.Backoff{Initial: time.Microsecond, Max: time.Microsecond, Multiplier: 1}}
	err := runWithRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return &googleapi.Error{Code: 503}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("called %d times, want 3", calls)
	}
}

func TestRunWithRetryCustomPredicate(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	cfg := &retryConfig{
		backoff: &gax.Backoff{Initial: time.Microsecond, Max: time.Microsecond, Multiplier: 1},
		shouldRetry: func(err error) bool {
			return errors.Is(err, boom) && calls < 2
		},
	}
	err := runWithRetry(context.Background(), cfg, func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
	if calls != 2 {
		t.Errorf("called %d times, want 2", calls)
	}
}

func TestSetRetry(t *testing.T) {
	c := testClient()
	bo := gax.Backoff{Initial: 2 * time.Second, Max: 10 * time.Second, Multiplier: 3}
	c.SetRetry(WithBackoff(bo), WithErrorFunc(func(err error) bool { return false }))
	if c.retry.backoff.Initial != 2*time.Second {
		t.Errorf("backoff Initial = %v, want 2s", c.retry.backoff.Initial)
	}
	if c.retry.shouldRetry == nil {
		t.Error("shouldRetry not set")
	}
}
