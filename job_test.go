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

func TestJobStatusFromProto(t *testing.T) {
	for _, test := range []struct {
		in        *bq.JobStatus
		wantState State
		wantErr   bool // js.err set
	}{
		{in: &bq.JobStatus{State: "PENDING"}, wantState: Pending},
		{in: &bq.JobStatus{State: "RUNNING"}, wantState: Running},
		{in: &bq.JobStatus{State: "DONE"}, wantState: Done},
		{
			in: &bq.JobStatus{
				State:       "DONE",
				ErrorResult: &bq.ErrorProto{Reason: "invalidQuery", Message: "bad"},
			},
			wantState: Done,
			wantErr:   true,
		},
		{
			// An error result on a job that is still running is not final.
			in: &bq.JobStatus{
				State:       "RUNNING",
				ErrorResult: &bq.ErrorProto{Reason: "backendError"},
			},
			wantState: Running,
		},
	} {
		js, err := jobStatusFromProto(test.in)
		if err != nil {
			t.Fatal(err)
		}
		if js.State != test.wantState {
			t.Errorf("%+v: State = %v, want %v", test.in, js.State, test.wantState)
		}
		if (js.Err() != nil) != test.wantErr {
			t.Errorf("%+v: Err = %v, wantErr %t", test.in, js.Err(), test.wantErr)
		}
		if js.Done() != (test.wantState == Done) {
			t.Errorf("%+v: Done = %t", test.in, js.Done())
		}
	}
	if _, err := jobStatusFromProto(&bq.JobStatus{State: "EXPLODED"}); err == nil {
		t.Error("unknown state: got nil error")
	}
}

func TestJobStatusErrors(t *testing.T) {
	js, err := jobStatusFromProto(&bq.JobStatus{
		State: "DONE",
		Errors: []*bq.ErrorProto{
			{Reason: "r1", Message: "m1", Location: "l1"},
			{Reason: "r2", Message: "m2"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []*Error{
		{Reason: "r1", Message: "m1", Location: "l1"},
		{Reason: "r2", Message: "m2"},
	}
	if diff := cmp.Diff(want, js.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestJobStatisticsFromProto(t *testing.T) {
	in := &bq.JobStatistics{
		CreationTime:        1700000000000,
		StartTime:           1700000001000,
		EndTime:             1700000002000,
		TotalBytesProcessed: 123,
		Query: &bq.JobStatistics2{
			CacheHit:            true,
			StatementType:       "SELECT",
			TotalBytesBilled:    456,
			TotalBytesProcessed: 123,
			NumDmlAffectedRows:  2,
			Schema: &bq.TableSchema{Fields: []*bq.TableFieldSchema{
				{Name: "x", Type: "INTEGER"},
			}},
		},
	}
	got := jobStatisticsFromProto(in)
	if got.CreationTime != time.Unix(0, 1700000000000*1e6) {
		t.Errorf("CreationTime = %v", got.CreationTime)
	}
	if got.TotalBytesProcessed != 123 {
		t.Errorf("TotalBytesProcessed = %d, want 123", got.TotalBytesProcessed)
	}
	q := got.Query
	if q == nil {
		t.Fatal("Query statistics missing")
	}
	if !q.CacheHit || q.StatementType != "SELECT" || q.TotalBytesBilled != 456 || q.NumDMLAffectedRows != 2 {
		t.Errorf("Query statistics = %+v", q)
	}
	if len(q.Schema) != 1 || q.Schema[0].Name != "x" {
		t.Errorf("Schema = %v", q.Schema)
	}

	if jobStatisticsFromProto(nil) != nil {
		t.Error("nil statistics should map to nil")
	}
}

func TestBQToJob(t *testing.T) {
	c := testClient()
	j, err := bqToJob(&bq.Job{
		JobReference:  &bq.JobReference{ProjectId: "p", JobId: "j", Location: "EU"},
		Configuration: &bq.JobConfiguration{Query: &bq.JobConfigurationQuery{Query: "select 1"}},
	}, c)
	if err != nil {
		t.Fatal(err)
	}
	if j.ID() != "j" || j.ProjectID() != "p" || j.Location() != "EU" {
		t.Errorf("job = %+v", j)
	}
	if !j.isQuery {
		t.Error("query job not marked as query")
	}

	j, err = bqToJob(&bq.Job{
		JobReference:  &bq.JobReference{ProjectId: "p", JobId: "j2"},
		Configuration: &bq.JobConfiguration{Extract: &bq.JobConfigurationExtract{}},
	}, c)
	if err != nil {
		t.Fatal(err)
	}
	if j.isQuery {
		t.Error("non-query job marked as query")
	}

	if _, err := bqToJob(&bq.Job{}, c); err == nil {
		t.Error("job without reference: got nil error")
	}
}

func TestReadOptions(t *testing.T) {
	var conf pagingConf
	for _, o := range []ReadOption{RecordsPerRequest(100), StartIndex(5), PageToken("tok")} {
		o.customizeRead(&conf)
	}
	want := pagingConf{
		recordsPerRequest:    100,
		setRecordsPerRequest: true,
		startIndex:           5,
		pageToken:            "tok",
	}
	if conf != want {
		t.Errorf("pagingConf = %+v, want %+v", conf, want)
	}
}

func TestUnixMillisToTime(t *testing.T) {
	if !unixMillisToTime(0).IsZero() {
		t.Error("zero millis should map to the zero time, not the epoch")
	}
	got := unixMillisToTime(1700000000123)
	want := time.Unix(1700000000, 123*1e6)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
