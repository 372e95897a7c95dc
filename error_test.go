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
	"errors"
	"strings"
	"testing"

	bq "google.golang.org/api/bigquery/v2"
)

func TestBQToError(t *testing.T) {
	if bqToError(nil) != nil {
		t.Error("nil ErrorProto should map to nil")
	}
	e := bqToError(&bq.ErrorProto{Location: "L", Message: "M", Reason: "R"})
	if e.Location != "L" || e.Message != "M" || e.Reason != "R" {
		t.Errorf("got %+v", e)
	}
	if !strings.Contains(e.Error(), "M") {
		t.Errorf("Error() = %q does not mention the message", e.Error())
	}
}

func TestMultiErrorString(t *testing.T) {
	for _, test := range []struct {
		m    MultiError
		want string
	}{
		{nil, "(0 errors)"},
		{MultiError{errors.New("a")}, "a"},
		{MultiError{errors.New("a"), errors.New("b")}, "a (and 1 other error)"},
		{MultiError{errors.New("a"), errors.New("b"), errors.New("c")}, "a (and 2 other errors)"},
	} {
		if got := test.m.Error(); got != test.want {
			t.Errorf("%v: got %q, want %q", test.m, got, test.want)
		}
	}
}

func TestPutMultiErrorString(t *testing.T) {
	if got := (PutMultiError{RowInsertionError{}}).Error(); got != "1 row insertion failed" {
		t.Errorf("got %q", got)
	}
	if got := (PutMultiError{RowInsertionError{}, RowInsertionError{}}).Error(); got != "2 row insertions failed" {
		t.Errorf("got %q", got)
	}
}

func TestTypedErrorMessages(t *testing.T) {
	uc := &UnknownColumnError{Name: "missing"}
	if !strings.Contains(uc.Error(), `"missing"`) {
		t.Errorf("UnknownColumnError = %q", uc.Error())
	}
	cr := &ColumnRangeError{Index: 9, NumFields: 3}
	if !strings.Contains(cr.Error(), "9") || !strings.Contains(cr.Error(), "3") {
		t.Errorf("ColumnRangeError = %q", cr.Error())
	}
	cause := errors.New("strconv failure")
	ce := conversionError("col", IntegerFieldType, "xyz", cause)
	if !errors.Is(ce, cause) {
		t.Error("conversionError does not wrap its cause")
	}
	for _, frag := range []string{`"xyz"`, `"col"`, "INTEGER"} {
		if !strings.Contains(ce.Error(), frag) {
			t.Errorf("TypeConversionError = %q missing %s", ce.Error(), frag)
		}
	}
}
