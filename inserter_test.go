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
	"testing"
)

func TestInserterHandle(t *testing.T) {
	tbl := &Table{ProjectID: "p", DatasetID: "d", TableID: "t"}
	ins := tbl.Inserter()
	if ins.t != tbl {
		t.Error("Inserter not bound to its table")
	}
}

func TestInserterPutValidation(t *testing.T) {
	// An inserter detached from a client cannot issue the RPC.
	ins := &Inserter{}
	err := ins.Put(context.Background(), []*RowToInsert{{Json: map[string]Value{"a": 1}}})
	if err == nil {
		t.Error("Put without a table: got nil error")
	}
	// No rows is a no-op, even without a client.
	if err := ins.Put(context.Background(), nil); err != nil {
		t.Errorf("Put with no rows: %v", err)
	}
}
