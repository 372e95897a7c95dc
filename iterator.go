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

	"google.golang.org/api/iterator"
)

// A pageFetcher returns the page of rows identified by pageToken, with ""
// meaning the first page.
type pageFetcher func(ctx context.Context, pageToken string) (*ResultSet, error)

// A RowIterator provides row-at-a-time access to the result of a BigQuery
// lookup, fetching successive pages with their continuation tokens as the
// caller advances.
type RowIterator struct {
	ctx context.Context
	pf  pageFetcher

	rs        *ResultSet // current page; nil until the first fetch
	nextToken string
	lastPage  bool
	err       error
}

func newRowIterator(ctx context.Context, pf pageFetcher) *RowIterator {
	return &RowIterator{ctx: ctx, pf: pf}
}

// newRowIteratorFromPage seeds the iterator with an already-fetched first
// page, as produced by the stateless query path.
func newRowIteratorFromPage(ctx context.Context, rs *ResultSet, pf pageFetcher) *RowIterator {
	return &RowIterator{
		ctx:       ctx,
		pf:        pf,
		rs:        rs,
		nextToken: rs.PageToken(),
		lastPage:  rs.PageToken() == "",
	}
}

// Next returns the next row of the result. Its second return value is
// iterator.Done if there are no more results. Once Next returns
// iterator.Done, all subsequent calls will return iterator.Done.
func (it *RowIterator) Next() (*Row, error) {
	if it.err != nil {
		return nil, it.err
	}
	for {
		if it.rs == nil {
			if err := it.fetch(""); err != nil {
				return nil, err
			}
		}
		if it.rs.Next() {
			return it.rs.Row()
		}
		if it.lastPage {
			return nil, iterator.Done
		}
		if err := it.fetch(it.nextToken); err != nil {
			return nil, err
		}
	}
}

func (it *RowIterator) fetch(token string) error {
	rs, err := it.pf(it.ctx, token)
	if err != nil {
		it.err = err
		return err
	}
	it.rs = rs
	it.nextToken = rs.PageToken()
	it.lastPage = rs.PageToken() == ""
	return nil
}

// TotalRows returns the total number of rows in the result, as reported by
// the most recently fetched page. It is zero before the first fetch.
func (it *RowIterator) TotalRows() uint64 {
	if it.rs == nil {
		return 0
	}
	return it.rs.TotalRows()
}

// Schema returns the schema of the result. It is nil before the first fetch.
func (it *RowIterator) Schema() Schema {
	if it.rs == nil {
		return nil
	}
	return it.rs.Schema()
}
