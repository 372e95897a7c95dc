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

/*
Package bigquery provides a typed client for the BigQuery REST API.

The following assumes a basic familiarity with BigQuery concepts.
See https://cloud.google.com/bigquery/docs.

# Creating a Client

To start working with this package, create a client:

	ctx := context.Background()
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		// TODO: Handle error.
	}

Authentication follows Application Default Credentials by default; to
authenticate with a service account key file instead, use
NewClientFromServiceAccountKeyFile.

# Querying

The simplest way to run a query and read its first page of results is
Query.ReadPage, which returns a ResultSet:

	q := client.Query("SELECT name, number FROM `dataset.table` WHERE number > @min")
	rs, err := q.ReadPage(ctx)
	if err != nil {
		// TODO: Handle error.
	}

A ResultSet is a forward-only cursor over one page of rows. Advance it with
Next, then read the current row with the typed accessors, by position or by
column name:

	for rs.Next() {
		name, err := rs.StringByName("name")
		if err != nil {
			// TODO: Handle error.
		}
		number, err := rs.Int64(1)
		if err != nil {
			// TODO: Handle error.
		}
		fmt.Println(name, number)
	}

Accessors return null-aware wrapper types such as NullInt64: a NULL cell
yields a value whose Valid field is false rather than an error. Reading a
cell as an incompatible type returns a *TypeConversionError, an unknown
column name a *UnknownColumnError, and an out-of-range index a
*ColumnRangeError. Calling an accessor before the first Next, or after Next
has returned false, returns ErrNoCurrentRow.

To iterate over all rows of a large result across pages, use Query.Read,
which returns a RowIterator:

	it, err := q.Read(ctx)
	if err != nil {
		// TODO: Handle error.
	}
	for {
		row, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			// TODO: Handle error.
		}
		name, err := row.StringByName("name")
		// ...
	}

You can also start the query running and get the results later. Create the
query as above, but call Run instead. This returns a Job, which represents
an asynchronous operation.

	job, err := q.Run(ctx)
	if err != nil {
		// TODO: Handle error.
	}

Get the job's ID, a printable string. You can save this string to retrieve
the results at a later time, even in another process.

	jobID := job.ID()

Use Client.JobFromID to recreate the Job, then Job.Wait to block until the
job finishes, and Job.Read or Job.QueryResults to get the results.

# Datasets and Tables

Client.Dataset and Dataset.Table return lightweight handles. Handles carry
no state; methods like Create, Metadata and Delete issue the corresponding
API calls. Table.Read returns a RowIterator over the table's stored rows,
and Table.Inserter streams rows into the table.

# Errors

The errors returned by this client's calls are often of type
googleapi.Error. These errors can be introspected for more information by
using errors.As with the richer *googleapi.Error type.
*/
package bigquery // import "github.com/nixxholas/gcp-bigquery-client"
