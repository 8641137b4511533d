// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import "context"

type (
	// Task is an operation to retry. It reports whether a failure may be
	// retried.
	Task = func(context.Context) (retry bool, err error)

	// Policy decides how often and how long a task is retried.
	Policy interface {
		Start(ctx context.Context, name string, task Task) error
	}
)
