// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package automl

import "errors"

var (
	// ErrPipelineNotFound is returned when a result lookup uses an ID the
	// search never assigned.
	ErrPipelineNotFound = errors.New("automl: pipeline not found")

	// ErrRunRequired is returned by operations that need at least one
	// completed search, such as adding external results to the rankings.
	ErrRunRequired = errors.New("automl: search must be run before this operation")

	// ErrSearchInProgress is returned when Run is called while another
	// run on the same searcher is still active.
	ErrSearchInProgress = errors.New("automl: a search is already in progress")

	// ErrDataChecksFailed wraps error-severity data check findings that
	// aborted a search before evaluation started.
	ErrDataChecksFailed = errors.New("automl: data checks failed")
)
