// Copyright 2025 Lattice Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import "errors"

var (
	// ErrRateLimited indicates the service rejected the call because the
	// caller exceeded its rate limit. Retryable with backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrService indicates a transient service-side failure (5xx-class).
	// Retryable with backoff.
	ErrService = errors.New("service error")

	// ErrMalformedResponse indicates the service answered but the response
	// could not be parsed or used the wrong vocabulary. Not retryable within
	// a single call; the item may be retried on a later invocation.
	ErrMalformedResponse = errors.New("malformed response")
)

// IsRetryable reports whether err represents a transient failure that is
// worth retrying with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrService)
}
