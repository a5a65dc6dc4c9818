// Copyright (c) 2026 TTBT Enterprises LLC
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

package booking

import (
	"github.com/cockroachdb/errors"
)

// Error taxonomy. Auth and navigation errors abort the whole run; everything
// else is recorded per attempt and the run continues.
var (
	// ErrAuth means the credentials were rejected or the login form could
	// not be found at all. Fatal.
	ErrAuth = errors.New("authentication failed")

	// ErrNavigation means the deep link to the reservation calendar did not
	// resolve. Fatal.
	ErrNavigation = errors.New("calendar navigation failed")

	// ErrNoSlot is the expected miss: the requested court/time cell exists
	// but is not bookable, or is not rendered. Recorded, never fatal.
	ErrNoSlot = errors.New("no bookable slot")

	// ErrTransaction means the dialog flow broke at some state after a slot
	// was already located. Recorded, never fatal.
	ErrTransaction = errors.New("booking transaction failed")
)

// classify maps an attempt error onto an outcome status. Anything that is
// not part of the taxonomy is a structural surprise and reported as
// StatusError so it gets a diagnostic dump.
func classify(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrNoSlot):
		return StatusNoSlot
	case errors.Is(err, ErrTransaction):
		return StatusTransactionFailed
	default:
		return StatusError
	}
}
