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
	"context"
	"log"
	"time"
)

// rolloverThreshold separates "we missed today's release by a lot" from "the
// raw delta wrapped around midnight". A lateness above this is treated as a
// rollover to the next occurrence rather than a genuinely missed release.
const rolloverThreshold = 12 * time.Hour

// Waiter suspends execution until the site's daily release instant: the
// fixed clock time, in the site's timezone, at which slots ReleaseLeadDays
// out become bookable.
//
// This is the single scheduled blocking point of the whole pipeline. The
// caller must reload the calendar page after Wait returns; the release is
// server-side and the previously rendered grid is stale.
type Waiter struct {
	Hour, Minute, Second int
	Location             *time.Location

	// Grace is how long past the release instant still counts as on time.
	Grace time.Duration
	// HardCap bounds the final wait no matter what the clock math said. A
	// negative-logic bug that would produce a ~24h sleep wakes too early
	// instead of hanging silently.
	HardCap time.Duration

	// now is stubbed in tests.
	now func() time.Time
}

// waitDuration computes how long to sleep from now. Zero means the release
// instant is already here (or recently passed, within Grace).
func (w *Waiter) waitDuration(now time.Time) time.Duration {
	now = now.In(w.Location)
	target := time.Date(now.Year(), now.Month(), now.Day(), w.Hour, w.Minute, w.Second, 0, w.Location)
	delta := target.Sub(now)

	if delta <= 0 {
		late := -delta
		if late <= w.Grace {
			log.Printf("Release instant passed %s ago, within grace period; proceeding", late.Round(time.Second))
			return 0
		}
		if late > rolloverThreshold {
			// The target computed for "today" is actually yesterday's
			// occurrence; re-aim at the next one.
			log.Printf("Release delta %s looks like a midnight rollover; targeting next occurrence", late.Round(time.Second))
		} else {
			log.Printf("Release instant missed by %s; targeting next occurrence", late.Round(time.Second))
		}
		delta = target.AddDate(0, 0, 1).Sub(now)
	}

	if w.HardCap > 0 && delta > w.HardCap {
		log.Printf("Clamping wait of %s to hard cap %s", delta.Round(time.Second), w.HardCap)
		delta = w.HardCap
	}
	return delta
}

// Wait sleeps until the release instant as computed by waitDuration. It
// returns early only if ctx is cancelled.
func (w *Waiter) Wait(ctx context.Context) error {
	nowFn := w.now
	if nowFn == nil {
		nowFn = time.Now
	}
	d := w.waitDuration(nowFn())
	if d <= 0 {
		return nil
	}
	log.Printf("Waiting %s for release instant %02d:%02d:%02d %s",
		d.Round(time.Second), w.Hour, w.Minute, w.Second, w.Location)
	select {
	case <-time.After(d):
		log.Printf("Release instant reached")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
