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

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Orchestrator composes the engine per run: expand the schedule, establish
// the session, optionally wait for the release instant, then attempt every
// request sequentially. The authenticated page is exclusively owned by the
// orchestrator for the run's duration; requests are never attempted in
// parallel because the site tracks one active session and concurrent dialogs
// corrupt each other.
type Orchestrator struct {
	Page      Page
	Navigator *Navigator
	Locator   *Locator
	Tx        *Transaction
	Diag      *Diagnostics

	// Waiter, when non-nil, is invoked once after the calendar page is open
	// (scheduled mode). Manual runs leave it nil and act immediately.
	Waiter *Waiter

	// Location is the site's authoritative timezone for all date math.
	Location *time.Location
	// DurationMinutes applies to every request of the run.
	DurationMinutes int

	// CourtDelay separates attempts for the same time slot on different
	// courts; SlotDelay separates different time slots. Politeness pauses,
	// not retries.
	CourtDelay time.Duration
	SlotDelay  time.Duration
}

func (o *Orchestrator) courtDelay() time.Duration {
	if o.CourtDelay > 0 {
		return o.CourtDelay
	}
	return time.Second
}

func (o *Orchestrator) slotDelay() time.Duration {
	if o.SlotDelay > 0 {
		return o.SlotDelay
	}
	return 2 * time.Second
}

// Run expands rules against ref and attempts every resulting request. Only
// ErrAuth and ErrNavigation abort the run; per-request failures are folded
// into the summary and the loop continues. An empty expansion returns an
// empty summary without opening a session.
func (o *Orchestrator) Run(ctx context.Context, rules []Rule, ref time.Time) (*Summary, error) {
	reqs := Expand(rules, ref, o.Location, o.DurationMinutes)
	return o.RunRequests(ctx, reqs)
}

// RunRequests attempts an explicit list of requests, bypassing schedule
// expansion. Manual single-booking invocations come in through here.
func (o *Orchestrator) RunRequests(ctx context.Context, reqs []Request) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}

	if len(reqs) == 0 {
		log.Printf("No bookings due today, exiting")
		return summary, nil
	}
	log.Printf("%d booking(s) due today", len(reqs))

	if err := o.Navigator.Login(ctx); err != nil {
		return summary, err
	}
	if err := o.Navigator.OpenCalendar(ctx); err != nil {
		return summary, err
	}

	if o.Waiter != nil {
		if err := o.Waiter.Wait(ctx); err != nil {
			return summary, err
		}
		// The release is server-side; the grid rendered before the wait is
		// stale and must be reloaded before any scan.
		if err := o.Navigator.OpenCalendar(ctx); err != nil {
			return summary, err
		}
	}

	for i, req := range reqs {
		if i > 0 {
			o.pause(ctx, reqs[i-1], req)
		}
		summary.add(o.attempt(ctx, req))
	}

	log.Printf("Run %s complete: attempted=%d successful=%d failed=%d",
		summary.RunID, summary.Attempted, summary.Successful, summary.Failed)
	return summary, nil
}

// attempt books one concrete (date, time, court) tuple. All taxonomy errors
// below auth/navigation are absorbed into the outcome here; nothing from a
// single attempt can crash the run.
func (o *Orchestrator) attempt(ctx context.Context, req Request) Outcome {
	log.Printf("Attempting %s on %s at %s", req.Court, req.DateString(), req.StartTime)

	slot, err := o.Locator.Locate(ctx, o.Page, req.DateString(), req.StartTime, req.Court)
	if err == nil {
		err = o.Tx.Acquire(ctx, o.Page, slot, req.DurationMinutes)
	}

	status := classify(err)
	if status == StatusSuccess && o.Tx.DryRun {
		status = StatusDryRun
	}
	out := Outcome{Request: req, Status: status}
	if err != nil {
		out.Detail = err.Error()
		log.Printf("Attempt failed (%s): %v", status, err)
		if status == StatusError {
			o.Diag.DumpPage(ctx, o.Page, "attempt-error")
		}
	} else {
		log.Printf("Attempt finished: %s", status)
	}
	return out
}

// pause applies the politeness delay between consecutive attempts: short
// between courts of the same time slot, longer between time slots.
func (o *Orchestrator) pause(ctx context.Context, prev, next Request) {
	d := o.slotDelay()
	if prev.StartTime == next.StartTime && prev.TargetDate.Equal(next.TargetDate) {
		d = o.courtDelay()
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// Fatal reports whether err should abort the whole run.
func Fatal(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrNavigation)
}
