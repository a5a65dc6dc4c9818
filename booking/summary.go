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
	"fmt"
	"strings"
)

// Status is the terminal state of one booking attempt.
type Status string

const (
	StatusSuccess           Status = "SUCCESS"
	StatusDryRun            Status = "DRY_RUN"
	StatusNoSlot            Status = "NO_SLOT_FOUND"
	StatusTransactionFailed Status = "TRANSACTION_FAILED"
	StatusError             Status = "ERROR"
)

// Outcome records one concrete (date, time, court) attempt. Write-once.
type Outcome struct {
	Request Request `json:"request"`
	Status  Status  `json:"status"`
	Detail  string  `json:"detail,omitempty"`
}

// Succeeded reports whether the attempt claimed (or, in dry-run mode, would
// have claimed) the slot.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess || o.Status == StatusDryRun
}

// Summary is the terminal artifact of an orchestrator run. It is the single
// source of truth for what happened and is handed as-is to notification
// collaborators.
type Summary struct {
	RunID      string    `json:"runId"`
	Attempted  int       `json:"attempted"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Outcomes   []Outcome `json:"outcomes"`
}

func (s *Summary) add(o Outcome) {
	s.Attempted++
	if o.Succeeded() {
		s.Successful++
	} else {
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Render formats the summary as a human-readable alert: counts first, then
// one line per failed attempt.
func (s *Summary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking run %s\n", s.RunID)
	fmt.Fprintf(&b, "Attempted: %d  Successful: %d  Failed: %d\n", s.Attempted, s.Successful, s.Failed)
	for _, o := range s.Outcomes {
		if o.Succeeded() {
			continue
		}
		fmt.Fprintf(&b, "  %s %s %s: %s", o.Request.Court, o.Request.DateString(), o.Request.StartTime, o.Status)
		if o.Detail != "" {
			fmt.Fprintf(&b, " (%s)", o.Detail)
		}
		b.WriteString("\n")
	}
	return b.String()
}
