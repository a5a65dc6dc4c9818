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
	"log"
	"strings"
	"time"
)

// ReleaseLeadDays is how far ahead the club opens its reservation calendar.
// Slots for a given date become bookable exactly this many days earlier.
const ReleaseLeadDays = 7

// CourtBoth is the court selector sentinel that expands to both concrete
// pickleball courts at expansion time.
const CourtBoth = "both"

// BothCourts is the expansion of the CourtBoth sentinel, in booking order.
var BothCourts = []string{"North Pickleball Court", "South Pickleball Court"}

// Rule is one entry of the recurring weekly schedule: book CourtSelector at
// StartTime every week on Day. Immutable, supplied by configuration.
type Rule struct {
	Day           time.Weekday
	StartTime     string // "7:00 PM"
	CourtSelector string // concrete court name, or CourtBoth
}

// Request is one concrete unit of work derived from a Rule: a (date, time,
// court, duration) tuple the orchestrator will attempt exactly once.
type Request struct {
	TargetDate      time.Time `json:"targetDate"`
	StartTime       string    `json:"startTime"`
	Court           string    `json:"court"`
	DurationMinutes int       `json:"durationMinutes"`
}

// DateString renders the target date in the MM/DD/YYYY format the site's
// date field expects.
func (r Request) DateString() string {
	return r.TargetDate.Format("01/02/2006")
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseBookingList parses a comma-separated weekly schedule of the form
// "Tuesday 7:00 PM,Friday 4:00 PM". Each rule gets courtSelector attached.
// Malformed entries are logged and skipped, not treated as errors.
func ParseBookingList(list, courtSelector string) []Rule {
	var rules []Rule
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		day, timeOfDay, ok := strings.Cut(entry, " ")
		if !ok {
			log.Printf("Skipping invalid booking list entry: %q", entry)
			continue
		}
		wd, ok := weekdays[strings.ToLower(day)]
		if !ok {
			log.Printf("Skipping booking list entry with unknown day: %q", entry)
			continue
		}
		rules = append(rules, Rule{
			Day:           wd,
			StartTime:     strings.TrimSpace(timeOfDay),
			CourtSelector: courtSelector,
		})
	}
	return rules
}

// Expand turns the weekly rule set into the concrete requests due now.
//
// ref is normalized into loc before any date math; the target date is
// ref + ReleaseLeadDays, the earliest date the site accepts bookings for.
// A rule matches iff its weekday equals the weekday of the TARGET date, not
// the reference date. Rules for other weekdays are skipped silently. The
// CourtBoth sentinel expands to one request per concrete court, sharing
// date, time and duration.
func Expand(rules []Rule, ref time.Time, loc *time.Location, durationMinutes int) []Request {
	local := ref.In(loc)
	target := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).
		AddDate(0, 0, ReleaseLeadDays)

	var reqs []Request
	for _, rule := range rules {
		if rule.Day != target.Weekday() {
			continue
		}
		courts := []string{rule.CourtSelector}
		if strings.EqualFold(rule.CourtSelector, CourtBoth) {
			courts = BothCourts
		}
		for _, court := range courts {
			reqs = append(reqs, Request{
				TargetDate:      target,
				StartTime:       rule.StartTime,
				Court:           court,
				DurationMinutes: durationMinutes,
			})
		}
	}
	return reqs
}
