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

package e2e

import (
	"context"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ttbt-io/courtbooker/booking"
	"github.com/ttbt-io/courtbooker/browser"
)

var withChromeDP = flag.String("with-chromedp", "", "The url of the remote debugging port")

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(m.Run())
}

func newBrowser(t *testing.T) (*browser.Browser, context.Context) {
	t.Helper()
	if *withChromeDP == "" {
		t.Skip("--with-chromedp not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	t.Cleanup(cancel)

	b, err := browser.New(ctx, browser.Options{DebuggerURL: *withChromeDP})
	if err != nil {
		t.Fatalf("Failed to start browser: %v", err)
	}
	t.Cleanup(b.Close)
	return b, ctx
}

func stubOrchestrator(b *browser.Browser, site *stubSite, dryRun bool) *booking.Orchestrator {
	la, _ := time.LoadLocation("America/Los_Angeles")
	return &booking.Orchestrator{
		Page: b,
		Navigator: &booking.Navigator{
			Page:        b,
			BaseURL:     site.base,
			CalendarURL: site.base + "/Default.aspx?p=dynamicmodule&tt=booking",
			Username:    stubUsername,
			Password:    stubPassword,
		},
		Locator:         &booking.Locator{},
		Tx:              &booking.Transaction{DryRun: dryRun},
		Location:        la,
		DurationMinutes: 120,
	}
}

func targetRequest(court, startTime string) booking.Request {
	la, _ := time.LoadLocation("America/Los_Angeles")
	return booking.Request{
		TargetDate:      time.Now().In(la).AddDate(0, 0, booking.ReleaseLeadDays),
		StartTime:       startTime,
		Court:           court,
		DurationMinutes: 120,
	}
}

func TestDryRunStopsBeforeSubmission(t *testing.T) {
	b, ctx := newBrowser(t)
	site := startStubSite(t)
	orch := stubOrchestrator(b, site, true)

	summary, err := orch.RunRequests(ctx, []booking.Request{
		targetRequest("North Pickleball Court", "7:00 PM"),
	})
	if err != nil {
		t.Fatalf("RunRequests: %v", err)
	}
	if summary.Attempted != 1 || summary.Successful != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Outcomes[0].Status != booking.StatusDryRun {
		t.Errorf("status = %s, want DRY_RUN", summary.Outcomes[0].Status)
	}
	if n := site.bookingCount(); n != 0 {
		t.Errorf("stub received %d bookings in dry-run mode", n)
	}
}

func TestLiveBookingSubmits(t *testing.T) {
	b, ctx := newBrowser(t)
	site := startStubSite(t)
	orch := stubOrchestrator(b, site, false)

	summary, err := orch.RunRequests(ctx, []booking.Request{
		targetRequest("North Pickleball Court", "7:00 PM"),
	})
	if err != nil {
		t.Fatalf("RunRequests: %v", err)
	}
	if summary.Outcomes[0].Status != booking.StatusSuccess {
		t.Fatalf("summary = %+v", summary)
	}

	// The dialog submits over fetch; give it a moment to land.
	deadline := time.Now().Add(5 * time.Second)
	for site.bookingCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	if n := site.bookingCount(); n != 1 {
		t.Fatalf("stub received %d bookings, want 1", n)
	}
}

func TestBookedSlotReportsNoSlot(t *testing.T) {
	// The 7:00 PM South cell renders without an onclick handler; the attempt
	// must classify as a miss, not an error.
	b, ctx := newBrowser(t)
	site := startStubSite(t)
	orch := stubOrchestrator(b, site, true)

	summary, err := orch.RunRequests(ctx, []booking.Request{
		targetRequest("South Pickleball Court", "7:00 PM"),
	})
	if err != nil {
		t.Fatalf("RunRequests: %v", err)
	}
	if summary.Outcomes[0].Status != booking.StatusNoSlot {
		t.Errorf("status = %s, want NO_SLOT_FOUND", summary.Outcomes[0].Status)
	}
	if n := site.bookingCount(); n != 0 {
		t.Errorf("stub received %d bookings for a taken slot", n)
	}
}

func TestRejectedLogin(t *testing.T) {
	b, ctx := newBrowser(t)
	site := startStubSite(t)
	orch := stubOrchestrator(b, site, true)
	orch.Navigator.Password = "wrong"
	orch.Navigator.LoginTimeout = 5 * time.Second

	_, err := orch.RunRequests(ctx, []booking.Request{
		targetRequest("North Pickleball Court", "7:00 PM"),
	})
	if !errors.Is(err, booking.ErrAuth) {
		t.Fatalf("err = %v, want ErrAuth", err)
	}
	if !booking.Fatal(err) {
		t.Error("rejected login must be fatal")
	}
}
