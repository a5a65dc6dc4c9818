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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ttbt-io/courtbooker/booking"
	"github.com/ttbt-io/courtbooker/browser"
	"github.com/ttbt-io/courtbooker/notify"
)

var (
	manualDate  = flag.String("date", "", "Book a single slot on this date (MM/DD/YYYY) instead of expanding BOOKING_LIST")
	manualTime  = flag.String("time", "", "Start time for --date mode, e.g. \"7:00 PM\"")
	manualCourt = flag.String("court", "", "Court for --date mode; overrides COURT_NAME, \"both\" expands to both courts")
	duration    = flag.Int("duration", 0, "Booking duration in minutes; overrides BOOKING_DURATION")
	invokeTime  = flag.String("invoke-time", "", "Scheduled mode: reference instant \"MM-DD-YYYY HH:MM:SS\" (site timezone); waits for the daily release before booking")
	dryRun      = flag.Bool("dry-run", true, "Stop each booking just before submission and report what would have been booked")
	headless    = flag.Bool("headless", false, "Run the browser without a visible window; overrides HEADLESS")
	debuggerURL = flag.String("debugger-url", "", "Attach to a running chrome devtools endpoint instead of launching one")
	slowMo      = flag.Duration("slow-mo", 0, "Pause after each browser action, for watching a headful run")
)

// flagWasSet reports whether the named flag was given explicitly, so env
// defaults only apply when the CLI stayed silent.
func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func main() {
	flag.Parse()

	cfg, err := booking.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Failed to load timezone %q: %v", cfg.Timezone, err)
	}

	if flagWasSet("duration") {
		cfg.DurationMinutes = *duration
	}
	if flagWasSet("dry-run") {
		cfg.SafetyMode = *dryRun
	}
	if flagWasSet("headless") {
		cfg.Headless = *headless
	}
	if cfg.SafetyMode {
		log.Printf("Dry-run mode: no booking will be submitted")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := browser.New(ctx, browser.Options{
		Headless:    cfg.Headless,
		DebuggerURL: *debuggerURL,
		SlowMo:      *slowMo,
	})
	if err != nil {
		log.Fatalf("Failed to start browser: %v", err)
	}
	defer b.Close()

	diag := &booking.Diagnostics{Dir: cfg.DumpDir}
	orch := &booking.Orchestrator{
		Page: b,
		Navigator: &booking.Navigator{
			Page:        b,
			BaseURL:     cfg.BaseURL,
			CalendarURL: cfg.CalendarURL,
			Username:    cfg.Username,
			Password:    cfg.Password,
			Diag:        diag,
		},
		Locator:         &booking.Locator{},
		Tx:              &booking.Transaction{DryRun: cfg.SafetyMode},
		Diag:            diag,
		Location:        loc,
		DurationMinutes: cfg.DurationMinutes,
	}

	summary, err := run(ctx, orch, cfg, loc)
	if err != nil {
		log.Printf("Run aborted: %v", err)
	}

	if summary != nil {
		notifier, nerr := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if nerr != nil {
			log.Printf("Notifier setup failed: %v", nerr)
		} else if nerr := notifier.SendSummary(summary); nerr != nil {
			log.Printf("Failed to send summary: %v", nerr)
		}

		out, jerr := json.MarshalIndent(summary, "", "  ")
		if jerr != nil {
			log.Fatalf("Failed to marshal summary: %v", jerr)
		}
		os.Stdout.Write(append(out, '\n'))
	}

	if err != nil || (summary != nil && summary.Failed > 0) {
		os.Exit(1)
	}
}

// run dispatches between manual single-booking mode and schedule mode.
func run(ctx context.Context, orch *booking.Orchestrator, cfg booking.Config, loc *time.Location) (*booking.Summary, error) {
	if *manualDate != "" {
		reqs, err := manualRequests(cfg, loc)
		if err != nil {
			log.Fatalf("Invalid manual booking flags: %v", err)
		}
		return orch.RunRequests(ctx, reqs)
	}

	ref := time.Now()
	if *invokeTime != "" {
		var err error
		ref, err = time.ParseInLocation("01-02-2006 15:04:05", *invokeTime, loc)
		if err != nil {
			log.Fatalf("Invalid --invoke-time %q: %v", *invokeTime, err)
		}
		hour, min, sec, err := cfg.ReleaseClock()
		if err != nil {
			log.Fatalf("%v", err)
		}
		orch.Waiter = &booking.Waiter{
			Hour:     hour,
			Minute:   min,
			Second:   sec,
			Location: loc,
			Grace:    cfg.Grace,
			HardCap:  cfg.WaitHardCap,
		}
	}

	rules := booking.ParseBookingList(cfg.BookingList, cfg.CourtName)
	if len(rules) == 0 {
		log.Fatalf("BOOKING_LIST is empty or invalid and no --date was given; nothing to do")
	}
	return orch.Run(ctx, rules, ref)
}

// manualRequests builds the explicit request list for --date mode.
func manualRequests(cfg booking.Config, loc *time.Location) ([]booking.Request, error) {
	target, err := time.ParseInLocation("01/02/2006", *manualDate, loc)
	if err != nil {
		return nil, err
	}
	if *manualTime == "" {
		return nil, errors.New("--time is required with --date")
	}
	court := cfg.CourtName
	if *manualCourt != "" {
		court = *manualCourt
	}
	courts := []string{court}
	if strings.EqualFold(court, booking.CourtBoth) {
		courts = booking.BothCourts
	}
	var reqs []booking.Request
	for _, c := range courts {
		reqs = append(reqs, booking.Request{
			TargetDate:      target,
			StartTime:       *manualTime,
			Court:           c,
			DurationMinutes: cfg.DurationMinutes,
		})
	}
	return reqs, nil
}
