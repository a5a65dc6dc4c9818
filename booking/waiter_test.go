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
	"testing"
	"time"
)

func TestWaitDuration(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatal(err)
	}
	release := Waiter{Hour: 0, Minute: 0, Second: 15, Location: la, Grace: 10 * time.Minute}

	tests := []struct {
		name string
		w    Waiter
		now  time.Time
		want time.Duration
	}{
		{
			name: "before the release instant",
			w:    release,
			now:  time.Date(2026, 9, 1, 0, 0, 5, 0, la),
			want: 10 * time.Second,
		},
		{
			name: "within grace period",
			w:    release,
			now:  time.Date(2026, 9, 1, 0, 3, 15, 0, la),
			want: 0,
		},
		{
			name: "exactly on the instant",
			w:    release,
			now:  time.Date(2026, 9, 1, 0, 0, 15, 0, la),
			want: 0,
		},
		{
			name: "missed beyond grace waits for tomorrow",
			w:    release,
			now:  time.Date(2026, 9, 1, 1, 0, 15, 0, la),
			want: 23 * time.Hour,
		},
		{
			name: "hard cap bounds a wrapped wait",
			w:    Waiter{Hour: 0, Minute: 0, Second: 15, Location: la, Grace: 10 * time.Minute, HardCap: time.Hour},
			now:  time.Date(2026, 9, 1, 1, 0, 15, 0, la),
			want: time.Hour,
		},
		{
			name: "late by more than rollover threshold",
			w:    release,
			now:  time.Date(2026, 9, 1, 13, 0, 15, 0, la),
			want: 11 * time.Hour,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.w.waitDuration(tc.now)
			if got != tc.want {
				t.Errorf("waitDuration(%s) = %s, want %s", tc.now, got, tc.want)
			}
		})
	}
}

func TestWaitHonorsContext(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatal(err)
	}
	w := Waiter{
		Hour: 0, Minute: 0, Second: 15,
		Location: la,
		Grace:    time.Minute,
		now:      func() time.Time { return time.Date(2026, 9, 1, 0, 0, 5, 0, la) },
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Wait(ctx); err == nil {
		t.Error("Wait returned nil on a canceled context")
	}
}

func TestWaitReturnsImmediatelyWithinGrace(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatal(err)
	}
	w := Waiter{
		Hour: 0, Minute: 0, Second: 15,
		Location: la,
		Grace:    10 * time.Minute,
		now:      func() time.Time { return time.Date(2026, 9, 1, 0, 2, 0, 0, la) },
	}
	start := time.Now()
	if err := w.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait blocked %s within the grace period", elapsed)
	}
}
