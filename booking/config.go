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
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is loaded once at process start and passed explicitly into the
// orchestrator; no component reads the environment on its own.
type Config struct {
	Username string `envconfig:"CLUB_USERNAME" required:"true"`
	Password string `envconfig:"CLUB_PASSWORD" required:"true"`

	BaseURL     string `envconfig:"CLUB_BASE_URL" default:"https://www.athenaeumcaltech.com"`
	CalendarURL string `envconfig:"CLUB_CALENDAR_URL" default:"https://www.athenaeumcaltech.com/Default.aspx?p=dynamicmodule&pageid=378495&tt=booking&ssid=295150&vnf=1"`

	// BookingList is the recurring weekly schedule, e.g.
	// "Tuesday 7:00 PM,Friday 4:00 PM". Empty selects manual single-booking
	// mode (the explicit CLI tuple).
	BookingList     string `envconfig:"BOOKING_LIST"`
	CourtName       string `envconfig:"COURT_NAME" default:"North Pickleball Court"`
	DurationMinutes int    `envconfig:"BOOKING_DURATION" default:"120"`

	// Timezone is the site's authoritative civil timezone. All date math
	// happens here, never in the host or server zone.
	Timezone string `envconfig:"BOOKING_TIMEZONE" default:"America/Los_Angeles"`
	// ReleaseTime is the daily clock time (HH:MM:SS) at which the site
	// opens bookings for the date ReleaseLeadDays out.
	ReleaseTime string        `envconfig:"RELEASE_TIME" default:"00:00:15"`
	Grace       time.Duration `envconfig:"RELEASE_GRACE" default:"10m"`
	WaitHardCap time.Duration `envconfig:"RELEASE_WAIT_CAP" default:"10m"`

	// SafetyMode stops every transaction just before submission and reports
	// what would have been booked. Deliberately defaults to on.
	SafetyMode bool `envconfig:"SAFETY_MODE" default:"true"`

	Headless bool   `envconfig:"HEADLESS" default:"false"`
	DumpDir  string `envconfig:"DIAG_DIR" default:"diagnostics"`

	// Telegram settings are optional; unset disables the notifier.
	TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ReleaseClock parses ReleaseTime into its clock components.
func (c Config) ReleaseClock() (hour, min, sec int, err error) {
	if _, err = fmt.Sscanf(c.ReleaseTime, "%d:%d:%d", &hour, &min, &sec); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid RELEASE_TIME %q: %w", c.ReleaseTime, err)
	}
	return hour, min, sec, nil
}
