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
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const loginPath = "member-login"

// The site is built on an unstable ASP.NET control tree; every element is
// located through an ordered fallback chain, from the exact id observed in
// production down to generic tag heuristics.
var (
	usernameFieldChain = []strategy{
		{"username field (exact id)", "#masterPageUC_MPCA378459_ctl00_ctl02_txtUsername"},
		{"username field (placeholder)", `input[placeholder="Username"]`},
		{"username field (class)", "input.advLogUsername"},
		{"username field (generic)", `input[type="text"][placeholder*="Username"]`},
	}
	passwordFieldChain = []strategy{
		{"password field (exact id)", "#masterPageUC_MPCA378459_ctl00_ctl02_txtPassword"},
		{"password field (placeholder)", `input[placeholder="Password"]`},
		{"password field (class)", "input.advLogPassword"},
		{"password field (generic)", `input[type="password"]`},
	}
	loginButtonChain = []strategy{
		{"login button (exact id)", "#btnSecureLogin"},
		{"login button (input id)", "input#btnSecureLogin"},
		{"login button (class)", "input.abut"},
		{"login button (id pattern)", `input[type="button"][id*="Login"]`},
		{"login button (persist id)", "#masterPageUC_MPCA378459_ctl00_ctl02_persistLoginBtn"},
		{"login button (submit input)", `input[type="submit"]`},
		{"login button (submit button)", `button[type="submit"]`},
	}
)

// Navigator owns session establishment: form login and the deep link to the
// reservation calendar. It holds the run's single authenticated page.
type Navigator struct {
	Page        Page
	BaseURL     string
	CalendarURL string
	Username    string
	Password    string

	// Diag receives page dumps on fatal failures. Optional.
	Diag *Diagnostics

	// FieldTimeout bounds each selector strategy attempt.
	FieldTimeout time.Duration
	// LoginTimeout bounds the post-submit URL poll.
	LoginTimeout time.Duration
}

func (n *Navigator) fieldTimeout() time.Duration {
	if n.FieldTimeout > 0 {
		return n.FieldTimeout
	}
	return 3 * time.Second
}

func (n *Navigator) loginTimeout() time.Duration {
	if n.LoginTimeout > 0 {
		return n.LoginTimeout
	}
	return 15 * time.Second
}

// Login authenticates against the member portal. The login form is located
// via the fallback chains above; total failure to find it dumps the page
// structure for diagnostics and returns ErrAuth. Success is decided by URL
// inspection, because the site may complete the login from client-side
// script without a full navigation.
func (n *Navigator) Login(ctx context.Context) error {
	log.Printf("Navigating to login page")
	if err := n.Page.Navigate(ctx, n.BaseURL+"/"+loginPath); err != nil {
		return errors.Mark(errors.Wrap(err, "open login page"), ErrAuth)
	}

	userSel := firstVisible(ctx, n.Page, usernameFieldChain, n.fieldTimeout())
	passSel := firstVisible(ctx, n.Page, passwordFieldChain, n.fieldTimeout())
	if userSel == "" || passSel == "" {
		n.dumpPage(ctx, "login-form-not-found")
		return errors.Mark(errors.New("login form not found by any strategy"), ErrAuth)
	}

	if err := n.Page.Type(ctx, userSel, n.Username); err != nil {
		return errors.Mark(errors.Wrap(err, "enter username"), ErrAuth)
	}
	if err := n.Page.Type(ctx, passSel, n.Password); err != nil {
		return errors.Mark(errors.Wrap(err, "enter password"), ErrAuth)
	}

	btnSel := firstPresent(ctx, n.Page, loginButtonChain)
	if btnSel == "" {
		n.dumpPage(ctx, "login-button-not-found")
		return errors.Mark(errors.New("login button not found by any strategy"), ErrAuth)
	}
	log.Printf("Submitting credentials")
	if err := n.Page.Click(ctx, btnSel); err != nil {
		return errors.Mark(errors.Wrap(err, "click login button"), ErrAuth)
	}

	// The button may trigger a script-driven login with no navigation event
	// to wait on. Poll the URL until the login path disappears.
	deadline := time.Now().Add(n.loginTimeout())
	for {
		url, err := n.Page.Location(ctx)
		if err == nil && !strings.Contains(strings.ToLower(url), loginPath) {
			log.Printf("Login successful, now at %.80s", url)
			return nil
		}
		if time.Now().After(deadline) {
			n.dumpPage(ctx, "login-rejected")
			return errors.Mark(errors.New("still on login page after submit"), ErrAuth)
		}
		select {
		case <-ctx.Done():
			return errors.Mark(ctx.Err(), ErrAuth)
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// OpenCalendar deep-links straight to the reservation calendar. No UI
// traversal; the direct URL is faster and deterministic.
func (n *Navigator) OpenCalendar(ctx context.Context) error {
	log.Printf("Opening reservation calendar")
	if err := n.Page.Navigate(ctx, n.CalendarURL); err != nil {
		return errors.Mark(errors.Wrap(err, "open calendar"), ErrNavigation)
	}
	url, err := n.Page.Location(ctx)
	if err != nil {
		return errors.Mark(err, ErrNavigation)
	}
	// Landing back on the login page means the session did not stick.
	if strings.Contains(strings.ToLower(url), loginPath) {
		n.dumpPage(ctx, "calendar-redirected-to-login")
		return errors.Mark(errors.Newf("calendar deep link bounced to %.80s", url), ErrNavigation)
	}
	log.Printf("Calendar at %.80s", url)
	return nil
}

func (n *Navigator) dumpPage(ctx context.Context, label string) {
	if n.Diag == nil {
		return
	}
	n.Diag.DumpPage(ctx, n.Page, label)
}
