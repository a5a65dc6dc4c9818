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

// Package browser provides the chromedp-backed implementation of the
// page-automation capability the booking engine is written against.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/ttbt-io/courtbooker/booking"
)

// Options controls how the browser is launched.
type Options struct {
	// Headless runs chrome without a visible window.
	Headless bool
	// DebuggerURL attaches to an already-running chrome instance (e.g. a
	// chromedp docker container) instead of launching one.
	DebuggerURL string
	// SlowMo inserts a pause after every action, making a headful session
	// watchable. Zero disables it.
	SlowMo time.Duration
	// UserAgent overrides the default user agent when non-empty.
	UserAgent string
}

// Browser owns a chrome tab and implements booking.Page on it.
type Browser struct {
	ctx     context.Context
	cancels []context.CancelFunc
	slowMo  time.Duration
}

var _ booking.Page = (*Browser)(nil)

// New launches (or attaches to) chrome and opens a tab. The caller must
// Close it.
func New(ctx context.Context, opts Options) (*Browser, error) {
	b := &Browser{slowMo: opts.SlowMo}

	var allocCtx context.Context
	var cancel context.CancelFunc
	if opts.DebuggerURL != "" {
		allocCtx, cancel = chromedp.NewRemoteAllocator(ctx, opts.DebuggerURL)
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.WindowSize(1920, 1080),
		)
		if opts.UserAgent != "" {
			allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
		}
		allocCtx, cancel = chromedp.NewExecAllocator(ctx, allocOpts...)
	}
	b.cancels = append(b.cancels, cancel)

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	b.cancels = append(b.cancels, cancelTab)
	b.ctx = tabCtx

	// Force the browser process to start now so launch failures surface
	// here rather than on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return b, nil
}

// Close shuts the tab and the browser down.
func (b *Browser) Close() {
	for i := len(b.cancels) - 1; i >= 0; i-- {
		b.cancels[i]()
	}
}

// run executes actions on the tab, honoring cancellation of the caller's
// context even though chromedp actions run on the tab's own context.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	if b.slowMo > 0 {
		select {
		case <-time.After(b.slowMo):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, chromedp.Navigate(url))
}

func (b *Browser) Location(ctx context.Context) (string, error) {
	var url string
	if err := b.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (b *Browser) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := b.run(tctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("timeout waiting for %s: %w", selector, err)
	}
	return nil
}

func (b *Browser) Click(ctx context.Context, selector string) error {
	return b.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (b *Browser) Type(ctx context.Context, selector, text string) error {
	return b.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

// Press focuses selector and sends a key chord. Supported chords are plain
// key names ("Enter", "Backspace") and "ctrl+<letter>".
func (b *Browser) Press(ctx context.Context, selector, key string) error {
	actions := []chromedp.Action{chromedp.Focus(selector, chromedp.ByQuery)}
	switch {
	case strings.HasPrefix(strings.ToLower(key), "ctrl+"):
		letter := strings.TrimPrefix(strings.ToLower(key), "ctrl+")
		actions = append(actions, chromedp.KeyEvent(letter, chromedp.KeyModifiers(input.ModifierCtrl)))
	case strings.EqualFold(key, "Enter"):
		actions = append(actions, chromedp.KeyEvent(kb.Enter))
	case strings.EqualFold(key, "Backspace"):
		actions = append(actions, chromedp.KeyEvent(kb.Backspace))
	case strings.EqualFold(key, "Tab"):
		actions = append(actions, chromedp.KeyEvent(kb.Tab))
	case strings.EqualFold(key, "Escape"):
		actions = append(actions, chromedp.KeyEvent(kb.Escape))
	default:
		return fmt.Errorf("unsupported key chord %q", key)
	}
	return b.run(ctx, actions...)
}

func (b *Browser) Eval(ctx context.Context, js string, out any) error {
	return b.run(ctx, chromedp.Evaluate(js, out))
}

func (b *Browser) HTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := b.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}
