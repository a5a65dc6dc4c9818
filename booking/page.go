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
)

// Doc is one document-like container: the page's main document or an
// embedded frame. Scripts passed to Eval run in the document's own context.
type Doc interface {
	// URL is the document location as observed when the Doc was obtained.
	URL() string
	// Eval runs js in the document context and unmarshals the result into
	// out (out may be nil).
	Eval(ctx context.Context, js string, out any) error
	// Click dispatches a click on the first element matching selector.
	Click(ctx context.Context, selector string) error
}

// Page is the narrow page-automation capability the engine is built against.
// The chromedp-backed implementation lives in the browser package; tests use
// a scripted stand-in.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)
	// WaitVisible blocks until selector matches a visible element, or the
	// timeout expires.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	// Type focuses selector and types text into it.
	Type(ctx context.Context, selector, text string) error
	// Press sends a key chord (e.g. "Enter", "ctrl+a") to selector.
	Press(ctx context.Context, selector, key string) error
	// Eval runs js in the main document and unmarshals the result into out.
	Eval(ctx context.Context, js string, out any) error
	// Frames enumerates the embedded same-origin frames, in document order.
	Frames(ctx context.Context) ([]Doc, error)
	// MainDoc returns the main document as a Doc.
	MainDoc() Doc
	// HTML returns the serialized main document, for diagnostics.
	HTML(ctx context.Context) (string, error)
	// Screenshot captures the viewport, for diagnostics.
	Screenshot(ctx context.Context) ([]byte, error)
}

// findFrame returns the first frame whose URL contains any of the given
// fragments.
func findFrame(ctx context.Context, page Page, fragments []string) (Doc, bool) {
	frames, err := page.Frames(ctx)
	if err != nil {
		log.Printf("Frame enumeration failed: %v", err)
		return nil, false
	}
	for _, f := range frames {
		for _, frag := range fragments {
			if strings.Contains(f.URL(), frag) {
				return f, true
			}
		}
	}
	return nil, false
}

// FindDoc searches the page's frames for one whose URL contains any of the
// given fragments and returns the first hit, defaulting to the main document
// when no frame matches. Dialogs are usually framed but are sometimes
// rendered inline, so the fallback is part of the contract.
func FindDoc(ctx context.Context, page Page, fragments []string) Doc {
	if f, ok := findFrame(ctx, page, fragments); ok {
		log.Printf("Found dialog frame: %.80s", f.URL())
		return f
	}
	log.Printf("No frame matched %v, using main document", fragments)
	return page.MainDoc()
}

// strategy is one entry of an ordered selector fallback chain: a label for
// logging and the selector to try. Chains are evaluated in sequence and the
// first selector that satisfies the caller's postcondition wins.
type strategy struct {
	name     string
	selector string
}

// firstVisible returns the selector of the first strategy that matches a
// visible element within perTry, or "" when none does.
func firstVisible(ctx context.Context, page Page, chain []strategy, perTry time.Duration) string {
	for _, s := range chain {
		if err := page.WaitVisible(ctx, s.selector, perTry); err == nil {
			log.Printf("Found %s: %s", s.name, s.selector)
			return s.selector
		}
	}
	return ""
}

// firstPresent returns the selector of the first strategy that matches any
// element at all, visible or not.
func firstPresent(ctx context.Context, page Page, chain []strategy) string {
	for _, s := range chain {
		var found bool
		js := "document.querySelector(" + jsString(s.selector) + ") !== null"
		if err := page.Eval(ctx, js, &found); err == nil && found {
			log.Printf("Found %s: %s", s.name, s.selector)
			return s.selector
		}
	}
	return ""
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return "'" + r.Replace(s) + "'"
}
