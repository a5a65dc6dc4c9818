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

package browser

import (
	"context"
	"fmt"

	"github.com/ttbt-io/courtbooker/booking"
)

// frameURLsJS lists every iframe's document URL, in document order. Frames
// whose document is unreadable (cross-origin) report their src attribute.
const frameURLsJS = `
(function() {
	return Array.from(document.querySelectorAll('iframe')).map(function(f) {
		try {
			return f.contentDocument ? f.contentDocument.location.href : (f.src || '');
		} catch (e) {
			return f.src || '';
		}
	});
})()`

// Frames enumerates the page's same-origin iframes. The booking site hosts
// its dialogs in same-origin frames, so scripts can reach them through
// contentDocument from the main document; each returned Doc rebinds
// document/window to its frame before evaluating.
func (b *Browser) Frames(ctx context.Context) ([]booking.Doc, error) {
	var urls []string
	if err := b.Eval(ctx, frameURLsJS, &urls); err != nil {
		return nil, fmt.Errorf("failed to enumerate frames: %w", err)
	}
	docs := make([]booking.Doc, len(urls))
	for i, u := range urls {
		docs[i] = &frameDoc{browser: b, index: i, url: u}
	}
	return docs, nil
}

// MainDoc returns the main document as a Doc.
func (b *Browser) MainDoc() booking.Doc {
	return &mainDoc{browser: b}
}

type mainDoc struct {
	browser *Browser
}

func (d *mainDoc) URL() string {
	url, err := d.browser.Location(context.Background())
	if err != nil {
		return ""
	}
	return url
}

func (d *mainDoc) Eval(ctx context.Context, js string, out any) error {
	return d.browser.Eval(ctx, js, out)
}

func (d *mainDoc) Click(ctx context.Context, selector string) error {
	return jsClick(ctx, d, selector)
}

// frameDoc addresses one iframe by its position in document order. Scripts
// run in the main document with document and window rebound to the frame's,
// so the engine's scripts work unchanged in either context.
type frameDoc struct {
	browser *Browser
	index   int
	url     string
}

func (d *frameDoc) URL() string { return d.url }

func (d *frameDoc) Eval(ctx context.Context, js string, out any) error {
	wrapped := fmt.Sprintf(`
(function() {
	const f = document.querySelectorAll('iframe')[%d];
	if (!f || !f.contentDocument) {
		throw new Error('frame %d is gone or unreadable');
	}
	return (function(document, window) {
		return (%s);
	})(f.contentDocument, f.contentWindow);
})()`, d.index, d.index, js)
	return d.browser.Eval(ctx, wrapped, out)
}

func (d *frameDoc) Click(ctx context.Context, selector string) error {
	return jsClick(ctx, d, selector)
}

// jsClick clicks via the DOM rather than synthesized mouse input, because
// the target may live inside a frame that input events do not reach.
func jsClick(ctx context.Context, doc booking.Doc, selector string) error {
	js := fmt.Sprintf(`
(function() {
	const el = document.querySelector(%q);
	if (!el) {
		return false;
	}
	el.click();
	return true;
})()`, selector)
	var clicked bool
	if err := doc.Eval(ctx, js, &clicked); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	if !clicked {
		return fmt.Errorf("click %s: no matching element", selector)
	}
	return nil
}
