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
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const dateFieldSelector = "#txtDate"

// gridCell is the structured result of one grid scan: everything the page
// knows about a reservation cell, flattened for Go-side filtering. Clickable
// means the slot carries an interactive affordance (an onclick handler);
// cells without one are booked by someone else or outside the rendering
// window, and are skipped rather than treated as errors.
type gridCell struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	RowText   string `json:"rowText"`
	Clickable bool   `json:"clickable"`
}

// scanGridJS enumerates reservation cells by structural class prefix (the
// exact class names are an implementation detail of the site and change
// between revisions) and tags each slot panel with its scan index so a later
// click can address it directly.
const scanGridJS = `
(() => {
	const out = [];
	document.querySelectorAll('td[class*="rbm_"]').forEach((cell, i) => {
		const div = cell.querySelector('div.rbm_TimeSlotPanelSlotAvailable, div.rbm_TimeSlotPanelNoSlots');
		if (!div) return;
		div.setAttribute('data-slot-scan', String(i));
		const onclick = div.getAttribute('onclick');
		const row = cell.closest('tr');
		out.push({
			index: i,
			text: div.innerText || '',
			rowText: row ? row.innerText : '',
			clickable: !!(onclick && onclick !== ''),
		});
	});
	return out;
})()`

// SlotCandidate is a located grid cell. It is ephemeral: the Handle selector
// only stays valid until the grid re-renders, so a candidate is either passed
// straight into Acquire or discarded.
type SlotCandidate struct {
	Court   string
	RowTime string
	Handle  string
}

// Locator scans the rendered reservation grid for a bookable cell.
type Locator struct {
	// SettleDelay is how long to wait after submitting the date for the
	// server-side grid re-render.
	SettleDelay time.Duration
}

func (l *Locator) settle() time.Duration {
	if l.SettleDelay > 0 {
		return l.SettleDelay
	}
	return time.Second
}

// Locate enters dateStr into the date field, waits for the grid to settle,
// and returns the first cell in document order that belongs to courtName, is
// bookable, and sits in a row matching startTime. A miss is ErrNoSlot (an
// expected outcome); a missing date field or failed scan is a structural
// error.
func (l *Locator) Locate(ctx context.Context, page Page, dateStr, startTime, courtName string) (SlotCandidate, error) {
	if err := page.WaitVisible(ctx, dateFieldSelector, 10*time.Second); err != nil {
		return SlotCandidate{}, errors.Wrapf(err, "date field %s not visible", dateFieldSelector)
	}

	// click, select-all, delete, type, submit
	if err := page.Click(ctx, dateFieldSelector); err != nil {
		return SlotCandidate{}, errors.Wrap(err, "focus date field")
	}
	if err := page.Press(ctx, dateFieldSelector, "ctrl+a"); err != nil {
		return SlotCandidate{}, errors.Wrap(err, "select date text")
	}
	if err := page.Press(ctx, dateFieldSelector, "Backspace"); err != nil {
		return SlotCandidate{}, errors.Wrap(err, "clear date field")
	}
	if err := page.Type(ctx, dateFieldSelector, dateStr); err != nil {
		return SlotCandidate{}, errors.Wrap(err, "type date")
	}
	if err := page.Press(ctx, dateFieldSelector, "Enter"); err != nil {
		return SlotCandidate{}, errors.Wrap(err, "submit date")
	}

	log.Printf("Date %s entered, waiting for calendar to update", dateStr)
	select {
	case <-time.After(l.settle()):
	case <-ctx.Done():
		return SlotCandidate{}, ctx.Err()
	}

	var cells []gridCell
	if err := page.Eval(ctx, scanGridJS, &cells); err != nil {
		return SlotCandidate{}, errors.Wrap(err, "scan reservation grid")
	}
	log.Printf("Scanned %d reservation cells", len(cells))

	if c, ok := matchCell(cells, startTime, courtName); ok {
		log.Printf("Found bookable slot: %q in row %.60q", strings.TrimSpace(c.Text), c.RowText)
		return SlotCandidate{
			Court:   courtName,
			RowTime: startTime,
			Handle:  fmt.Sprintf(`div[data-slot-scan="%d"]`, c.Index),
		}, nil
	}
	return SlotCandidate{}, errors.Mark(
		errors.Newf("no bookable cell for %q at %q on %s", courtName, startTime, dateStr), ErrNoSlot)
}

// matchCell returns the first cell in document order that is clickable,
// mentions the court, and sits in a row mentioning the time. The grid
// renders at most one cell per court/time pair, so no further tie-breaking
// is needed.
func matchCell(cells []gridCell, startTime, courtName string) (gridCell, bool) {
	for _, c := range cells {
		if !c.Clickable {
			continue
		}
		if !strings.Contains(c.Text, courtName) {
			continue
		}
		if !strings.Contains(c.RowText, startTime) {
			continue
		}
		return c, true
	}
	return gridCell{}, false
}
