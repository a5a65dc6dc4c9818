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
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// TxState names the stages of the acquisition flow, for failure reports.
type TxState string

const (
	StateSlotIdentified        TxState = "SlotIdentified"
	StateModalOpened           TxState = "ModalOpened"
	StateDurationConfigured    TxState = "DurationConfigured"
	StateSubmitted             TxState = "Submitted"
	StateConfirmationDismissed TxState = "ConfirmationDismissed"
)

// dialogFragments are the URL fragments observed across booking dialog
// variants. The dialog is usually an iframe, but is sometimes rendered
// inline, hence the main-document fallback in FindDoc.
var dialogFragments = []string{"rbmPop", "MakebookingTime", "dialog.aspx"}

// selectDurationJS drives the plain selection-list control: pick the first
// select whose options mention minutes (preferring a visible one) and choose
// the option containing the requested duration.
const selectDurationJS = `
(() => {
	const selects = Array.from(document.querySelectorAll('select'));
	const visible = (el) => {
		const r = el.getBoundingClientRect();
		const st = window.getComputedStyle(el);
		return r.width > 0 && r.height > 0 && st.display !== 'none' && st.visibility !== 'hidden';
	};
	const hasMinutes = (s) => Array.from(s.options).some(o => o.text.toLowerCase().includes('minutes'));
	const candidates = selects.filter(s => hasMinutes(s) && visible(s))
		.concat(selects.filter(s => hasMinutes(s) && !visible(s)));
	if (!candidates.length) return 'no-select';
	const sel = candidates[0];
	for (let i = 0; i < sel.options.length; i++) {
		if (sel.options[i].text.includes('%d')) {
			sel.selectedIndex = i;
			sel.dispatchEvent(new Event('change', { bubbles: true }));
			return 'ok';
		}
	}
	return 'no-option';
})()`

// comboDurationJS is the fallback for the site's custom combo widget, which
// renders no select element and must be driven through its client API.
const comboDurationJS = `
(() => {
	const input = document.querySelector('input[id*="_drpDuration_tCombo_Input"]');
	if (!input) return { ok: false, reason: 'combo input not found' };
	const comboId = input.id.replace(/_Input$/, '');
	const combo = window.$find ? window.$find(comboId) : null;
	if (!combo || typeof combo.findItemByText !== 'function') {
		return { ok: false, reason: 'combo client object not found' };
	}
	const item = combo.findItemByText('%d Minutes');
	if (!item) {
		const items = combo.get_items();
		const texts = [];
		for (let i = 0; i < items.get_count(); i++) texts.push(items.getItem(i).get_text());
		return { ok: false, reason: 'option not found: ' + texts.join(', ') };
	}
	combo.set_selectedIndex(item.get_index());
	combo.set_text(item.get_text());
	return { ok: true };
})()`

// displayedDurationJS reads back whatever duration the dialog currently
// shows, regardless of which control rendered it.
const displayedDurationJS = `
(() => {
	const sel = Array.from(document.querySelectorAll('select'))
		.find(s => Array.from(s.options).some(o => o.text.toLowerCase().includes('minutes')));
	if (sel && sel.selectedIndex >= 0) return sel.options[sel.selectedIndex].text;
	const input = document.querySelector('input[id*="_drpDuration_tCombo_Input"]');
	if (input) return input.value || '';
	return '';
})()`

// findSubmitJS locates the submit control by ordered strategies: the id
// pattern unique to book actions, the onclick pattern for the same server
// callback, then label text excluding negative affordances. The hit is
// tagged so the follow-up click addresses it directly.
const findSubmitJS = `
(() => {
	const tag = (el) => el.setAttribute('data-book-submit', '1');
	let el = document.querySelector('[id*="lbBook"]');
	if (el) { tag(el); return 'id-pattern'; }
	const postbacks = Array.from(document.querySelectorAll('*[onclick*="__doPostBack"]'));
	el = postbacks.find(e => (e.getAttribute('onclick') || '').includes('lbBook'));
	if (el) { tag(el); return 'onclick-pattern'; }
	const negatives = ['cancel', 'close', 'discard', 'minimize', 'delete'];
	el = Array.from(document.querySelectorAll('a, button, input')).find(e => {
		const text = (e.innerText || e.value || e.textContent || '').toLowerCase();
		if (!text.includes('reserv') && !text.includes('reserve')) return false;
		return !negatives.some(n => text.includes(n));
	});
	if (el) { tag(el); return 'label-text'; }
	return '';
})()`

// dismissConfirmationJS is the last-resort link-text heuristic for closing
// the confirmation dialog.
const dismissConfirmationJS = `
(() => {
	const el = Array.from(document.querySelectorAll('a, button')).find(a => {
		const t = (a.textContent || '').toLowerCase();
		return t.includes('click here') || t.includes('close');
	});
	if (el) { el.click(); return true; }
	return false;
})()`

// closeSelectorChain is tried before the text heuristic, in both the dialog
// document and the main document.
var closeSelectorChain = []strategy{
	{"close link (onclick)", `a[onclick*="close"]`},
	{"close link (onclick, capitalized)", `a[onclick*="Close"]`},
	{"close control (window.close)", `[onclick*="window.close"]`},
	{"close link (href)", `a[href*="close"]`},
	{"close link (js href)", `a[href="javascript:window.close()"]`},
}

// Transaction drives the multi-step dialog flow that converts a located slot
// into a confirmed reservation. It never retries; retry policy belongs to
// the caller.
type Transaction struct {
	// DryRun stops just before submission and reports what would have been
	// booked without committing. Threaded explicitly, never ambient.
	DryRun bool

	// DialogTimeout bounds the wait for the dialog frame to appear.
	DialogTimeout time.Duration
}

func (t *Transaction) dialogTimeout() time.Duration {
	if t.DialogTimeout > 0 {
		return t.DialogTimeout
	}
	return 10 * time.Second
}

func txErr(state TxState, err error) error {
	return errors.Mark(errors.Wrapf(err, "state %s", state), ErrTransaction)
}

// Acquire claims the slot: open modal, set duration, submit, dismiss
// confirmation. Any unrecoverable failure is reported with the state it
// happened in; a missing close control after submission is logged but does
// not downgrade the outcome, since the booking is already committed
// server-side by then.
func (t *Transaction) Acquire(ctx context.Context, page Page, slot SlotCandidate, durationMinutes int) error {
	txID := uuid.NewString()
	log.Printf("[tx %s] Acquiring %s at %s for %d minutes", txID, slot.Court, slot.RowTime, durationMinutes)

	// SlotIdentified -> ModalOpened
	if err := page.Click(ctx, slot.Handle); err != nil {
		return txErr(StateSlotIdentified, errors.Wrap(err, "click slot"))
	}
	if err := page.WaitVisible(ctx, "iframe", t.dialogTimeout()); err != nil {
		// Inline dialogs render without a frame; the fragment search below
		// falls back to the main document.
		log.Printf("[tx %s] No iframe detected: %v", txID, err)
	}
	dialog := t.findDialog(ctx, page)

	// ModalOpened -> DurationConfigured
	if err := t.configureDuration(ctx, dialog, durationMinutes); err != nil {
		return txErr(StateModalOpened, err)
	}
	log.Printf("[tx %s] Duration set to %d minutes", txID, durationMinutes)

	// DurationConfigured -> Submitted
	var how string
	if err := dialog.Eval(ctx, findSubmitJS, &how); err != nil {
		return txErr(StateDurationConfigured, errors.Wrap(err, "locate submit control"))
	}
	if how == "" {
		return txErr(StateDurationConfigured, errors.New("submit control not found by any strategy"))
	}
	log.Printf("[tx %s] Submit control located via %s", txID, how)

	if t.DryRun {
		log.Printf("[tx %s] DRY RUN: stopping before submission; would book %s at %s for %d minutes",
			txID, slot.Court, slot.RowTime, durationMinutes)
		return nil
	}
	if err := dialog.Click(ctx, `[data-book-submit="1"]`); err != nil {
		return txErr(StateDurationConfigured, errors.Wrap(err, "click submit control"))
	}
	log.Printf("[tx %s] Booking submitted", txID)

	// Submitted -> ConfirmationDismissed. Best effort only.
	if !t.dismissConfirmation(ctx, page, dialog) {
		log.Printf("[tx %s] Could not find close control; confirmation dialog may remain open", txID)
	}
	return nil
}

// findDialog polls the frame tree for the booking dialog. A freshly inserted
// iframe reports about:blank until its document loads, so a single
// enumeration right after the click would routinely miss it.
func (t *Transaction) findDialog(ctx context.Context, page Page) Doc {
	deadline := time.Now().Add(t.dialogTimeout())
	for {
		if f, ok := findFrame(ctx, page, dialogFragments); ok {
			log.Printf("Found dialog frame: %.80s", f.URL())
			return f
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			log.Printf("No frame matched %v, using main document", dialogFragments)
			return page.MainDoc()
		}
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
		}
	}
}

// configureDuration tries the plain selection list first, then the custom
// combo widget, and always verifies the postcondition: the displayed
// duration text must contain the requested value. Triggering the wrong
// duration would silently book a wrong-length reservation, so the
// convergence check is not optional.
func (t *Transaction) configureDuration(ctx context.Context, dialog Doc, durationMinutes int) error {
	var res string
	if err := dialog.Eval(ctx, fmt.Sprintf(selectDurationJS, durationMinutes), &res); err != nil {
		return errors.Wrap(err, "drive duration select")
	}
	switch res {
	case "ok":
	case "no-option":
		return errors.Newf("duration select has no %d minutes option", durationMinutes)
	case "no-select":
		log.Printf("Standard duration select not found, trying combo widget")
		var combo struct {
			OK     bool   `json:"ok"`
			Reason string `json:"reason"`
		}
		if err := dialog.Eval(ctx, fmt.Sprintf(comboDurationJS, durationMinutes), &combo); err != nil {
			return errors.Wrap(err, "drive duration combo widget")
		}
		if !combo.OK {
			return errors.Newf("duration combo widget: %s", combo.Reason)
		}
	default:
		return errors.Newf("unexpected duration select result %q", res)
	}

	var displayed string
	if err := dialog.Eval(ctx, displayedDurationJS, &displayed); err != nil {
		return errors.Wrap(err, "read back duration")
	}
	if !containsToken(displayed, strconv.Itoa(durationMinutes)) {
		return errors.Newf("duration did not converge: displayed %q, wanted %d minutes", displayed, durationMinutes)
	}
	return nil
}

// containsToken reports whether s contains token as a whole number, so a
// requested "60" does not match inside a displayed "360 Minutes".
func containsToken(s, token string) bool {
	isDigit := func(b byte) bool { return b >= '0' && b <= '9' }
	for i := 0; i+len(token) <= len(s); i++ {
		if s[i:i+len(token)] != token {
			continue
		}
		if i > 0 && isDigit(s[i-1]) {
			continue
		}
		if j := i + len(token); j < len(s) && isDigit(s[j]) {
			continue
		}
		return true
	}
	return false
}

// dismissConfirmation tries the close selector chain and then the link-text
// heuristic, in the dialog document first and the main document second.
func (t *Transaction) dismissConfirmation(ctx context.Context, page Page, dialog Doc) bool {
	docs := []Doc{dialog}
	if dialog != page.MainDoc() {
		docs = append(docs, page.MainDoc())
	}
	for _, doc := range docs {
		for _, s := range closeSelectorChain {
			var present bool
			js := "document.querySelector(" + jsString(s.selector) + ") !== null"
			if err := doc.Eval(ctx, js, &present); err != nil || !present {
				continue
			}
			if err := doc.Click(ctx, s.selector); err == nil {
				log.Printf("Closed confirmation dialog with %s", s.name)
				return true
			}
		}
	}
	for _, doc := range docs {
		var clicked bool
		if err := doc.Eval(ctx, dismissConfirmationJS, &clicked); err == nil && clicked {
			log.Printf("Closed confirmation dialog via link text")
			return true
		}
	}
	return false
}
