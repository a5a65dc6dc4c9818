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
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// setOut copies v into out through JSON, matching how the real browser
// unmarshals evaluation results.
func setOut(out, v any) error {
	if out == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// fakeDoc is a scripted Doc: eval results are keyed by a substring of the
// script, clicks are recorded.
type fakeDoc struct {
	url string
	// evalResults maps a substring of the script to the value returned.
	// The first matching key in insertion order wins.
	evalKeys    []string
	evalResults map[string]any
	clicks      []string
	clickErr    error
}

func newFakeDoc(url string) *fakeDoc {
	return &fakeDoc{url: url, evalResults: map[string]any{}}
}

func (d *fakeDoc) onEval(substr string, result any) *fakeDoc {
	d.evalKeys = append(d.evalKeys, substr)
	d.evalResults[substr] = result
	return d
}

func (d *fakeDoc) URL() string { return d.url }

func (d *fakeDoc) Eval(ctx context.Context, js string, out any) error {
	for _, k := range d.evalKeys {
		if strings.Contains(js, k) {
			if err, ok := d.evalResults[k].(error); ok {
				return err
			}
			return setOut(out, d.evalResults[k])
		}
	}
	return fmt.Errorf("fakeDoc: no scripted result for script %.60q", js)
}

func (d *fakeDoc) Click(ctx context.Context, selector string) error {
	d.clicks = append(d.clicks, selector)
	return d.clickErr
}

// fakePage is a scripted Page. Visible selectors satisfy WaitVisible
// immediately; everything else times out at once so tests stay fast.
type fakePage struct {
	location    string
	locationFn  func() string
	visible     map[string]bool
	evalDoc     *fakeDoc // main-document eval/click scripting
	frames      []Doc
	framesErr   error
	navigations []string
	clicks      []string
	typed       map[string]string
	pressed     []string
	html        string
}

func newFakePage() *fakePage {
	return &fakePage{
		visible: map[string]bool{},
		evalDoc: newFakeDoc(""),
		typed:   map[string]string{},
	}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.navigations = append(p.navigations, url)
	p.location = url
	return nil
}

func (p *fakePage) Location(ctx context.Context) (string, error) {
	if p.locationFn != nil {
		return p.locationFn(), nil
	}
	return p.location, nil
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if p.visible[selector] {
		return nil
	}
	return fmt.Errorf("fakePage: %s not visible", selector)
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.clicks = append(p.clicks, selector)
	return nil
}

func (p *fakePage) Type(ctx context.Context, selector, text string) error {
	p.typed[selector] += text
	return nil
}

func (p *fakePage) Press(ctx context.Context, selector, key string) error {
	p.pressed = append(p.pressed, selector+":"+key)
	return nil
}

func (p *fakePage) Eval(ctx context.Context, js string, out any) error {
	return p.evalDoc.Eval(ctx, js, out)
}

func (p *fakePage) Frames(ctx context.Context) ([]Doc, error) {
	return p.frames, p.framesErr
}

func (p *fakePage) MainDoc() Doc { return p.evalDoc }

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	return p.html, nil
}

func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	return nil, nil
}
