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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Diagnostics writes page dumps on fatal and Error paths only, to bound the
// cost of failure investigation without adding noise on the common NO_SLOT
// path.
type Diagnostics struct {
	// Dir is where dumps land. Empty disables dumping.
	Dir string
}

// DumpPage saves the page HTML and a screenshot under Dir and logs a short
// inventory of the page's form fields, so a selector-chain miss can be
// diagnosed without re-running the bot against the live site.
func (d *Diagnostics) DumpPage(ctx context.Context, page Page, label string) {
	if d == nil || d.Dir == "" {
		return
	}
	stamp := time.Now().Format("20060102-150405")
	html, err := page.HTML(ctx)
	if err != nil {
		log.Printf("Diagnostics: could not read page HTML: %v", err)
		return
	}
	name := filepath.Join(d.Dir, fmt.Sprintf("%s-%s.html", stamp, label))
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		log.Printf("Diagnostics: mkdir %s: %v", d.Dir, err)
		return
	}
	if err := os.WriteFile(name, []byte(html), 0644); err != nil {
		log.Printf("Diagnostics: write %s: %v", name, err)
		return
	}
	log.Printf("Diagnostics: page HTML saved to %s", name)

	if shot, err := page.Screenshot(ctx); err == nil && len(shot) > 0 {
		shotName := filepath.Join(d.Dir, fmt.Sprintf("%s-%s.png", stamp, label))
		if err := os.WriteFile(shotName, shot, 0644); err == nil {
			log.Printf("Diagnostics: screenshot saved to %s", shotName)
		}
	}

	for _, line := range SummarizeFields(html) {
		log.Printf("Diagnostics: %s", line)
	}
}

// SummarizeFields lists the input fields found in an HTML document, one line
// per field with its id/name/type/placeholder attributes.
func SummarizeFields(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return []string{fmt.Sprintf("field summary unavailable: %v", err)}
	}
	var lines []string
	doc.Find("input, select, button").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		name, _ := s.Attr("name")
		typ, _ := s.Attr("type")
		placeholder, _ := s.Attr("placeholder")
		lines = append(lines, fmt.Sprintf("%s: id=%q name=%q type=%q placeholder=%q",
			goquery.NodeName(s), id, name, typ, placeholder))
	})
	if len(lines) == 0 {
		lines = append(lines, "no form fields found on page")
	}
	return lines
}
