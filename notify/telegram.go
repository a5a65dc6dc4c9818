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

// Package notify delivers run summaries to interested humans.
package notify

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ttbt-io/courtbooker/booking"
)

// Notifier sends the end-of-run summary. A nil *Telegram is a valid
// no-op notifier.
type Notifier interface {
	SendSummary(summary *booking.Summary) error
}

// Telegram sends summaries as markdown messages to a single chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram authenticates the bot. Returns (nil, nil) when token is
// empty, so callers can wire the notifier unconditionally.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate telegram bot: %w", err)
	}
	log.Printf("Telegram notifier authorized as %s", bot.Self.UserName)
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// SendSummary delivers the formatted summary. On a nil receiver it logs
// and drops the message.
func (t *Telegram) SendSummary(summary *booking.Summary) error {
	text := FormatSummary(summary)
	if t == nil {
		log.Printf("Telegram notifier disabled, summary:\n%s", text)
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// FormatSummary renders a run summary as a markdown message, one line per
// attempted slot.
func FormatSummary(summary *booking.Summary) string {
	var b strings.Builder
	switch {
	case summary.Attempted == 0:
		b.WriteString("🎾 *Court booking run*: nothing scheduled for this release.\n")
	case summary.Failed == 0:
		fmt.Fprintf(&b, "🎾 *Court booking run*: all %d succeeded.\n", summary.Attempted)
	default:
		fmt.Fprintf(&b, "🎾 *Court booking run*: %d of %d succeeded.\n", summary.Successful, summary.Attempted)
	}
	for _, o := range summary.Outcomes {
		fmt.Fprintf(&b, "%s %s %s at %s — %s",
			statusEmoji(o.Status), o.Request.Court, o.Request.DateString(), o.Request.StartTime, o.Status)
		if o.Detail != "" {
			fmt.Fprintf(&b, " (%s)", o.Detail)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func statusEmoji(s booking.Status) string {
	switch s {
	case booking.StatusSuccess:
		return "✅"
	case booking.StatusDryRun:
		return "🧪"
	case booking.StatusNoSlot:
		return "🚫"
	default:
		return "❌"
	}
}
