package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alfredjeanlab/flash/internal/webhook"
)

// Environment variables set for every hook command.
const (
	EnvWebhookID      = "FLASH_WEBHOOK_ID"
	EnvWebhookType    = "FLASH_WEBHOOK_TYPE"
	EnvWebhookCode    = "FLASH_WEBHOOK_CODE"
	EnvWebhookItemID  = "FLASH_WEBHOOK_ITEM_ID"
	EnvWebhookPayload = "FLASH_WEBHOOK_PAYLOAD"
)

// Rule runs Command for every webhook whose type and code match. Type and
// Code are compared case-insensitively; "*" matches anything.
type Rule struct {
	Type    string
	Code    string
	Command string
	Timeout time.Duration
}

// ParseRule parses "TYPE[.CODE]=command". A missing code matches every code.
func ParseRule(s string) (Rule, error) {
	match, command, ok := strings.Cut(s, "=")
	match = strings.TrimSpace(match)
	command = strings.TrimSpace(command)
	if !ok || match == "" || command == "" {
		return Rule{}, fmt.Errorf("hooks: rule %q must look like TYPE[.CODE]=command", s)
	}
	typ, code, hasCode := strings.Cut(match, ".")
	if !hasCode || code == "" {
		code = "*"
	}
	return Rule{Type: typ, Code: code, Command: command}, nil
}

func (r Rule) String() string { return r.Type + "." + r.Code }

// Matches reports whether ev is selected by r.
func (r Rule) Matches(ev webhook.Event) bool {
	return matchToken(r.Type, ev.Type) && matchToken(r.Code, ev.Code)
}

func matchToken(pattern, value string) bool {
	return pattern == "*" || strings.EqualFold(pattern, value)
}

// Handler runs hook rules for incoming webhooks.
type Handler struct {
	rules  []Rule
	logger *slog.Logger
}

func NewHandler(rules []Rule, logger *slog.Logger) *Handler {
	return &Handler{rules: rules, logger: logger}
}

// Handle runs every rule matching ev, in order, and returns their results.
// A failing command does not stop later rules.
func (h *Handler) Handle(ctx context.Context, ev webhook.Event) []Result {
	var results []Result
	for _, rule := range h.rules {
		if !rule.Matches(ev) {
			continue
		}
		res := Execute(ctx, Invocation{
			Command: rule.Command,
			Timeout: rule.Timeout,
			Env:     webhookEnv(ev),
			Stdin:   ev.Payload,
		})
		res.Rule = rule.String()
		if res.Err != nil {
			h.logger.Warn("hooks: command failed",
				"rule", res.Rule,
				"webhook_id", ev.ID,
				"error", res.Err,
				"output", res.Output,
			)
		} else {
			h.logger.Info("hooks: command ran", "rule", res.Rule, "webhook_id", ev.ID)
		}
		results = append(results, res)
	}
	return results
}

func webhookEnv(ev webhook.Event) map[string]string {
	return map[string]string{
		EnvWebhookID:      ev.ID,
		EnvWebhookType:    ev.Type,
		EnvWebhookCode:    ev.Code,
		EnvWebhookItemID:  ev.ItemID,
		EnvWebhookPayload: string(ev.Payload),
	}
}
