package ui

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/flash/internal/webhook"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorOK     = 114 // green
	colorWarn   = 180 // amber
	colorError  = 167 // red
)

var noColor bool

func render(color int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

func RenderOK(s string) string { return render(colorOK, s) }

func RenderWarn(s string) string { return render(colorWarn, s) }

func RenderError(s string) string { return render(colorError, s) }

// RenderWebhookCode colors a webhook code by severity: error-like codes red,
// expiry and pending notices amber, the rest green.
func RenderWebhookCode(code string) string {
	switch upper := strings.ToUpper(code); {
	case strings.Contains(upper, "ERROR"), strings.Contains(upper, "FAILED"), strings.Contains(upper, "REVOKED"):
		return RenderError(code)
	case strings.Contains(upper, "EXPIR"), strings.Contains(upper, "PENDING"), upper == webhook.Unknown:
		return RenderWarn(code)
	default:
		return RenderOK(code)
	}
}

// FormatWebhook renders ev as a single line for terminal feeds.
func FormatWebhook(ev webhook.Event) string {
	line := fmt.Sprintf("%s  %s %s",
		RenderMuted(ev.ReceivedAt.String()),
		RenderAccent(ev.Type),
		RenderWebhookCode(ev.Code),
	)
	if ev.ItemID != "" {
		line += "  " + RenderMuted("item="+ev.ItemID)
	}
	return line + "  " + RenderMuted(ev.ID)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
