// Package hooks runs local shell commands when matching webhooks arrive.
package hooks

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultTimeout = 30 * time.Second
	MaxTimeout     = 300 * time.Second

	// maxOutput caps the output kept per command; longer output is cut.
	maxOutput = 4 << 10
)

// Result is the outcome of one hook command.
type Result struct {
	Rule   string
	Output string
	Err    error
}

// Invocation describes a single command run: the shell command, the extra
// environment overlaid on the process environment, and the bytes fed to stdin.
type Invocation struct {
	Command string
	Timeout time.Duration
	Env     map[string]string
	Stdin   []byte
}

// Execute runs inv.Command via "sh -c" in the current working directory.
// Output is stdout, or stderr when stdout is empty, trimmed and capped.
func Execute(ctx context.Context, inv Invocation) Result {
	timeout := min(inv.Timeout, MaxTimeout)
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", inv.Command) //nolint:gosec // commands come from the operator's own flags
	// Children that outlive the shell must not hold Run open past the timeout.
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if inv.Stdin != nil {
		cmd.Stdin = bytes.NewReader(inv.Stdin)
	}
	cmd.Env = os.Environ()
	for k, v := range inv.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	err := cmd.Run()
	output := strings.TrimSpace(stdout.String())
	if output == "" {
		output = strings.TrimSpace(stderr.String())
	}
	return Result{Output: truncate(output, maxOutput), Err: err}
}

// truncate cuts s to at most n bytes on a rune boundary, marking the cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
