package ui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// PagerOptions controls ToPager.
type PagerOptions struct {
	NoPager bool // --no-pager
}

func shouldUsePager(opts PagerOptions) bool {
	if opts.NoPager || os.Getenv("TRIAGE_NO_PAGER") != "" || IsAgentMode() {
		return false
	}
	return IsTerminal()
}

// pagerCommand checks TRIAGE_PAGER, then PAGER, then falls back to less.
func pagerCommand() string {
	if p := os.Getenv("TRIAGE_PAGER"); p != "" {
		return p
	}
	if p := os.Getenv("PAGER"); p != "" {
		return p
	}
	return "less"
}

func terminalHeight() int {
	_, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return h
}

// ToPager prints content, through a pager when stdout is a terminal and the
// content is taller than it.
func ToPager(content string, opts PagerOptions) error {
	if !shouldUsePager(opts) {
		fmt.Print(content)
		return nil
	}
	if h := terminalHeight(); h > 0 && strings.Count(content, "\n") < h {
		fmt.Print(content)
		return nil
	}
	parts := strings.Fields(pagerCommand())
	if len(parts) == 0 {
		fmt.Print(content)
		return nil
	}
	cmd := exec.Command(parts[0], parts[1:]...) // #nosec G204 - pager is user configured
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if os.Getenv("LESS") == "" {
		cmd.Env = append(cmd.Env, "LESS=-RFX")
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running pager %q: %w", parts[0], err)
	}
	return nil
}
