// Package debug holds the diagnostic output switches shared by the CLI and
// the engine, and the append-only .triage/events.log audit trail.
package debug

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ProjectDir is the per-project directory holding config and the event log.
const ProjectDir = ".triage"

// Event codes written by LogEvent.
const (
	EventParseFallback = "PARSE_FALLBACK"
	EventParseFailed   = "PARSE_FAILED"
	EventIssueCreated  = "ISSUE_CREATED"
)

// ErrNoProject is returned by FindProjectRoot outside a triage project.
var ErrNoProject = errors.New("not in a triage project")

var (
	enabled     = os.Getenv("TRIAGE_DEBUG") != ""
	verboseMode = false
	quietMode   = false
	logMutex    sync.Mutex

	stderr io.Writer = os.Stderr
	stdout io.Writer = os.Stdout
)

// Enabled reports whether debug output is on, via TRIAGE_DEBUG or --verbose.
func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet suppresses PrintNormal output
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

// Logf writes to stderr when debug output is enabled.
func Logf(format string, args ...interface{}) {
	if Enabled() {
		fmt.Fprintf(stderr, format, args...)
	}
}

// PrintNormal prints informational output unless quiet mode is enabled.
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		fmt.Fprintf(stdout, format, args...)
	}
}

// PrintlnNormal prints a line unless quiet mode is enabled
func PrintlnNormal(args ...interface{}) {
	if !quietMode {
		fmt.Fprintln(stdout, args...)
	}
}

// LogEvent appends an event to .triage/events.log.
// Format: TIMESTAMP|EVENT_CODE|REF|ACTOR|SESSION_ID|DETAILS
func LogEvent(eventCode, ref, details string) {
	LogEventWithContext(eventCode, ref, "", "", details)
}

// LogEventWithContext is LogEvent with an explicit actor and session.
// Outside a project, or when the log cannot be written, it does nothing.
func LogEventWithContext(eventCode, ref, actor, sessionID, details string) {
	root, err := FindProjectRoot()
	if err != nil {
		return
	}
	_ = appendEvent(filepath.Join(root, ProjectDir, "events.log"), time.Now(), eventCode, ref, actor, sessionID, details)
}

func appendEvent(path string, now time.Time, eventCode, ref, actor, sessionID, details string) error {
	if ref == "" {
		ref = "none"
	}
	if actor == "" {
		actor = firstEnv("TRIAGE_ACTOR", "USER")
		if actor == "" {
			actor = "unknown"
		}
	}
	if sessionID == "" {
		sessionID = os.Getenv("TRIAGE_SESSION_ID")
		if sessionID == "" {
			sessionID = strconv.FormatInt(now.Unix(), 10)
		}
	}
	// Details must stay on one line and must not introduce extra fields.
	details = strings.NewReplacer("\n", " ", "|", "/").Replace(details)
	entry := fmt.Sprintf("%s|%s|%s|%s|%s|%s\n",
		now.UTC().Format(time.RFC3339), eventCode, ref, actor, sessionID, details)

	logMutex.Lock()
	defer logMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(entry)
	return err
}

// FindProjectRoot walks up from the working directory to the first directory
// containing .triage/.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ProjectDir)); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
