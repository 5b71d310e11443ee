// Command triage turns free-form Markdown issue bodies into structured,
// validated triage records.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/triage/internal/config"
	"github.com/steveyegge/triage/internal/debug"
	"github.com/steveyegge/triage/internal/telemetry"
	"github.com/steveyegge/triage/internal/types"
	"github.com/steveyegge/triage/internal/ui"
)

var (
	jsonOutput  bool
	yamlOutput  bool
	verboseFlag bool
	quietFlag   bool

	// Signal-aware context for graceful cancellation
	rootCtx = context.Background()
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Parse and validate Markdown issue bodies",
	Long: `triage reads issue bodies written in Markdown (GitHub, Sentry, Asana or
hand-written) and extracts a structured record: source, type, priority,
related files and symbols, code location, suggested fix and acceptance
criteria. Malformed bodies are recovered with inferred values unless
--no-fallback is given.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return err
		}
		if !cmd.Flags().Changed("json") && config.GetBool("json") {
			jsonOutput = true
		}
		if jsonOutput && yamlOutput {
			return usageErrorf("--json and --yaml are mutually exclusive")
		}
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
		if jsonOutput || yamlOutput {
			// Structured output is for machines.
			debug.SetQuiet(true)
		}
		ui.ApplyColorProfile()
		if err := telemetry.Init(rootCtx, telemetry.SettingsFromEnv(Version)); err != nil {
			debug.Logf("telemetry disabled: %v\n", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&yamlOutput, "yaml", false, "Output in YAML format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command line and returns the process exit code.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCtx = ctx

	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		debug.Logf("telemetry shutdown: %v\n", err)
	}

	return reportError(err)
}

// exitError carries an exit code. A nil err means the command already
// reported the failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func usageErrorf(format string, args ...interface{}) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

// silentFailure exits non-zero without printing anything more.
func silentFailure() error {
	return &exitError{code: exitFailure}
}

func reportError(err error) int {
	if err == nil {
		return exitOK
	}
	code := exitFailure
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
		if ee.err == nil {
			return code
		}
	}
	if jsonOutput {
		outputJSONError(os.Stderr, err, string(types.CodeOf(err)))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return code
}

// WarnError writes a warning to stderr and carries on.
func WarnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
