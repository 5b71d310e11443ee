package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/triage/internal/config"
	"github.com/steveyegge/triage/internal/debug"
	"github.com/steveyegge/triage/internal/github"
	"github.com/steveyegge/triage/internal/parser"
	"github.com/steveyegge/triage/internal/recovery"
	"github.com/steveyegge/triage/internal/types"
	"github.com/steveyegge/triage/internal/ui"
)

// Output formats for text mode.
const (
	formatSummary  = "summary"
	formatMarkdown = "markdown"
)

// outcome is the result of parsing one input.
type outcome struct {
	Name   string              `json:"name"`
	Result *types.ParseResult  `json:"result,omitempty"`
	Error  *types.ErrorSummary `json:"error,omitempty"`
}

func (o outcome) failed() bool {
	return o.Error != nil || (o.Result != nil && !o.Result.Validation.Valid)
}

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]...",
	Short: "Parse issue bodies into structured records",
	Long: `Parse one or more Markdown issue bodies. With no file, or "-", the body
is read from stdin. Issues can also be fetched from GitHub with --github or
--github-all.

Exit status is 1 when any body fails to parse or ends up invalid.`,
	Example: `  triage parse issue.md
  triage parse --strict --json a.md b.md
  cat issue.md | triage parse --no-fallback
  triage parse --github 42 --repo acme/api`,
	RunE: runParse,
}

func init() {
	f := parseCmd.Flags()
	f.Bool("strict", false, "Treat validation warnings as errors")
	f.Bool("no-fallback", false, "Return parse errors instead of recovering")
	f.Bool("skip-validation", false, "Skip the validator and report every issue as valid")
	f.Bool("no-defaults", false, "Do not repair invalid fields with defaults")
	f.Bool("no-infer", false, "Do not infer files, symbols and criteria from the raw body")
	f.Int("max-attempts", recovery.DefaultMaxAttempts, "Recovery attempts per body")
	f.Int("jobs", 0, "Bodies parsed concurrently (default from config)")
	f.IntSlice("github", nil, "GitHub issue number(s) to fetch and parse")
	f.Bool("github-all", false, "Fetch and parse every open GitHub issue")
	f.Int("limit", 50, "Maximum issues fetched by --github-all")
	f.String("repo", "", "GitHub repository as owner/name (default from config)")
	f.Bool("watch", false, "Re-parse files whenever they change")
	f.String("format", formatSummary, "Text output format: summary or markdown")
	f.Bool("no-pager", false, "Do not page markdown output")
	rootCmd.AddCommand(parseCmd)
}

// parseOptions starts from config and applies the flags the user set.
func parseOptions(cmd *cobra.Command) (*parser.Options, error) {
	opts := config.ParserOptions()
	f := cmd.Flags()
	if f.Changed("strict") {
		opts.Strict, _ = f.GetBool("strict")
	}
	if v, _ := f.GetBool("no-fallback"); v {
		opts.EnableFallback = false
	}
	if f.Changed("skip-validation") {
		opts.SkipValidation, _ = f.GetBool("skip-validation")
	}
	if v, _ := f.GetBool("no-defaults"); v {
		opts.Fallback.UseDefaults = false
	}
	if v, _ := f.GetBool("no-infer"); v {
		opts.Fallback.InferFromContext = false
	}
	if f.Changed("max-attempts") {
		n, _ := f.GetInt("max-attempts")
		if n < 1 {
			return nil, usageErrorf("--max-attempts must be at least 1, got %d", n)
		}
		opts.Fallback.MaxAttempts = n
	}
	return opts, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts, err := parseOptions(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != formatSummary && format != formatMarkdown {
		return usageErrorf("unknown --format %q (want summary or markdown)", format)
	}
	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs <= 0 {
		jobs = config.GetInt("jobs")
	}
	watch, _ := cmd.Flags().GetBool("watch")
	numbers, _ := cmd.Flags().GetIntSlice("github")
	all, _ := cmd.Flags().GetBool("github-all")

	var inputs []input
	if len(numbers) > 0 || all {
		if len(args) > 0 || watch {
			return usageErrorf("--github cannot be combined with files or --watch")
		}
		repo, _ := cmd.Flags().GetString("repo")
		limit, _ := cmd.Flags().GetInt("limit")
		client, err := githubClient(repo)
		if err != nil {
			return err
		}
		inputs, err = fetchGitHubInputs(ctx, client, numbers, all, limit)
		if err != nil {
			return err
		}
	} else {
		if watch && (len(args) == 0 || containsString(args, "-")) {
			return usageErrorf("--watch needs file arguments")
		}
		inputs, err = readInputs(args)
		if err != nil {
			return err
		}
	}

	noPager, _ := cmd.Flags().GetBool("no-pager")
	p := printer{format: format, pager: ui.PagerOptions{NoPager: noPager || watch}}

	outcomes, err := parseAll(ctx, inputs, opts, jobs)
	if err != nil {
		return err
	}
	if err := p.print(os.Stdout, outcomes); err != nil {
		return err
	}
	if watch {
		return watchFiles(ctx, args, opts, p)
	}
	for _, o := range outcomes {
		if o.failed() {
			return silentFailure()
		}
	}
	return nil
}

// parseAll parses inputs with at most jobs in flight. Outcomes keep input
// order. Parse errors are recorded per input; only cancellation aborts.
func parseAll(ctx context.Context, inputs []input, opts *parser.Options, jobs int) ([]outcome, error) {
	outcomes := make([]outcome, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = parseOne(gctx, in, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func parseOne(ctx context.Context, in input, opts *parser.Options) outcome {
	res, err := parser.ParseIssueBody(ctx, in.Body, opts)
	if err != nil {
		debug.Logf("%s: %v\n", in.Name, err)
		debug.LogEvent(debug.EventParseFailed, in.Name, err.Error())
		summary := errorSummary(err)
		return outcome{Name: in.Name, Error: &summary}
	}
	if res.UsedFallback {
		debug.Logf("%s: recovered via %s\n", in.Name, strings.Join(res.Recovery.FallbacksUsed, ", "))
		debug.LogEvent(debug.EventParseFallback, in.Name,
			fmt.Sprintf("attempts=%d fallbacks=%s", res.Recovery.Attempts, strings.Join(res.Recovery.FallbacksUsed, ",")))
	}
	return outcome{Name: in.Name, Result: res}
}

func errorSummary(err error) types.ErrorSummary {
	var pe *types.ParseError
	if errors.As(err, &pe) {
		return pe.Summary()
	}
	return types.ErrorSummary{Code: types.CodeOf(err), Message: err.Error()}
}

// printer renders outcomes in the selected output mode.
type printer struct {
	format string
	pager  ui.PagerOptions
}

func (p printer) print(w io.Writer, outcomes []outcome) error {
	// A single input prints a bare object; several print an array.
	var v interface{} = outcomes
	if len(outcomes) == 1 {
		v = outcomes[0]
	}
	if ok, err := outputStructured(w, v); ok {
		return err
	}

	var b strings.Builder
	for i, o := range outcomes {
		if i > 0 {
			b.WriteString("\n")
		}
		if len(outcomes) > 1 {
			fmt.Fprintf(&b, "%s\n", ui.RenderCategory(o.Name))
		}
		if o.Error != nil {
			fmt.Fprintf(&b, "%s %s\n", ui.RenderFailIcon(), renderErrorSummary(*o.Error))
			continue
		}
		if p.format == formatMarkdown {
			b.WriteString(ui.RenderMarkdown(github.FormatBody(o.Result.Issue)))
			continue
		}
		b.WriteString(ui.RenderSummary(o.Result))
		if c := ui.RenderCriteria(o.Result.Issue.AcceptanceCriteria); c != "" {
			b.WriteString(c)
		}
		b.WriteString(ui.RenderValidation(o.Result.Validation))
	}
	if p.format == formatMarkdown && w == os.Stdout {
		return ui.ToPager(b.String(), p.pager)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderErrorSummary(s types.ErrorSummary) string {
	msg := s.Message
	if s.Section != "" {
		msg = fmt.Sprintf("%s (section %s)", msg, s.Section)
	}
	return fmt.Sprintf("%s [%s]", msg, s.Code)
}

// watchFiles re-parses a file each time it is written until ctx is done.
// Parent directories are watched so editors that replace files on save
// keep working.
func watchFiles(ctx context.Context, files []string, opts *parser.Options, p printer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	targets := make(map[string]string, len(files)) // abs path -> name as given
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", f, err)
		}
		targets[abs] = f
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watching %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}
	debug.PrintNormal("Watching %d file(s) for changes (Ctrl+C to stop)\n", len(files))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, tracked := targets[filepath.Clean(event.Name)]
			if !tracked || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			body, err := readInput(name)
			if err != nil {
				WarnError("%v", err)
				continue
			}
			o := parseOne(ctx, input{Name: name, Body: body}, opts)
			if err := p.print(os.Stdout, []outcome{o}); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			WarnError("watch: %v", err)
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
