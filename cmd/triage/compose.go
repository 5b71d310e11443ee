package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/steveyegge/triage/internal/config"
	"github.com/steveyegge/triage/internal/debug"
	"github.com/steveyegge/triage/internal/github"
	"github.com/steveyegge/triage/internal/lexicon"
	"github.com/steveyegge/triage/internal/parser"
	"github.com/steveyegge/triage/internal/types"
	"github.com/steveyegge/triage/internal/ui"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Write a well-formed issue body using an interactive form",
	Long: `Compose an issue body with an interactive terminal form. The answers are
written in the canonical section layout (Source, Type, Context, Problem
Description, Code Analysis, Suggested Fix, Acceptance Criteria), parsed back
and validated.

The form uses keyboard navigation:
  - Tab/Shift+Tab: Move between fields
  - Enter: Submit the form (on the last field or submit button)
  - Ctrl+C: Cancel and exit`,
	Args: cobra.NoArgs,
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().StringP("output", "o", "", "Write the body to this file instead of stdout")
	rootCmd.AddCommand(composeCmd)
}

// composeAnswers holds the raw form values.
type composeAnswers struct {
	Source    string
	SourceRef string
	Type      string
	Priority  string
	Component string
	Problem   string
	Files     string // comma separated
	File      string
	Lines     string // "start-end" or "start"
	Fix       string
	Steps     string // one per line
	Criteria  string // one per line
}

func runCompose(cmd *cobra.Command, args []string) error {
	a := composeAnswers{
		Source:   string(types.SourceManual),
		Type:     string(types.TypeBug),
		Priority: string(types.PriorityMedium),
	}

	sourceOptions := make([]huh.Option[string], 0, 4)
	for _, s := range []types.Source{types.SourceManual, types.SourceGitHub, types.SourceSentry, types.SourceAsana} {
		sourceOptions = append(sourceOptions, huh.NewOption(string(s), string(s)))
	}
	typeOptions := make([]huh.Option[string], 0, len(lexicon.TypeOrder))
	for _, t := range lexicon.TypeOrder {
		typeOptions = append(typeOptions, huh.NewOption(string(t), string(t)))
	}
	priorityOptions := []huh.Option[string]{
		huh.NewOption("Critical", string(types.PriorityCritical)),
		huh.NewOption("High", string(types.PriorityHigh)),
		huh.NewOption("Medium (default)", string(types.PriorityMedium)),
		huh.NewOption("Low", string(types.PriorityLow)),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Source").
				Description("Where was this reported?").
				Options(sourceOptions...).
				Value(&a.Source),

			huh.NewInput().
				Title("Source reference").
				Description("Issue number or event ID, and/or URL (optional)").
				Placeholder("e.g., #1234 https://sentry.io/issues/1234").
				Value(&a.SourceRef),

			huh.NewSelect[string]().
				Title("Type").
				Options(typeOptions...).
				Value(&a.Type),

			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOptions...).
				Value(&a.Priority),

			huh.NewInput().
				Title("Component").
				Placeholder("e.g., auth").
				Value(&a.Component),
		),

		huh.NewGroup(
			huh.NewText().
				Title("Problem Description").
				Description("What is wrong or what is needed (required)").
				CharLimit(5000).
				Value(&a.Problem).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("a problem description is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("Related files").
				Description("Comma-separated paths (optional)").
				Placeholder("e.g., src/auth/login.ts, src/auth/token.ts").
				Value(&a.Files),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("File").
				Description("File the problem is in (optional)").
				Value(&a.File),

			huh.NewInput().
				Title("Lines").
				Description("start-end or a single line (optional)").
				Placeholder("e.g., 42-57").
				Value(&a.Lines).
				Validate(func(s string) error {
					_, _, err := parseLineRange(s)
					return err
				}),
		),

		huh.NewGroup(
			huh.NewText().
				Title("Suggested Fix").
				Description("Fix direction (optional)").
				CharLimit(5000).
				Value(&a.Fix),

			huh.NewText().
				Title("Fix steps").
				Description("One step per line (optional)").
				Value(&a.Steps),

			huh.NewText().
				Title("Acceptance Criteria").
				Description("One criterion per line (optional)").
				Value(&a.Criteria),

			huh.NewConfirm().
				Title("Write this issue?").
				Affirmative("Write").
				Negative("Cancel"),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.RunWithContext(cmd.Context()); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(os.Stderr, "Issue composition cancelled.")
			return nil
		}
		return fmt.Errorf("form error: %w", err)
	}

	issue, err := a.issue()
	if err != nil {
		return err
	}
	body := github.FormatBody(issue)

	res, err := parser.ParseIssueBody(cmd.Context(), body, config.ParserOptions())
	if err != nil {
		return fmt.Errorf("composed body does not parse: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	switch {
	case output != "":
		if err := os.WriteFile(output, []byte(body), 0o644); err != nil { // #nosec G306 - issue bodies are not secret
			return fmt.Errorf("writing %s: %w", output, err)
		}
		debug.PrintNormal("%s Wrote %s\n", ui.RenderPassIcon(), output)
	case jsonOutput || yamlOutput:
		if _, err := outputStructured(os.Stdout, res); err != nil {
			return err
		}
	default:
		fmt.Print(body)
	}
	fmt.Fprint(os.Stderr, ui.RenderValidation(res.Validation))
	return nil
}

// issue assembles the answers into a ParsedIssue.
func (a composeAnswers) issue() (types.ParsedIssue, error) {
	p := types.ParsedIssue{
		Source:             types.Source(a.Source),
		Type:               types.IssueType(a.Type),
		ProblemDescription: strings.TrimSpace(a.Problem),
		Context: types.IssueContext{
			Priority:     types.Priority(a.Priority),
			Component:    strings.TrimSpace(a.Component),
			RelatedFiles: splitList(a.Files, ","),
		},
	}
	for _, f := range strings.Fields(a.SourceRef) {
		if strings.Contains(f, "://") {
			p.SourceURL = f
		} else {
			p.SourceID = strings.TrimPrefix(f, "#")
		}
	}

	if file := strings.TrimSpace(a.File); file != "" {
		start, end, err := parseLineRange(a.Lines)
		if err != nil {
			return p, err
		}
		p.CodeAnalysis = &types.CodeAnalysis{FilePath: file}
		if start > 0 {
			p.CodeAnalysis.StartLine, p.CodeAnalysis.EndLine = types.Line(start), types.Line(end)
		}
		if !containsString(p.Context.RelatedFiles, file) {
			p.Context.RelatedFiles = append(p.Context.RelatedFiles, file)
		}
	}

	steps := splitList(a.Steps, "\n")
	if fix := strings.TrimSpace(a.Fix); fix != "" || len(steps) > 0 {
		p.SuggestedFix = &types.SuggestedFix{
			Description: fix,
			Steps:       steps,
			Confidence:  lexicon.FixConfidence(fix),
		}
	}
	for _, c := range splitList(a.Criteria, "\n") {
		c = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(c, "- [ ]"), "-"))
		if c != "" {
			p.AcceptanceCriteria = append(p.AcceptanceCriteria, types.AcceptanceCriterion{Description: c})
		}
	}
	return p, nil
}

// parseLineRange reads "42", "42-57" or "". Zero means unknown.
func parseLineRange(s string) (start, end int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}
	from, to, isRange := strings.Cut(s, "-")
	if _, err := fmt.Sscanf(strings.TrimSpace(from), "%d", &start); err != nil || start < 1 {
		return 0, 0, fmt.Errorf("invalid start line %q", from)
	}
	if !isRange {
		return start, start, nil
	}
	if _, err := fmt.Sscanf(strings.TrimSpace(to), "%d", &end); err != nil || end < start {
		return 0, 0, fmt.Errorf("invalid line range %q", s)
	}
	return start, end, nil
}

func splitList(s, sep string) []string {
	var out []string
	for _, item := range strings.Split(s, sep) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
