package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/triage/internal/config"
	"github.com/steveyegge/triage/internal/debug"
	"github.com/steveyegge/triage/internal/github"
	"github.com/steveyegge/triage/internal/parser"
	"github.com/steveyegge/triage/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert parsed issues for other trackers",
}

var exportGitHubCmd = &cobra.Command{
	Use:   "github [file|-]",
	Short: "Build a GitHub issue (title, body, labels) from an issue body",
	Long: `Parse an issue body and print the GitHub issue it maps to: a title from
the problem description, the canonical section body and scoped labels
(type:, priority:, source:, component:).

With --create the issue is posted to the repository from --repo or
github.repo, using the token from GITHUB_TOKEN or TRIAGE_GITHUB_TOKEN.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExportGitHub,
}

func init() {
	exportGitHubCmd.Flags().Bool("create", false, "Create the issue on GitHub")
	exportGitHubCmd.Flags().String("repo", "", "GitHub repository as owner/name (default from config)")
	exportCmd.AddCommand(exportGitHubCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExportGitHub(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	in, err := readSingleInput(args)
	if err != nil {
		return err
	}
	res, err := parser.ParseIssueBody(ctx, in.Body, config.ParserOptions())
	if err != nil {
		return err
	}
	if !res.Validation.Valid {
		fmt.Fprint(os.Stderr, ui.RenderValidation(res.Validation))
		return fmt.Errorf("%s does not describe a valid issue", in.Name)
	}
	issue := github.BuildIssue(res.Issue)

	create, _ := cmd.Flags().GetBool("create")
	if !create {
		if ok, err := outputStructured(os.Stdout, issue); ok {
			return err
		}
		fmt.Printf("%s %s\n", ui.RenderLabel("title"), issue.Title)
		fmt.Printf("%s %s\n\n", ui.RenderLabel("labels"), strings.Join(issue.Labels, ", "))
		return ui.ToPager(ui.RenderMarkdown(issue.Body), ui.PagerOptions{})
	}

	repo, _ := cmd.Flags().GetString("repo")
	client, err := githubClient(repo)
	if err != nil {
		return err
	}
	if client.Token == "" {
		return fmt.Errorf("creating issues needs a token: set GITHUB_TOKEN or TRIAGE_GITHUB_TOKEN")
	}
	created, err := client.CreateIssue(ctx, issue)
	if err != nil {
		return fmt.Errorf("creating issue in %s/%s: %w", client.Owner, client.Repo, err)
	}
	debug.LogEvent(debug.EventIssueCreated, fmt.Sprintf("%s/%s#%d", client.Owner, client.Repo, created.Number), in.Name)

	if ok, err := outputStructured(os.Stdout, created); ok {
		return err
	}
	fmt.Printf("%s Created %s/%s#%d: %s\n", ui.RenderPassIcon(), client.Owner, client.Repo, created.Number, created.Title)
	if created.HTMLURL != "" {
		fmt.Printf("  %s\n", ui.RenderMuted(created.HTMLURL))
	}
	return nil
}
