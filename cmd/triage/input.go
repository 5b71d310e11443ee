package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/steveyegge/triage/internal/config"
	"github.com/steveyegge/triage/internal/debug"
	"github.com/steveyegge/triage/internal/github"
)

// input is one issue body to process.
type input struct {
	Name string // file path, "-" for stdin, or "owner/repo#N"
	Body string
}

// stdin is swapped out by tests.
var stdin io.Reader = os.Stdin

// readInputs reads each named file. No names, or "-", means stdin.
func readInputs(args []string) ([]input, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}
	out := make([]input, 0, len(args))
	for _, name := range args {
		body, err := readInput(name)
		if err != nil {
			return nil, err
		}
		out = append(out, input{Name: name, Body: body})
	}
	return out, nil
}

func readInput(name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name) // #nosec G304 - user named the file
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}

// readSingleInput is readInputs for commands taking at most one body.
func readSingleInput(args []string) (input, error) {
	if len(args) > 1 {
		return input{}, usageErrorf("expected at most one file, got %d", len(args))
	}
	in, err := readInputs(args)
	if err != nil {
		return input{}, err
	}
	return in[0], nil
}

// githubClient builds a client from config. repoFlag overrides github.repo.
func githubClient(repoFlag string) (*github.Client, error) {
	repo := repoFlag
	if repo == "" {
		repo = config.GetString("github.repo")
	}
	if repo == "" {
		return nil, usageErrorf("no repository: pass --repo owner/name or set github.repo")
	}
	owner, name, err := github.ParseRepo(repo)
	if err != nil {
		return nil, usageErrorf("%v", err)
	}
	client := github.NewClient(config.GetString("github.token"), owner, name)
	if api := config.GetString("github.api-url"); api != "" {
		client = client.WithBaseURL(api)
	}
	return client, nil
}

// fetchGitHubInputs loads the given issue numbers, or every open issue up to
// limit when all is set.
func fetchGitHubInputs(ctx context.Context, client *github.Client, numbers []int, all bool, limit int) ([]input, error) {
	var issues []github.Issue
	if all {
		list, err := client.FetchIssues(ctx, "open", limit)
		if err != nil {
			return nil, fmt.Errorf("listing issues in %s/%s: %w", client.Owner, client.Repo, err)
		}
		issues = list
	}
	for _, n := range numbers {
		is, err := client.FetchIssue(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("fetching %s/%s#%d: %w", client.Owner, client.Repo, n, err)
		}
		issues = append(issues, *is)
	}
	debug.Logf("fetched %d issue(s) from %s/%s\n", len(issues), client.Owner, client.Repo)

	out := make([]input, 0, len(issues))
	for i := range issues {
		out = append(out, input{
			Name: client.Owner + "/" + client.Repo + "#" + strconv.Itoa(issues[i].Number),
			Body: github.ParseInput(&issues[i]),
		})
	}
	return out, nil
}
