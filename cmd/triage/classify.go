package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/triage/internal/config"
	"github.com/steveyegge/triage/internal/parser"
	"github.com/steveyegge/triage/internal/ui"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [file|-]",
	Short: "Print the source, type and priority of an issue body",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readSingleInput(args)
		if err != nil {
			return err
		}
		c, err := parser.Classify(cmd.Context(), in.Body, config.ParserOptions())
		if err != nil {
			return err
		}
		if ok, err := outputStructured(os.Stdout, c); ok {
			return err
		}
		fmt.Println(renderClassification(c))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func renderClassification(c parser.Classification) string {
	src := string(c.Source)
	if c.SourceID != "" {
		src += " #" + c.SourceID
	}
	return fmt.Sprintf("%s %s %s", ui.RenderType(c.Type), ui.RenderPriority(c.Priority), ui.RenderMuted(src))
}
