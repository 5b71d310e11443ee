package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/triage/internal/parser"
	"github.com/steveyegge/triage/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file|-]",
	Short: "Check an issue body without recovery",
	Long: `Parse an issue body exactly as written, with recovery off, and report
every validation error and warning. Exit status is 1 when the body cannot be
parsed or has validation errors.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readSingleInput(args)
		if err != nil {
			return err
		}
		_, result, err := parser.CheckIssueBody(cmd.Context(), in.Body)
		if err != nil {
			return err
		}

		strict, _ := cmd.Flags().GetBool("strict")
		ok, err := outputStructured(os.Stdout, result)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Print(ui.RenderValidation(result))
		}
		if !result.Valid || (strict && len(result.Warnings) > 0) {
			return silentFailure()
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Exit 1 on warnings as well as errors")
	rootCmd.AddCommand(validateCmd)
}
