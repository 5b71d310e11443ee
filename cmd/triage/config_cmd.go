package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/triage/internal/config"
	"github.com/steveyegge/triage/internal/debug"
	"github.com/steveyegge/triage/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change triage configuration",
	Long: `Configuration lives in .triage/config.yaml (searched from the current
directory upwards) or in the file named by TRIAGE_CONFIG. Every key can be
overridden with a TRIAGE_ environment variable: fallback.max-attempts is
TRIAGE_FALLBACK_MAX_ATTEMPTS.`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every key with its value and origin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.Settings()
		if ok, err := outputStructured(os.Stdout, settings); ok {
			return err
		}
		if path := config.ConfigFileUsed(); path != "" {
			fmt.Printf("%s\n\n", ui.RenderMuted("# "+path))
		}
		for _, s := range settings {
			fmt.Printf("%s = %v %s\n", ui.RenderAccent(s.Key), s.Value, ui.RenderMuted("("+s.Origin+")"))
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		k := config.LookupKey(key)
		if k == nil {
			return usageErrorf("unknown config key %q", key)
		}
		var value interface{} = config.Get(key)
		if k.Secret && config.GetString(key) != "" {
			value = "********"
		}
		if ok, err := outputStructured(os.Stdout, map[string]interface{}{"key": key, "value": value}); ok {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a key to .triage/config.yaml",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.SetYamlConfig(args[0], args[1])
		if err != nil {
			return err
		}
		if ok, err := outputStructured(os.Stdout, map[string]string{"key": args[0], "value": args[1], "path": path}); ok {
			return err
		}
		debug.PrintNormal("%s Set %s = %s in %s\n", ui.RenderPassIcon(), args[0], args[1], path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
