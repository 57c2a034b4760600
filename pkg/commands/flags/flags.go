// Package flags provides reusable flag helpers for diamondctl commands.
//
// Only flags shared by several commands belong here. Command-specific flags are defined
// locally in the command file.
package flags

import (
	"github.com/spf13/cobra"
)

// MustString returns the string value, ignoring the error.
// Safe to use with registered flags where GetString cannot fail.
func MustString(s string, _ error) string { return s }

// MustBool returns the bool value, ignoring the error.
// Safe to use with registered flags where GetBool cannot fail.
func MustBool(b bool, _ error) bool { return b }

// MustStringSlice returns the slice value, ignoring the error.
// Safe to use with registered flags where GetStringSlice cannot fail.
func MustStringSlice(s []string, _ error) []string { return s }

// Config adds the --config/-c flag naming the diamondctl config file. When the file does not
// exist, configuration is read from the environment only.
// Retrieve the value with cmd.Flags().GetString("config").
func Config(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "diamond.yaml", "Config file path")
}

// Output adds the --out/-o flag for specifying an output file path.
// Retrieve the value with cmd.Flags().GetString("out").
func Output(cmd *cobra.Command, defaultValue string) {
	cmd.Flags().StringP("out", "o", defaultValue, "Output file path")
}
