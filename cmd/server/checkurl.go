package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkURLCmd = &cobra.Command{
	Use:   "check-url <url>",
	Short: "Validate a target URL and print the verdict as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := newValidator(cfg, zap.L())
		res := v.Validate(cmd.Context(), args[0])
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(checkURLCmd)
}
