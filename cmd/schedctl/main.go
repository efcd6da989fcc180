package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var timeout time.Duration

// rootCmd 是运维命令行工具的入口
var rootCmd = &cobra.Command{
	Use:           "schedctl",
	Short:         "Operate the crew schedule backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	weeksCmd.AddCommand(weeksListCmd)
	weeksCmd.AddCommand(weeksDumpCmd)

	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(weeksCmd)
	rootCmd.AddCommand(smtpCheckCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
