package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "liftlog",
	Short: "Offline helpers for the liftlog workout log",
	Long: "liftlog bundles the tools that work without a running service: " +
		"exercise to muscle lookups, plan file validation and calendar week ranges.",
	SilenceUsage: true,
}

var timezone string

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&timezone, "tz", "Local", "IANA timezone used to resolve local dates")
	rootCmd.AddCommand(musclesCmd, planCmd, weekCmd, hashPasswordCmd)
}
