package main

import (
	"fmt"
	"strings"

	"github.com/2beens/liftlog/internal/muscles"

	"github.com/spf13/cobra"
)

var musclesListAll bool

var musclesCmd = &cobra.Command{
	Use:   "muscles [exercise name]",
	Short: "Show the muscles an exercise works",
	Args: func(cmd *cobra.Command, args []string) error {
		if musclesListAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if musclesListAll {
			for _, name := range muscles.ExerciseNames() {
				fmt.Fprintln(out, name)
			}
			return nil
		}

		name := strings.Join(args, " ")
		hit := muscles.For(name)
		if len(hit) == 0 {
			fmt.Fprintf(out, "%s: no known muscles\n", name)
			return nil
		}
		fmt.Fprintf(out, "%s: %s\n", name, strings.Join(hit, ", "))
		return nil
	},
}

func init() {
	musclesCmd.Flags().BoolVar(&musclesListAll, "list", false, "list every exercise with a known muscle mapping")
}
