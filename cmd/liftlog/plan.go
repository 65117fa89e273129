package main

import (
	"fmt"
	"os"

	"github.com/2beens/liftlog/internal/plans"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Work with workout plan files",
}

var planValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a JSON or YAML workout plan file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open plan file: %w", err)
		}
		defer f.Close()

		plan, err := plans.Load(f, plans.FormatOf(path))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, problem := range plans.ValidateSchedule(*plan) {
			fmt.Fprintf(out, "warning: %s\n", problem)
		}
		if err := plans.Validate(*plan); err != nil {
			return err
		}

		fmt.Fprintf(out, "plan %q ok: %d day templates, %d scheduled days\n",
			plan.Name, len(plan.DayTemplates), len(plan.Schedule))
		return nil
	},
}

var planDemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Print the demo plan schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		plan := plans.DemoPlan()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, plan.Name)
		for _, day := range plan.ScheduledDays() {
			template := plans.DayTemplateFor(plan, day)
			if template == nil {
				fmt.Fprintf(out, "  %-10s -\n", day)
				continue
			}
			fmt.Fprintf(out, "  %-10s %s (%d exercises)\n", day, template.Name, len(template.Exercises))
		}
		return nil
	},
}

func init() {
	planCmd.AddCommand(planValidateCmd, planDemoCmd)
}
