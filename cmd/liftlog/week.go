package main

import (
	"fmt"
	"time"

	"github.com/2beens/liftlog/internal/dates"

	"github.com/spf13/cobra"
)

var weekCmd = &cobra.Command{
	Use:   "week [YYYY-MM-DD]",
	Short: "Show the Sunday-start week containing a date, today by default",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("load timezone: %w", err)
		}

		day := time.Now().In(loc)
		if len(args) == 1 {
			day, err = dates.ParseLocalDateIn(args[0], loc)
			if err != nil {
				return err
			}
		}

		week := dates.WeekRange(day)
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s .. %s)\n",
			week,
			dates.LocalDateStringIn(week.Start, loc),
			dates.LocalDateStringIn(week.End, loc),
		)
		return nil
	},
}
