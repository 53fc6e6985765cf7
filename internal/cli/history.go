package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/dcma/internal/history"
	"github.com/JaimeStill/dcma/pkg/pagination"
)

var (
	historyKey      history.Key
	historyDuration time.Duration
	historyEnd      bool
	historyPage     int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Record and query manual step durations",
}

var historyRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Add a visit to a manual step",
	Long: `Add a visit to a manual step. The first visit for a batch, status and
user creates the step; later visits add their duration to it.

Examples:
  dcma history record --batch BI1 --status READY_FOR_REVIEW --user alice --duration 90s
  dcma history record --batch BI1 --status READY_FOR_REVIEW --user alice --duration 30s --end`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := historySystem()
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		rc := history.RecordCommand{
			Key:        historyKey,
			StartTime:  now.Add(-historyDuration),
			DurationMs: historyDuration.Milliseconds(),
		}
		if historyEnd {
			rc.EndTime = &now
		}

		s, err := sys.Record(ctxOf(cmd), rc)
		if err != nil {
			return err
		}
		return printJSON(cmd, s)
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded steps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := historySystem()
		if err != nil {
			return err
		}

		var f history.Filters
		if historyKey.BatchInstanceID != "" {
			f.BatchInstanceID = &historyKey.BatchInstanceID
		}
		if historyKey.BatchInstanceStatus != "" {
			f.Statuses = strings.Split(historyKey.BatchInstanceStatus, ",")
		}
		if historyKey.UserName != "" {
			f.UserName = &historyKey.UserName
		}

		result, err := sys.List(ctxOf(cmd), pagination.PageRequest{Page: historyPage}, f)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a recorded step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("step id: %w", err)
		}

		sys, err := historySystem()
		if err != nil {
			return err
		}
		if err := sys.Delete(ctxOf(cmd), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted step %s\n", id)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{historyRecordCmd, historyListCmd} {
		c.Flags().StringVar(&historyKey.BatchInstanceID, "batch", "", "batch instance identifier")
		c.Flags().StringVar(&historyKey.BatchInstanceStatus, "status", "", "batch instance status")
		c.Flags().StringVar(&historyKey.UserName, "user", "", "user name")
	}
	historyRecordCmd.Flags().DurationVar(&historyDuration, "duration", 0, "time spent in this visit")
	historyRecordCmd.Flags().BoolVar(&historyEnd, "end", false, "mark the step finished")
	historyListCmd.Flags().IntVar(&historyPage, "page", 1, "page number")

	historyCmd.AddCommand(historyRecordCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}
