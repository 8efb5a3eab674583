package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tubescribe/internal/history"
	"tubescribe/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var video string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded transcription runs",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistoryForCommand(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var runs []history.Run
			if id := strings.TrimSpace(video); id != "" {
				runs, err = store.ListByVideo(cmd.Context(), id, limit)
			} else {
				runs, err = store.List(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				newPrinter(out).status(statusInfo, "No runs recorded.")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(runs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Maximum number of runs to show")
	cmd.Flags().StringVar(&video, "video", "", "Only show runs for this video id")
	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistoryForCommand(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).status(statusOK, "Removed %s.", pluralize(int(removed), "run", "runs"))
			return nil
		},
	}
}

func openHistoryForCommand(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, services.Wrap(services.ErrConfiguration, "", "history", "run history is disabled ([history] enabled = false)", nil)
	}
	return history.Open(cfg.HistoryPath())
}

func renderHistoryTable(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		detail := run.TextPath
		if run.Status == history.StatusFailed {
			detail = run.FailureKind
		}
		rows = append(rows, []string{
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			displayOrDash(run.VideoID),
			string(run.Status),
			displayOrDash(run.Origin),
			displayOrDash(run.Language),
			strconv.Itoa(run.EntryCount),
			run.Duration().Round(100 * time.Millisecond).String(),
			displayOrDash(detail),
		})
	}
	return renderTable(
		[]string{"Started", "Video", "Status", "Origin", "Lang", "Entries", "Took", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}
