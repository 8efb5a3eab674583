package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tubescribe/internal/deps"
	"tubescribe/internal/services"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools needed for speech-to-text",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			fmt.Fprintln(cmd.OutOrStdout(), renderDepsTable(statuses))

			missing := deps.Missing(statuses)
			if len(missing) == 0 {
				newPrinter(cmd.OutOrStdout()).status(statusOK, "All required tools found.")
				return nil
			}
			names := make([]string, 0, len(missing))
			for _, s := range missing {
				names = append(names, s.Name)
			}
			return services.Wrap(services.ErrExternalTool, "", "deps",
				"missing "+strings.Join(names, ", ")+"; captions still work but the speech-to-text fallback will fail", nil)
		},
	}
}

func renderDepsTable(statuses []deps.Status) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := "found"
		switch {
		case !s.Available && s.Optional:
			state = "missing (optional)"
		case !s.Available:
			state = "missing"
		}
		rows = append(rows, []string{s.Name, state, displayOrDash(s.Detail), s.Description})
	}
	return renderTable([]string{"Tool", "Status", "Path", "Used for"}, rows, nil)
}
