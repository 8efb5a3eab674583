package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tubescribe/internal/captions"
	"tubescribe/internal/language"
	"tubescribe/internal/services"
	"tubescribe/internal/videoid"
)

func newTracksCommand(ctx *commandContext) *cobra.Command {
	var langs []string

	cmd := &cobra.Command{
		Use:   "tracks <url-or-id>",
		Short: "List caption tracks and the order they would be tried",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			prefs := cfg.Captions.Languages
			if cmd.Flags().Changed("langs") {
				prefs = langs
			}
			prefs, err = language.ParsePreferences(prefs)
			if err != nil {
				return services.Wrap(services.ErrValidation, "", "--langs", "", err)
			}
			id, err := videoid.Resolve(args[0])
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd, cfg)
			if err != nil {
				return err
			}
			client, err := newCaptionClient(cfg, logger)
			if err != nil {
				return err
			}
			tracks, err := captions.NewSelector(client, logger).Tracks(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(tracks) == 0 {
				newPrinter(out).status(statusInfo, "No caption tracks for %s.", id)
				return nil
			}
			fmt.Fprintln(out, renderTracksTable(tracks))
			plan := captions.Plan(tracks, prefs)
			if len(plan) == 0 {
				newPrinter(out).status(statusInfo, "No track matches %s; speech-to-text would be used.", strings.Join(prefs, ","))
				return nil
			}
			fmt.Fprintln(out, renderPlanTable(plan))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&langs, "langs", nil, "Caption language preferences in priority order")
	return cmd
}

func renderTracksTable(tracks []captions.Track) string {
	rows := make([][]string, 0, len(tracks))
	for i, track := range tracks {
		translations := "-"
		if track.Translatable {
			translations = "any"
			if n := len(track.TranslationLanguages); n > 0 {
				translations = strconv.Itoa(n)
			}
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			track.LanguageCode,
			displayOrDash(firstNonEmpty(track.Name, language.DisplayName(track.LanguageCode))),
			track.Origin.String(),
			yesNo(track.Translatable),
			translations,
		})
	}
	return renderTable(
		[]string{"#", "Language", "Name", "Origin", "Translatable", "Targets"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func renderPlanTable(plan []captions.Candidate) string {
	rows := make([][]string, 0, len(plan))
	for i, candidate := range plan {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			candidate.Label(),
			candidate.Language,
		})
	}
	return renderTable(
		[]string{"Attempt", "Candidate", "Result language"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
