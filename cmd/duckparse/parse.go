package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/japaniel/duckparse/pkg/dimension"
	"github.com/japaniel/duckparse/pkg/duckparse"
	"github.com/japaniel/duckparse/pkg/language"
	"github.com/spf13/cobra"
)

func parseCmd(a *app) *cobra.Command {
	var (
		dims []string
		ref  string
		lang string
		raw  bool
	)

	cmd := &cobra.Command{
		Use:   "parse [text]",
		Short: "Extract entities from text (read from stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = strings.TrimSpace(string(data))
			}

			opts, err := callOptions(dims, ref, lang)
			if err != nil {
				return err
			}

			p, err := a.loadedParser(cmd.Context())
			if err != nil {
				return err
			}
			if raw {
				entries, err := p.ParseRaw(cmd.Context(), text, opts...)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), a.format, entries)
			}
			entries, err := p.Parse(cmd.Context(), text, opts...)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.format, entries)
		},
	}

	cmd.Flags().StringSliceVarP(&dims, "dims", "d", nil, "only report these dimensions")
	cmd.Flags().StringVar(&ref, "ref", "", "reference time for relative expressions")
	cmd.Flags().StringVar(&lang, "in", "", "language of this text, overriding --lang")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the full decoded entries")
	return cmd
}

func callOptions(dims []string, ref, lang string) ([]duckparse.CallOption, error) {
	var opts []duckparse.CallOption
	if len(dims) > 0 {
		ds, err := dimension.ParseList(dims...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, duckparse.WithDimensions(ds...))
	}
	if ref != "" {
		t, err := duckparse.ParseReferenceTime(ref)
		if err != nil {
			return nil, err
		}
		opts = append(opts, duckparse.WithReferenceTime(t))
	}
	if lang != "" {
		l, err := language.Parse(lang)
		if err != nil {
			return nil, err
		}
		opts = append(opts, duckparse.Language(l))
	}
	return opts, nil
}

type dimensionRow struct {
	Name   string `json:"name"`
	Family string `json:"family"`
}

func dimsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dims",
		Short: "List supported dimensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []dimensionRow
			for _, d := range dimension.All() {
				rows = append(rows, dimensionRow{Name: d.String(), Family: d.Family().String()})
			}
			return render(cmd.OutOrStdout(), a.format, rows)
		},
	}
}

type languageRow struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	EngineID string `json:"engine_id"`
}

func languagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []languageRow
			for _, l := range language.All() {
				rows = append(rows, languageRow{Code: l.ISO(), Name: l.Name(), EngineID: l.EngineID()})
			}
			return render(cmd.OutOrStdout(), a.format, rows)
		},
	}
}
