package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/trailsearch/internal/domain/search/parser"
	"github.com/kailas-cloud/trailsearch/internal/usecase/session"
)

var parseCmd = &cobra.Command{
	Use:     "parse [text]",
	Short:   "Print the filters the heuristic parser extracts, without searching",
	Example: `  trailsearch parse "moderate out-and-back under 8 km with a waterfall"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return writeParsed(cmd.OutOrStdout(), parser.New(cfg.ReferencePoints()), strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func writeParsed(w io.Writer, p *parser.Parser, text string) error {
	text, err := session.ValidateText(text)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(p.Parse(text).Spec(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode filters: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
