package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kailas-cloud/trailsearch/internal/domain/event"
	logpkg "github.com/kailas-cloud/trailsearch/internal/logger"
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Run one search from the terminal",
	Example: `  trailsearch query "easy loop under 3 miles near Chicago with lake views, dog-friendly"
  trailsearch query --strategy B --trace "short hike with a waterfall"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringP("strategy", "s", "", "Strategy: direct (A) or reasoning (B)")
	queryCmd.Flags().Bool("trace", false, "Show tool trace entries")
	queryCmd.Flags().Bool("raw", false, "Print events as JSON lines instead of rendered output")
}

func runQuery(cmd *cobra.Command, args []string) error {
	_, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	strategy, _ := cmd.Flags().GetString("strategy")
	showTrace, _ := cmd.Flags().GetBool("trace")
	raw, _ := cmd.Flags().GetBool("raw")

	logger, err := logpkg.NewStderr("warn")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := buildApp(cmd.Context(), cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.close()

	stream, err := a.sessions.Submit(cmd.Context(), strings.Join(args, " "), strategy)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var (
		narrative strings.Builder
		terminal  event.Event
	)
	for e := range stream.Events() {
		if raw {
			if err := writeJSONLine(out, e); err != nil {
				return err
			}
		}
		switch ev := e.(type) {
		case event.Token:
			narrative.WriteString(ev.Content)
		case event.Done, event.Error:
			terminal = ev
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}
	if raw {
		return nil
	}

	switch t := terminal.(type) {
	case event.Error:
		return fmt.Errorf("%s: %s", t.Code, t.Message)
	case event.Done:
		return printMarkdown(out, renderMarkdown(narrative.String(), t, showTrace))
	}
	return nil
}

func writeJSONLine(w io.Writer, e event.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// printMarkdown renders with glamour on a terminal and prints plain
// markdown otherwise.
func printMarkdown(w io.Writer, md string) error {
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// renderMarkdown formats a finished search for the terminal.
func renderMarkdown(narrative string, done event.Done, showTrace bool) string {
	var b strings.Builder

	if done.Degraded {
		b.WriteString("> **Degraded mode:** " + done.Message + "\n\n")
	}
	if n := strings.TrimSpace(narrative); n != "" {
		b.WriteString(n + "\n\n")
	}

	views := event.Views(done.Results)
	if len(views) == 0 {
		b.WriteString("_No trails matched._\n")
	} else {
		b.WriteString("| # | Trail | Miles | Difficulty | Route | Location | Why |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for i, v := range views {
			loc := strings.Trim(v.City+", "+v.State, ", ")
			if v.DistanceFromCenterMiles != nil {
				loc += fmt.Sprintf(" (%.1f mi away)", *v.DistanceFromCenterMiles)
			}
			fmt.Fprintf(&b, "| %d | %s | %.2f | %s | %s | %s | %s |\n",
				i+1, cell(v.Name), v.DistanceMiles, v.Difficulty, v.RouteType, cell(loc), cell(v.Why))
		}
	}

	if showTrace && len(done.Trace) > 0 {
		b.WriteString("\n### Trace\n\n")
		for _, e := range done.Trace {
			status := "ok"
			if !e.Success {
				status = "failed"
			}
			source := "heuristic"
			if e.AI {
				source = "model"
			}
			fmt.Fprintf(&b, "- **%s** (%s, %s, %d ms, %d results)\n", e.Tool, source, status, e.DurationMS, e.ResultCount)
			if e.Reasoning != "" {
				fmt.Fprintf(&b, "  - %s\n", e.Reasoning)
			}
			for _, s := range e.ProcessingSteps {
				fmt.Fprintf(&b, "  - %s\n", s)
			}
			for _, msg := range e.Errors {
				fmt.Fprintf(&b, "  - error: %s\n", msg)
			}
		}
	}
	return b.String()
}

// cell escapes table separators.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
