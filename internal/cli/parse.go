package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/chronia/internal/model"
	"github.com/ppiankov/chronia/internal/temporal"
)

var parseJSON bool

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse [text...]",
	Short: "Parse date expressions and print the resolved spans",
	Long: `Parse resolves each argument (or each line of stdin when no argument is
given) to a calendar span and prints its precision, confidence and the
strategy that matched.

Example:
  chronia parse "c. 2500 BC" "3rd century BC" "1990s"
  chronia parse --anchor-year 2000 "10,000 years ago"
  echo "1516/17" | chronia parse --json`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	addEngineFlags(parseCmd)
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print one JSON object per line")
}

// parseOutput is one line of parse --json
type parseOutput struct {
	Text     string      `json:"text"`
	Span     *model.Span `json:"span,omitempty"`
	Display  string      `json:"display,omitempty"`
	Strategy string      `json:"strategy,omitempty"`
	Origin   string      `json:"origin,omitempty"`
	Error    string      `json:"error,omitempty"`
	Reason   string      `json:"reason,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	if err := bindEngineFlags(cmd); err != nil {
		return err
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	parser := temporal.NewParser(temporal.OptionsFromConfig(cfg.Engine, time.Now()), logger)

	inputs := args
	if len(inputs) == 0 {
		if cmd.InOrStdin() == os.Stdin && stdinIsTerminal() {
			return errors.New("give text arguments or pipe lines on stdin")
		}
		inputs, err = readLines(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	failed := 0
	for _, text := range inputs {
		res := parseOne(parser, text)
		if res.Error != "" {
			failed++
		}
		if parseJSON {
			if err := enc.Encode(res); err != nil {
				return err
			}
			continue
		}
		printParse(out, res)
	}

	if failed > 0 && failed == len(inputs) {
		return errors.New("no input could be resolved")
	}
	return nil
}

func parseOne(parser *temporal.Parser, text string) parseOutput {
	res := parseOutput{Text: text}
	m, err := parser.ParseMatch(text)
	if err != nil {
		res.Error = err.Error()
		res.Reason = temporal.Reason(err)
		return res
	}
	res.Span = &m.Span
	res.Display = m.Span.String()
	res.Strategy = string(m.Strategy)
	res.Origin = string(m.Origin)
	return res
}

func printParse(w io.Writer, res parseOutput) {
	if res.Span == nil {
		fmt.Fprintf(w, "✗ %s\n    %s (%s)\n", res.Text, res.Error, res.Reason)
		return
	}
	fmt.Fprintf(w, "✓ %s\n    %s  [%s, %s] via %s\n", res.Text, res.Display, res.Span.Precision, res.Span.Confidence, res.Strategy)
	if res.Span.MatchNotes != "" {
		fmt.Fprintf(w, "    notes: %s\n", res.Span.MatchNotes)
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
