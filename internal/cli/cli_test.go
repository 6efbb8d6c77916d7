package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/chronia/internal/logging"
	"github.com/ppiankov/chronia/internal/model"
	"github.com/ppiankov/chronia/internal/temporal"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Timeline of ancient Rome", "Timeline-of-ancient-Rome"},
		{"AC/DC: A history?", "AC_DC_-A-history"},
		{"  ..  ", "report"},
		{"", "report"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("é", 150)
	if got := []rune(sanitizeFilename(long)); len(got) != 100 {
		t.Errorf("Expected 100 runes, got %d", len(got))
	}
}

func TestUniqueSlug(t *testing.T) {
	used := make(map[string]int)
	got := []string{
		uniqueSlug("rome", used),
		uniqueSlug("rome", used),
		uniqueSlug("paris", used),
		uniqueSlug("rome", used),
	}
	want := []string{"rome", "rome-2", "paris", "rome-3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slug %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseOne(t *testing.T) {
	parser := temporal.NewParser(temporal.Options{AnchorYear: 2026}, logging.Discard())

	res := parseOne(parser, "c. 2500 BC")
	if res.Span == nil {
		t.Fatalf("Expected a span, got error %s", res.Error)
	}
	if res.Span.Confidence != model.ConfidenceLegendary {
		t.Errorf("Expected legendary, got %s", res.Span.Confidence)
	}
	if res.Display != "c. 2500 BC" {
		t.Errorf("Unexpected display %q", res.Display)
	}

	res = parseOne(parser, "no date here")
	if res.Span != nil || res.Reason != "no_match" {
		t.Errorf("Expected no_match, got %+v", res)
	}

	var buf bytes.Buffer
	printParse(&buf, res)
	if !strings.Contains(buf.String(), "no_match") {
		t.Errorf("Expected reason in output, got %q", buf.String())
	}
}

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("1066\n\n  1990s  \n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(lines) != 2 || lines[0] != "1066" || lines[1] != "1990s" {
		t.Errorf("Unexpected lines %q", lines)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Written config is not valid YAML: %v", err)
	}
	if cfg.Engine.FoundingThreshold != model.DefaultFoundingThreshold {
		t.Errorf("Expected founding threshold %d, got %d", model.DefaultFoundingThreshold, cfg.Engine.FoundingThreshold)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("Expected error when config already exists")
	}
}
