package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/chronia/internal/model"
)

// Format is a report output format
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat accepts a format name or a common alias
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json, yaml, md or html)", name)
}

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer output format from %q", path)
	}
	return ParseFormat(ext)
}

// Renderer writes reports in the supported formats
type Renderer struct {
	includeFooter bool
	md            goldmark.Markdown
}

// NewRenderer creates a renderer. The footer only applies to Markdown and HTML.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		md:            goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// RenderFile writes report to path in the format its extension names
func (r *Renderer) RenderFile(report *model.Report, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, report, format); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Render writes report to w
func (r *Renderer) Render(w io.Writer, report *model.Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		_, err := io.WriteString(w, r.Markdown(report))
		return err
	case FormatHTML:
		return r.renderHTML(w, report)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func (r *Renderer) renderHTML(w io.Writer, report *model.Report) error {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(r.Markdown(report)), &body); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}

	title := html.EscapeString(reportTitle(report))
	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`, title, body.String())
	return err
}

// Markdown renders the report as a GitHub-flavored Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", reportTitle(report))

	b.WriteString("| Field | Value |\n|---|---|\n")
	if report.SourceURL != "" {
		fmt.Fprintf(&b, "| Source | %s |\n", cell(report.SourceURL))
	}
	if report.Adapter != "" {
		fmt.Fprintf(&b, "| Adapter | %s |\n", report.Adapter)
	}
	if !report.FetchedAt.IsZero() {
		fmt.Fprintf(&b, "| Scanned | %s |\n", report.FetchedAt.Format("2006-01-02 15:04 MST"))
	}
	if report.FetchMeta.Bytes > 0 {
		size := humanize.Bytes(uint64(report.FetchMeta.Bytes))
		if report.FetchMeta.FromCache {
			size += " (cached)"
		}
		fmt.Fprintf(&b, "| Size | %s |\n", size)
	}
	fmt.Fprintf(&b, "| Anchor year | %d |\n", report.AnchorYear)
	fmt.Fprintf(&b, "| Founding threshold | %d BC |\n", report.FoundingThreshold)
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Events (%s)\n\n", humanize.Comma(int64(len(report.Events))))
	if len(report.Events) == 0 {
		b.WriteString("No dated events found.\n\n")
	} else {
		b.WriteString("| # | Date | Precision | Confidence | Event | Section |\n|---|---|---|---|---|---|\n")
		for i, ev := range report.Events {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
				i+1, cell(ev.Date.String()), ev.Date.Precision, ev.Date.Confidence,
				cell(ev.Text), cell(strings.Join(ev.Section, " › ")))
		}
		b.WriteString("\n")
	}

	if len(report.Dropped) > 0 {
		fmt.Fprintf(&b, "## Dropped (%s)\n\n", humanize.Comma(int64(len(report.Dropped))))
		b.WriteString("| Reason | Source | Text |\n|---|---|---|\n")
		for _, d := range report.Dropped {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", d.Reason, d.Source, cell(d.Text))
		}
		b.WriteString("\n")
	}

	r.writeStats(&b, report.Stats)

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("_Dates carry a confidence level. Inferred, legendary and fallback dates are best read as estimates._\n")
	}

	return b.String()
}

func (r *Renderer) writeStats(b *strings.Builder, s model.Stats) {
	b.WriteString("## Statistics\n\n")
	fmt.Fprintf(b, "- Items: %s\n", humanize.Comma(int64(s.Items)))
	fmt.Fprintf(b, "- Resolved: %s\n", humanize.Comma(int64(s.Resolved)))
	fmt.Fprintf(b, "- Unresolved: %s\n", humanize.Comma(int64(s.Unresolved)))
	fmt.Fprintf(b, "- Malformed values: %s\n\n", humanize.Comma(int64(s.Malformed)))

	b.WriteString("| Confidence | Events |\n|---|---|\n")
	for _, c := range model.Confidences() {
		fmt.Fprintf(b, "| %s | %d |\n", c, s.ByConfidence[c])
	}
	b.WriteString("\n")

	if len(s.ByPrecision) > 0 {
		b.WriteString("| Precision | Events |\n|---|---|\n")
		for _, p := range model.Precisions() {
			if n := s.ByPrecision[p]; n > 0 {
				fmt.Fprintf(b, "| %s | %d |\n", p, n)
			}
		}
		b.WriteString("\n")
	}

	if reasons := s.Reasons(); len(reasons) > 0 {
		b.WriteString("| Unresolved reason | Items |\n|---|---|\n")
		for _, reason := range reasons {
			fmt.Fprintf(b, "| %s | %d |\n", reason, s.ByReason[reason])
		}
		b.WriteString("\n")
	}
}

// RenderSummary prints a short human summary of the report
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "%s\n", reportTitle(report))
	if report.FetchMeta.Bytes > 0 {
		fmt.Fprintf(w, "  Fetched:    %s", humanize.Bytes(uint64(report.FetchMeta.Bytes)))
		if report.FetchMeta.FromCache {
			fmt.Fprint(w, " (cached)")
		}
		fmt.Fprintln(w)
	}
	s := report.Stats
	fmt.Fprintf(w, "  Events:     %s of %s items\n", humanize.Comma(int64(s.Resolved)), humanize.Comma(int64(s.Items)))
	if s.Unresolved > 0 {
		fmt.Fprintf(w, "  Dropped:    %s\n", humanize.Comma(int64(s.Unresolved)))
	}
	if s.Malformed > 0 {
		fmt.Fprintf(w, "  Malformed:  %s\n", humanize.Comma(int64(s.Malformed)))
	}
	for _, c := range model.Confidences() {
		if n := s.ByConfidence[c]; n > 0 {
			fmt.Fprintf(w, "    %-12s %d\n", c, n)
		}
	}
}

func reportTitle(report *model.Report) string {
	if report.Subject != "" {
		return report.Subject
	}
	if report.SourceURL != "" {
		return report.SourceURL
	}
	return "Untitled"
}

// cell makes text safe inside a Markdown table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
