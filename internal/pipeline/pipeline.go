package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ppiankov/chronia/internal/cache"
	"github.com/ppiankov/chronia/internal/extract"
	"github.com/ppiankov/chronia/internal/extract/adapters"
	"github.com/ppiankov/chronia/internal/model"
	"github.com/ppiankov/chronia/internal/temporal"
	"github.com/ppiankov/chronia/internal/util"
)

// Pipeline orchestrates fetch, structural walk and date extraction
type Pipeline struct {
	fetcher   *Fetcher
	registry  *adapters.Registry
	parser    *temporal.Parser
	extractor *extract.Extractor
	renderer  *Renderer
	config    *model.Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline creates a new pipeline with the given configuration. The anchor
// year is fixed here, once per run.
func NewPipeline(cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	fetcher := NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy).
		WithAttempts(cfg.HTTP.MaxRetries).
		WithLogger(logger)
	if c := cache.New(cfg.Cache); c != nil {
		fetcher.WithCache(c, 0)
	}
	if cfg.HTTP.RespectRobots {
		fetcher.WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout))
	}

	parser := temporal.NewParser(temporal.OptionsFromConfig(cfg.Engine, time.Now()), logger)

	return &Pipeline{
		fetcher:   fetcher,
		registry:  adapters.NewRegistry(),
		parser:    parser,
		extractor: extract.NewExtractor(parser, logger),
		renderer:  NewRenderer(cfg.Output.IncludeFooter),
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// UseLimiter paces every fetch of this pipeline per domain
func (p *Pipeline) UseLimiter(l RateLimiter) {
	p.fetcher.WithLimiter(l)
}

// Parser returns the pipeline's date parser
func (p *Pipeline) Parser() *temporal.Parser {
	return p.parser
}

// Renderer returns the pipeline's report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// ScanResult contains the complete scan result
type ScanResult struct {
	Report   *model.Report
	Document *model.Document
}

// ScanURL fetches a page and extracts its dated events
func (p *Pipeline) ScanURL(ctx context.Context, url string) (*ScanResult, error) {
	fetchResult, err := p.fetcher.FetchWithRetry(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	result, err := p.ScanHTML(fetchResult.HTML, fetchResult.FinalURL, "")
	if err != nil {
		return nil, err
	}

	report := result.Report
	report.FetchMeta = fetchResult.Meta
	if report.Subject == "" {
		report.Subject = fetchResult.Subject
	}
	return result, nil
}

// ScanFile extracts events from a saved page. sourceURL selects the adapter
// and keys event IDs; it may be empty.
func (p *Pipeline) ScanFile(path, sourceURL, adapterName string) (*ScanResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if sourceURL == "" {
		sourceURL = "file://" + path
	}
	result, err := p.ScanHTML(string(data), sourceURL, adapterName)
	if err != nil {
		return nil, err
	}
	result.Report.FetchMeta = model.FetchMeta{Bytes: len(data)}
	return result, nil
}

// ScanHTML walks an HTML page into a document and extracts it. An empty
// adapterName picks the adapter by URL.
func (p *Pipeline) ScanHTML(htmlContent, sourceURL, adapterName string) (*ScanResult, error) {
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	adapter := p.registry.FindAdapter(sourceURL, "text/html")
	if adapterName != "" {
		named, ok := p.registry.Lookup(adapterName)
		if !ok {
			return nil, fmt.Errorf("unknown adapter %q", adapterName)
		}
		adapter = named
	}

	doc, err := adapter.ExtractDocument(root, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("extract document: %w", err)
	}
	p.logger.Debug("document built", "adapter", adapter.Name(), "title", doc.Title, "blocks", len(doc.Blocks))

	return p.ScanDocument(doc, adapter.Name()), nil
}

// ScanDocument runs the extractor over a document built elsewhere
func (p *Pipeline) ScanDocument(doc *model.Document, adapterName string) *ScanResult {
	res := p.extractor.Process(doc)
	opts := p.parser.Options()

	report := &model.Report{
		Subject:           doc.Title,
		SourceURL:         doc.URL,
		FetchedAt:         p.now().UTC(),
		Adapter:           adapterName,
		AnchorYear:        opts.AnchorYear,
		FoundingThreshold: opts.FoundingThreshold,
		Events:            res.Events,
		Stats:             res.Stats,
	}
	if p.config.Output.KeepDropped {
		report.Dropped = res.Dropped
	}

	p.logger.Info("document extracted",
		"subject", report.Subject,
		"events", res.Stats.Resolved,
		"dropped", res.Stats.Unresolved,
		"malformed", res.Stats.Malformed)

	return &ScanResult{Report: report, Document: doc}
}

// RenderReport writes the report to each output path, choosing the format
// from the file extension. "-" writes the configured format to stdout.
func (p *Pipeline) RenderReport(report *model.Report, outputs []string) error {
	for _, out := range outputs {
		if out == "-" {
			format, err := ParseFormat(p.config.Output.Format)
			if err != nil {
				return err
			}
			if err := p.renderer.Render(os.Stdout, report, format); err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			continue
		}
		if err := p.renderer.RenderFile(report, out); err != nil {
			return fmt.Errorf("render %s: %w", out, err)
		}
		p.logger.Info("wrote report", "path", out)
	}
	return nil
}
