package worker

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/chronia/internal/model"
	"github.com/ppiankov/chronia/internal/pipeline"
)

// Scanner defines the interface for scanning a URL
type Scanner interface {
	ScanURL(ctx context.Context, url string) (*pipeline.ScanResult, error)
}

// ScanJob represents a URL scan job
type ScanJob struct {
	Index   int
	URL     string
	Scanner Scanner
	Limiter *Limiter // Optional per-domain limit applied before the scan
}

// Execute executes the scan job
func (j *ScanJob) Execute(ctx context.Context) Result {
	start := time.Now()
	result := &ScanResult{Index: j.Index, URL: j.URL}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.URL); err != nil {
			result.Error = fmt.Errorf("rate limit: %w", err)
			return result
		}
	}

	scan, err := j.Scanner.ScanURL(ctx, j.URL)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		return result
	}
	result.Report = scan.Report
	return result
}

// ScanResult represents the result of a scan job
type ScanResult struct {
	Index    int
	URL      string
	Report   *model.Report
	Error    error
	Duration time.Duration
}

// GetError returns the error from the scan result
func (r *ScanResult) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple URLs concurrently
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
	limiter     *Limiter
	logger      *slog.Logger
}

// NewBatchProcessor creates a new batch processor. A positive
// requestsPerSecond limits scans per domain at the job level; pass zero when
// the scanner already limits its own fetches.
func NewBatchProcessor(scanner Scanner, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	b := &BatchProcessor{
		scanner:     scanner,
		concurrency: concurrency,
		logger:      slog.Default(),
	}
	if requestsPerSecond > 0 {
		b.limiter = NewLimiter(requestsPerSecond, burst)
	}
	return b
}

// WithLogger sets the logger used for per-URL progress
func (b *BatchProcessor) WithLogger(logger *slog.Logger) *BatchProcessor {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// ProcessURLs processes multiple URLs concurrently. Results are returned in
// input order.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*ScanResult {
	if len(urls) == 0 {
		return []*ScanResult{}
	}

	pool := NewPoolContext(ctx, b.concurrency)
	pool.Start()

	// Submitting and draining run together so a large batch cannot fill both
	// the job queue and the result buffer.
	go func() {
		for i, url := range urls {
			job := &ScanJob{
				Index:   i,
				URL:     url,
				Scanner: b.scanner,
				Limiter: b.limiter,
			}
			if !pool.Submit(job) {
				break
			}
		}
		pool.Close()
	}()

	ordered := make([]*ScanResult, len(urls))
	for result := range pool.Results() {
		sr := result.(*ScanResult)
		switch {
		case sr.Error != nil:
			b.logger.Warn("scan failed", "url", sr.URL, "error", sr.Error)
		case sr.Report != nil:
			b.logger.Info("scan complete", "url", sr.URL, "events", len(sr.Report.Events), "duration", sr.Duration)
		}
		ordered[sr.Index] = sr
	}

	// Jobs never run because the context ended early
	for i, sr := range ordered {
		if sr == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &ScanResult{Index: i, URL: urls[i], Error: err}
		}
	}

	return ordered
}

// ProcessFile reads URLs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ScanResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// Summary aggregates a batch
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Events    int
	Dropped   int
	Stats     model.Stats
}

// Summarize merges the statistics of every successful scan
func Summarize(results []*ScanResult) Summary {
	s := Summary{Total: len(results), Stats: model.NewStats()}
	for _, r := range results {
		if r.Error != nil || r.Report == nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		s.Events += len(r.Report.Events)
		s.Dropped += r.Report.Stats.Unresolved
		s.Stats.Merge(r.Report.Stats)
	}
	return s
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
