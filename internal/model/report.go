package model

import (
	"sort"
	"time"
)

// Report represents the complete extraction result for one source page
type Report struct {
	Subject   string    `json:"subject" yaml:"subject"`       // Page subject (e.g., "Timeline of ancient history")
	SourceURL string    `json:"source_url" yaml:"source_url"` // URL or file that was scanned
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"` // When the scan occurred
	FetchMeta FetchMeta `json:"fetch_meta" yaml:"fetch_meta"` // HTTP metadata
	Adapter   string    `json:"adapter" yaml:"adapter"`       // Adapter that produced the document

	AnchorYear        int `json:"anchor_year" yaml:"anchor_year"`               // Processing year used for "years ago"
	FoundingThreshold int `json:"founding_threshold" yaml:"founding_threshold"` // BC magnitude at or before which dates are legendary

	Events  []Event   `json:"events" yaml:"events"`                       // Dated items
	Dropped []Dropped `json:"dropped,omitempty" yaml:"dropped,omitempty"` // Unresolved items with reasons
	Stats   Stats     `json:"stats" yaml:"stats"`                         // Aggregate counts
}

// FetchMeta contains HTTP metadata from fetching the source
type FetchMeta struct {
	StatusCode   int               `json:"status_code" yaml:"status_code"`
	ContentType  string            `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	LastModified string            `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty" yaml:"etag,omitempty"`
	FromCache    bool              `json:"from_cache" yaml:"from_cache"`
	Bytes        int               `json:"bytes" yaml:"bytes"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Stats aggregates outcomes of a document pass for the calling pipeline
type Stats struct {
	Items        int                `json:"items" yaml:"items"`           // Items considered
	Resolved     int                `json:"resolved" yaml:"resolved"`     // Items with a date
	Unresolved   int                `json:"unresolved" yaml:"unresolved"` // Items dropped
	Malformed    int                `json:"malformed" yaml:"malformed"`   // Malformed values seen (resolved by fallback or not)
	ByConfidence map[Confidence]int `json:"by_confidence" yaml:"by_confidence"`
	ByPrecision  map[Precision]int  `json:"by_precision" yaml:"by_precision"`
	ByOrigin     map[Origin]int     `json:"by_origin" yaml:"by_origin"`
	ByReason     map[string]int     `json:"unresolved_by_reason,omitempty" yaml:"unresolved_by_reason,omitempty"`
}

// NewStats returns zeroed stats with every confidence level present
func NewStats() Stats {
	s := Stats{
		ByConfidence: make(map[Confidence]int),
		ByPrecision:  make(map[Precision]int),
		ByOrigin:     make(map[Origin]int),
		ByReason:     make(map[string]int),
	}
	for _, c := range Confidences() {
		s.ByConfidence[c] = 0
	}
	return s
}

// RecordResolved counts a dated event
func (s *Stats) RecordResolved(ev Event) {
	s.ensure()
	s.Items++
	s.Resolved++
	s.ByConfidence[ev.Date.Confidence]++
	s.ByPrecision[ev.Date.Precision]++
	s.ByOrigin[ev.Origin]++
}

// RecordUnresolved counts a dropped item
func (s *Stats) RecordUnresolved(reason string) {
	s.ensure()
	s.Items++
	s.Unresolved++
	s.ByReason[reason]++
}

// RecordMalformed counts a malformed value
func (s *Stats) RecordMalformed() {
	s.Malformed++
}

// Merge adds other into s
func (s *Stats) Merge(other Stats) {
	s.ensure()
	s.Items += other.Items
	s.Resolved += other.Resolved
	s.Unresolved += other.Unresolved
	s.Malformed += other.Malformed
	for k, v := range other.ByConfidence {
		s.ByConfidence[k] += v
	}
	for k, v := range other.ByPrecision {
		s.ByPrecision[k] += v
	}
	for k, v := range other.ByOrigin {
		s.ByOrigin[k] += v
	}
	for k, v := range other.ByReason {
		s.ByReason[k] += v
	}
}

// Reasons returns the unresolved reasons sorted by count, then name
func (s Stats) Reasons() []string {
	reasons := make([]string, 0, len(s.ByReason))
	for r := range s.ByReason {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool {
		if s.ByReason[reasons[i]] != s.ByReason[reasons[j]] {
			return s.ByReason[reasons[i]] > s.ByReason[reasons[j]]
		}
		return reasons[i] < reasons[j]
	})
	return reasons
}

func (s *Stats) ensure() {
	if s.ByConfidence == nil {
		s.ByConfidence = make(map[Confidence]int)
	}
	if s.ByPrecision == nil {
		s.ByPrecision = make(map[Precision]int)
	}
	if s.ByOrigin == nil {
		s.ByOrigin = make(map[Origin]int)
	}
	if s.ByReason == nil {
		s.ByReason = make(map[string]int)
	}
}
