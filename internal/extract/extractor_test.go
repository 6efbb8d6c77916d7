package extract

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/chronia/internal/model"
	"github.com/ppiankov/chronia/internal/temporal"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExtractor(temporal.NewParser(temporal.Options{AnchorYear: 2026}, logger), logger)
}

func romeDocument() *model.Document {
	return &model.Document{
		Title: "Timeline of ancient Rome",
		URL:   "https://en.wikipedia.org/wiki/Timeline_of_ancient_Rome",
		Blocks: []model.Block{
			model.Heading("8th century BC", 2),
			model.Fragment("753 BC – Founding of Rome").At(model.BodyLevel),
			model.Fragment("Romulus becomes the first king").At(model.BodyLevel),
			model.Heading("Republic", 2),
			model.Fragment("The Senate convenes").At(model.BodyLevel),
			model.TableStart().At(model.BodyLevel),
			model.Row(model.Cell{Text: "509 BC", RowSpan: 2}, model.Cell{Text: "Brutus"}).At(model.BodyLevel + 1),
			model.Row(model.Cell{}, model.Cell{Text: "Collatinus"}).At(model.BodyLevel + 1),
			model.Row(model.Cell{}, model.Cell{Text: "Orphan"}).At(model.BodyLevel + 1),
			model.Fragment("31 February 44 BC – Caesar").At(model.BodyLevel),
		},
	}
}

func TestExtractor_Process(t *testing.T) {
	result := newTestExtractor(t).Process(romeDocument())

	require.Len(t, result.Events, 5)
	require.Len(t, result.Dropped, 2)

	founding := result.Events[0]
	assert.Equal(t, "753 BC – Founding of Rome", founding.Text)
	assert.Equal(t, model.OriginDirect, founding.Origin)
	assert.Equal(t, model.SourceFragment, founding.Source)
	assert.Equal(t, model.ConfidenceExplicit, founding.Date.Confidence)
	assert.Equal(t, -753, founding.Date.SignedStart())
	assert.Equal(t, []string{"8th century BC"}, founding.Section)

	king := result.Events[1]
	assert.Equal(t, model.OriginSection, king.Origin)
	assert.Equal(t, -800, king.Date.SignedStart())
	assert.Equal(t, -701, king.Date.SignedEnd())
	assert.Equal(t, model.ConfidenceLegendary, king.Date.Confidence, "inherited century lies before the founding threshold")

	brutus := result.Events[2]
	assert.Equal(t, "Brutus", brutus.Text)
	assert.Equal(t, model.SourceTableRow, brutus.Source)
	assert.Equal(t, model.ConfidenceExplicit, brutus.Date.Confidence)
	assert.Equal(t, -509, brutus.Date.SignedStart())

	collatinus := result.Events[3]
	assert.Equal(t, "Collatinus", collatinus.Text)
	assert.Equal(t, model.OriginRowspan, collatinus.Origin)
	assert.Equal(t, model.ConfidenceInferred, collatinus.Date.Confidence)
	assert.Equal(t, -509, collatinus.Date.SignedStart())
	assert.Equal(t, []string{"Republic"}, collatinus.Section)

	caesar := result.Events[4]
	assert.Equal(t, model.OriginFallback, caesar.Origin)
	assert.Equal(t, model.ConfidenceFallback, caesar.Date.Confidence)
	assert.Equal(t, model.PrecisionMonth, caesar.Date.Precision)
	assert.Equal(t, 2, caesar.Date.StartMonth)
	assert.Equal(t, 0, caesar.Date.StartDay)

	assert.Equal(t, "The Senate convenes", result.Dropped[0].Text)
	assert.Equal(t, "inheritance_exhausted", result.Dropped[0].Reason)
	assert.Equal(t, []string{"Republic"}, result.Dropped[0].Section)
	assert.Equal(t, "Orphan", result.Dropped[1].Text)
	assert.Equal(t, model.SourceTableRow, result.Dropped[1].Source)
	assert.Equal(t, "rowspan_exhausted", result.Dropped[1].Reason)

	stats := result.Stats
	assert.Equal(t, 7, stats.Items)
	assert.Equal(t, 5, stats.Resolved)
	assert.Equal(t, 2, stats.Unresolved)
	assert.Equal(t, 1, stats.Malformed)
	assert.Equal(t, 2, stats.ByConfidence[model.ConfidenceExplicit])
	assert.Equal(t, 1, stats.ByConfidence[model.ConfidenceInferred])
	assert.Equal(t, 1, stats.ByConfidence[model.ConfidenceLegendary])
	assert.Equal(t, 1, stats.ByConfidence[model.ConfidenceFallback])
	assert.Equal(t, 0, stats.ByConfidence[model.ConfidenceContentious])
	assert.Equal(t, 1, stats.ByOrigin[model.OriginRowspan])
	assert.Equal(t, 1, stats.ByReason["rowspan_exhausted"])
	assert.Equal(t, 1, stats.ByReason["inheritance_exhausted"])

	for _, ev := range result.Events {
		assert.NoError(t, ev.Date.Validate(), ev.Text)
	}
}

func TestExtractor_ProcessIsRepeatable(t *testing.T) {
	extractor := newTestExtractor(t)

	first := extractor.Process(romeDocument())
	second := extractor.Process(romeDocument())

	require.Equal(t, len(first.Events), len(second.Events))
	seen := make(map[string]bool)
	for i := range first.Events {
		assert.Equal(t, first.Events[i].ID, second.Events[i].ID)
		assert.Equal(t, first.Events[i].Date, second.Events[i].Date)
		assert.False(t, seen[first.Events[i].ID], "duplicate event id")
		seen[first.Events[i].ID] = true
	}
}

func TestExtractor_TableStartResetsRowspan(t *testing.T) {
	doc := &model.Document{
		Title: "Timeline of the 16th century",
		Blocks: []model.Block{
			model.TableStart(),
			model.Row(model.Cell{Text: "1516", RowSpan: 3}, model.Cell{Text: "Treaty"}),
			model.TableStart(),
			model.Row(model.Cell{}, model.Cell{Text: "Unrelated"}),
		},
	}

	result := newTestExtractor(t).Process(doc)

	require.Len(t, result.Events, 2)
	unrelated := result.Events[1]
	assert.Equal(t, model.OriginSection, unrelated.Origin, "row-span must not leak into the next table")
	assert.Equal(t, 1501, unrelated.Date.SignedStart())
	assert.Equal(t, 1600, unrelated.Date.SignedEnd())
	assert.Empty(t, unrelated.Section)
}

func TestExtractor_NestedListHeadingsUnwind(t *testing.T) {
	doc := &model.Document{
		Title: "Timeline",
		Blocks: []model.Block{
			model.Heading("1848", model.BodyLevel),
			model.Fragment("Revolutions in Europe").At(model.BodyLevel + 1),
			model.Fragment("Something undated").At(model.BodyLevel),
		},
	}

	result := newTestExtractor(t).Process(doc)

	require.Len(t, result.Events, 1)
	assert.Equal(t, 1848, result.Events[0].Date.SignedStart())
	assert.Equal(t, []string{"1848"}, result.Events[0].Section)
	require.Len(t, result.Dropped, 1)
	assert.Equal(t, "Something undated", result.Dropped[0].Text)
	assert.Empty(t, result.Dropped[0].Section)
}

func TestExtractor_DetachedHeading(t *testing.T) {
	doc := &model.Document{
		Blocks: []model.Block{
			{Kind: model.BlockFragment, Text: "Railways reach the valley", Heading: "1850s"},
		},
	}

	result := newTestExtractor(t).Process(doc)

	require.Len(t, result.Events, 1)
	ev := result.Events[0]
	assert.Equal(t, model.OriginSection, ev.Origin)
	assert.Equal(t, model.PrecisionDecade, ev.Date.Precision)
	assert.Equal(t, 1850, ev.Date.SignedStart())
	assert.Equal(t, 1859, ev.Date.SignedEnd())
	assert.Equal(t, []string{"1850s"}, ev.Section)
	assert.NotEmpty(t, ev.ID)
}

func TestRowText(t *testing.T) {
	assert.Equal(t, "Brutus; consul", rowText([]model.Cell{{Text: "509 BC"}, {Text: " Brutus "}, {}, {Text: "consul"}}))
	assert.Equal(t, "509 BC", rowText([]model.Cell{{Text: "509 BC"}}))
	assert.Equal(t, "", rowText(nil))
}

func TestExtractor_LeadingCountIsNotAYear(t *testing.T) {
	doc := &model.Document{
		Title: "Battle of Thermopylae (480 BC)",
		Blocks: []model.Block{
			model.Fragment("300 Spartans held the pass.").At(model.BodyLevel),
			model.Fragment("12 ships were lost").At(model.BodyLevel),
		},
	}

	result := newTestExtractor(t).Process(doc)

	require.Len(t, result.Events, 2)
	for _, ev := range result.Events {
		assert.Equal(t, model.OriginSection, ev.Origin, ev.Text)
		assert.Equal(t, model.ConfidenceInferred, ev.Date.Confidence, ev.Text)
		assert.Equal(t, -480, ev.Date.SignedStart(), ev.Text)
	}
}
