package fetcher

import (
	"time"

	"github.com/google/uuid"

	"github.com/voterpulse/sentinel/internal/domain"
)

// demoSeeds are templates for placeholder content served in demo mode.
// They cover the major category and sentiment paths so downstream
// stages have something meaningful to exercise.
var demoSeeds = []struct {
	title string
	body  string
}{
	{
		title: "[DEMO] Residents protest over broken roads and waterlogged streets",
		body:  "Demonstrators gathered outside the municipal office complaining about potholes, poor drainage and repeated waterlogging in low lying wards.",
	},
	{
		title: "[DEMO] Recruitment exam paper leak triggers corruption allegations",
		body:  "Candidates allege a scam in the staff selection examination after question papers surfaced online, demanding an inquiry into the bribe network.",
	},
	{
		title: "[DEMO] New district hospital wing inaugurated, doctors welcome the move",
		body:  "The expanded facility adds beds and diagnostic equipment. Health workers called the development a welcome improvement for patients.",
	},
	{
		title: "[DEMO] Farmers raise concerns over delayed crop insurance payouts",
		body:  "Farmer groups say insurance compensation for crop losses has been pending for months and warn of escalating agitation if dues remain unpaid.",
	},
}

// demoItems builds deterministic placeholder content for a request.
// Titles carry the [DEMO] marker so nothing here can be mistaken for a
// live result.
func demoItems(sourceKey string, req Request) []*domain.ContentItem {
	n := req.MaxItems
	if n <= 0 || n > len(demoSeeds) {
		n = len(demoSeeds)
	}

	now := time.Now().UTC()
	items := make([]*domain.ContentItem, 0, n)
	for i := 0; i < n; i++ {
		seed := demoSeeds[i]
		item := &domain.ContentItem{
			ID:             uuid.NewString(),
			SourceSystem:   sourceKey,
			SourceName:     "demo",
			ConstituencyID: req.ConstituencyID,
			Title:          seed.title,
			Text:           seed.body,
			Language:       "en",
			PublishedAt:    now.Add(-time.Duration(i) * time.Hour),
			IngestedAt:     now,
		}
		item.ContentHash = item.Hash()
		items = append(items, item)
	}
	return items
}
