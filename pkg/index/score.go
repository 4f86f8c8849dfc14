package index

import (
	"math"
	"strings"
	"time"

	"github.com/kittclouds/gosearch/internal/store"
)

// Relevance heuristics. These are literal-match and recency signals, not
// semantic ranking: an id hit outweighs a tag hit, single-word queries
// are treated as more intentional, and the recency bonus decays to zero
// after twenty days.
const (
	idMatchBonus     = 5.0
	tagMatchBonus    = 3.0
	singleWordBonus  = 1.0
	recencyMaxBonus  = 2.0
	recencyDailyLoss = 0.1
)

func relevanceScore(query string, content *store.SearchableContent, now time.Time) float64 {
	q := strings.ToLower(query)
	score := 0.0

	if strings.Contains(strings.ToLower(content.ID), q) {
		score += idMatchBonus
	}

	for _, tag := range content.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			score += tagMatchBonus
		}
	}

	if !strings.Contains(strings.TrimSpace(query), " ") {
		score += singleWordBonus
	}

	daysOld := now.Sub(time.UnixMilli(content.CreatedAt)).Hours() / 24
	score += math.Max(0, recencyMaxBonus-daysOld*recencyDailyLoss)

	return score
}

// deriveTitle builds a display title without exposing stored text.
func deriveTitle(content *store.SearchableContent) string {
	if content.ContentType == store.ContentIdea {
		return "Idea (" + time.UnixMilli(content.CreatedAt).Format("1/2/2006") + ")"
	}
	if len(content.Tags) > 0 {
		return "Note in " + content.Tags[0]
	}
	return "Knowledge Base Entry"
}

func truncatePreview(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return text
}
