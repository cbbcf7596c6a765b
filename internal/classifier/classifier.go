// Package classifier scores images against the moderation categories.
//
// A backend turns raw detector output into Labels and moderation scores;
// Evaluate folds them into a Result with the shared threshold and keyword
// heuristics, so every backend reports the same shape.
package classifier

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// Moderation categories
const (
	CategoryViolence         = "violence"
	CategoryNudity           = "nudity"
	CategoryHateSymbols      = "hate_symbols"
	CategorySelfHarm         = "self_harm"
	CategoryExtremistContent = "extremist_content"
)

// Categories lists every category reported in a Result
var Categories = []string{
	CategoryViolence,
	CategoryNudity,
	CategoryHateSymbols,
	CategorySelfHarm,
	CategoryExtremistContent,
}

// UnsafeThreshold is the score at which a category marks an image unsafe
const UnsafeThreshold = 0.7

// MaxLabels is the number of labels reported in a Result
const MaxLabels = 5

// ErrEmptyImage is returned when Classify receives no bytes
var ErrEmptyImage = errors.New("image is empty")

// Classifier scores an encoded image
type Classifier interface {
	Classify(ctx context.Context, image []byte) (*Result, error)
}

// Result is the classification outcome returned to API callers
type Result struct {
	Safe       bool               `json:"safe"`
	Categories map[string]float64 `json:"categories"`
	Confidence float64            `json:"confidence"`
	Labels     []string           `json:"labels"`
}

// Label is a generic detector label with a score in [0, 1]
type Label struct {
	Name  string
	Score float64
}

// Indicator keywords matched (case-insensitively, as substrings) against generic labels
var (
	hateIndicators      = []string{"hate", "symbol", "flag", "gesture", "sign"}
	selfHarmIndicators  = []string{"self-harm", "suicide", "cut", "wound", "blood"}
	extremistIndicators = []string{"weapon", "terrorism", "extremist", "radical", "protest"}
)

// Evaluate builds a Result from direct moderation scores and generic labels.
// Keyword heuristics only raise a category score, never lower it.
func Evaluate(scores map[string]float64, labels []Label) *Result {
	categories := make(map[string]float64, len(Categories))
	for _, c := range Categories {
		categories[c] = clamp(scores[c])
	}

	raise(categories, CategoryHateSymbols, keywordScore(labels, hateIndicators))
	raise(categories, CategorySelfHarm, keywordScore(labels, selfHarmIndicators))
	raise(categories, CategoryExtremistContent, keywordScore(labels, extremistIndicators))

	maxScore := 0.0
	safe := true
	for _, score := range categories {
		if score > maxScore {
			maxScore = score
		}
		if score >= UnsafeThreshold {
			safe = false
		}
	}

	return &Result{
		Safe:       safe,
		Categories: categories,
		Confidence: 1 - maxScore,
		Labels:     topLabels(labels, MaxLabels),
	}
}

// keywordScore returns the best score among labels matching any indicator
func keywordScore(labels []Label, indicators []string) float64 {
	best := 0.0
	for _, l := range labels {
		name := strings.ToLower(l.Name)
		for _, ind := range indicators {
			if strings.Contains(name, ind) {
				if l.Score > best {
					best = l.Score
				}
				break
			}
		}
	}
	return clamp(best)
}

func raise(categories map[string]float64, category string, score float64) {
	if score > categories[category] {
		categories[category] = score
	}
}

// topLabels returns up to n label names, highest score first
func topLabels(labels []Label, n int) []string {
	sorted := make([]Label, len(labels))
	copy(sorted, labels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	names := make([]string, 0, n)
	for _, l := range sorted {
		if len(names) == n {
			break
		}
		names = append(names, l.Name)
	}
	return names
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
