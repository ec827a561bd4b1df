// Package scoring computes maturity scores from assessment answers. All
// functions are pure; partial data never produces an error — undefined
// scores are represented as nil and excluded from aggregates.
package scoring

import (
	"math"

	"github.com/compasshq/compass/internal/models"
)

// DimensionScores returns the mean answered score per dimension. Unanswered
// questions are excluded from the mean. A dimension with no answered
// questions maps to nil.
func DimensionScores(template *models.AssessmentTemplate, answers []models.Answer) map[uint]*float64 {
	byQuestion := make(map[uint]*int, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Score
	}

	scores := make(map[uint]*float64, len(template.Dimensions))
	for _, dim := range template.Dimensions {
		sum, n := 0, 0
		for _, q := range dim.Questions {
			if s, ok := byQuestion[q.ID]; ok && s != nil {
				sum += *s
				n++
			}
		}
		if n == 0 {
			scores[dim.ID] = nil
			continue
		}
		v := float64(sum) / float64(n)
		scores[dim.ID] = &v
	}
	return scores
}

// OverallScore aggregates dimension scores into a single score. Dimensions
// with nil scores are excluded. When every contributing dimension carries a
// weight the mean is weighted; otherwise it is a simple mean. Returns nil
// when no dimension has a defined score.
func OverallScore(template *models.AssessmentTemplate, dimScores map[uint]*float64) *float64 {
	weighted := true
	for _, dim := range template.Dimensions {
		if dimScores[dim.ID] == nil {
			continue
		}
		if dim.Weight == nil {
			weighted = false
			break
		}
	}

	var sum, totalWeight float64
	n := 0
	for _, dim := range template.Dimensions {
		s := dimScores[dim.ID]
		if s == nil {
			continue
		}
		w := 1.0
		if weighted {
			w = *dim.Weight
		}
		sum += *s * w
		totalWeight += w
		n++
	}
	if n == 0 || totalWeight == 0 {
		return nil
	}
	v := sum / totalWeight
	return &v
}

// Round1 rounds a score to one decimal place for display. Full precision
// is retained internally for comparisons.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Color buckets a dimension score for rendering: red below 2.0, orange
// below 3.0, yellow below 4.0, green otherwise.
func Color(score float64) string {
	switch {
	case score < 2.0:
		return "red"
	case score < 3.0:
		return "orange"
	case score < 4.0:
		return "yellow"
	default:
		return "green"
	}
}
