package assessment

import (
	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/scoring"
	"github.com/compasshq/compass/internal/template"
	"gorm.io/gorm"
)

// Report is the full JSON report for one assessment.
type Report struct {
	AssessmentID    string                  `json:"assessment_id"`
	CustomerID      string                  `json:"customer_id"`
	TemplateID      string                  `json:"template_id"`
	Framework       string                  `json:"framework"`
	Status          string                  `json:"status"`
	OverallScore    *float64                `json:"overall_score"`
	DimensionScores map[string]*float64     `json:"dimension_scores"`
	Dimensions      []DimensionReport       `json:"dimensions"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

// DimensionReport is one dimension's detail in a report.
type DimensionReport struct {
	ID        uint             `json:"id"`
	Name      string           `json:"name"`
	Score     *float64         `json:"score"`
	Color     string           `json:"color,omitempty"`
	Questions []QuestionReport `json:"questions"`
}

// QuestionReport is one question's detail, including the rubric level the
// selected score landed on.
type QuestionReport struct {
	ID               uint   `json:"id"`
	Text             string `json:"text"`
	Required         bool   `json:"required"`
	Score            *int   `json:"score"`
	ScoreLabel       string `json:"score_label,omitempty"`
	ScoreDescription string `json:"score_description,omitempty"`
	ScoreEvidence    string `json:"score_evidence,omitempty"`
	Notes            string `json:"notes,omitempty"`
	Evidence         string `json:"evidence,omitempty"`
}

// BuildReport assembles the report for an assessment: overall and
// per-dimension scores (display-rounded, nil when undefined) plus
// question-level detail and recommendations.
func BuildReport(db *gorm.DB, assessmentID string) (*Report, error) {
	asm, err := Get(db, assessmentID)
	if err != nil {
		return nil, err
	}
	tpl, err := template.Get(db, asm.TemplateID)
	if err != nil {
		return nil, err
	}

	dimScores := scoring.DimensionScores(tpl, asm.Answers)
	overall := scoring.OverallScore(tpl, dimScores)

	answerByQuestion := make(map[uint]models.Answer, len(asm.Answers))
	for _, a := range asm.Answers {
		answerByQuestion[a.QuestionID] = a
	}

	report := &Report{
		AssessmentID:    asm.ID,
		CustomerID:      asm.CustomerID,
		TemplateID:      tpl.ID,
		Framework:       tpl.Framework,
		Status:          asm.Status,
		OverallScore:    roundPtr(overall),
		DimensionScores: make(map[string]*float64, len(tpl.Dimensions)),
		Recommendations: asm.Recommendations,
	}

	for _, dim := range tpl.Dimensions {
		score := dimScores[dim.ID]
		dr := DimensionReport{
			ID:    dim.ID,
			Name:  dim.Name,
			Score: roundPtr(score),
		}
		if score != nil {
			dr.Color = scoring.Color(*score)
		}
		for _, q := range dim.Questions {
			qr := QuestionReport{
				ID:       q.ID,
				Text:     q.Text,
				Required: q.Required,
			}
			if a, ok := answerByQuestion[q.ID]; ok {
				qr.Score = a.Score
				qr.Notes = a.Notes
				qr.Evidence = a.Evidence
				if a.Score != nil {
					for _, level := range q.Rubric {
						if level.Value == *a.Score {
							qr.ScoreLabel = level.Label
							qr.ScoreDescription = level.Description
							qr.ScoreEvidence = level.Evidence
							break
						}
					}
				}
			}
			dr.Questions = append(dr.Questions, qr)
		}
		report.Dimensions = append(report.Dimensions, dr)
		report.DimensionScores[dim.Name] = dr.Score
	}

	return report, nil
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := scoring.Round1(*v)
	return &r
}
