package server

import (
	"net/http"
	"strconv"

	"github.com/compasshq/compass/internal/assessment"
	"github.com/compasshq/compass/internal/flowgraph"
	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/recommend"
	"github.com/compasshq/compass/internal/scoring"
	"github.com/compasshq/compass/internal/template"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func handleAssessmentStart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CustomerID string `json:"customer_id" binding:"required"`
			TemplateID string `json:"template_id"`
			Framework  string `json:"framework"`
			Assessor   string `json:"assessor"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		asm, err := assessment.Start(db, assessment.StartOpts{
			CustomerID: req.CustomerID,
			TemplateID: req.TemplateID,
			Framework:  req.Framework,
			Assessor:   req.Assessor,
		})
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, asm)
	}
}

func handleAssessmentGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		asm, err := assessment.Get(db, c.Param("id"))
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, asm)
	}
}

func handleAnswerSet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		questionID, err := parseUintParam(c, "question_id")
		if err != nil {
			replyErr(c, err)
			return
		}

		var req struct {
			Score    *int   `json:"score" binding:"required"`
			Notes    string `json:"notes"`
			Evidence string `json:"evidence"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err = assessment.SetAnswer(db, c.Param("id"), questionID, assessment.AnswerOpts{
			Score:    *req.Score,
			Notes:    req.Notes,
			Evidence: req.Evidence,
		})
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func handleAssessmentComplete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := assessment.Complete(db, c.Param("id")); err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": assessment.StatusCompleted})
	}
}

func handleAssessmentReport(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := assessment.BuildReport(db, c.Param("id"))
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func handleFlowVisualization(db *gorm.DB, defaultThreshold float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		framework := c.DefaultQuery("framework", "spm")
		threshold := defaultThreshold
		if raw := c.Query("threshold"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a positive number"})
				return
			}
			threshold = v
		}

		asm, err := assessment.LatestCompleted(db, c.Param("id"), framework)
		if err != nil {
			replyErr(c, err)
			return
		}
		tpl, err := template.Get(db, asm.TemplateID)
		if err != nil {
			replyErr(c, err)
			return
		}

		dimScores := scoring.DimensionScores(tpl, asm.Answers)

		dimIDs := make([]uint, 0, len(tpl.Dimensions))
		for _, d := range tpl.Dimensions {
			dimIDs = append(dimIDs, d.ID)
		}
		var dimUseCases []models.DimensionUseCase
		if err := db.Preload("UseCase").Where("dimension_id IN ?", dimIDs).
			Find(&dimUseCases).Error; err != nil {
			replyErr(c, err)
			return
		}
		var useCaseFeatures []models.UseCaseFeature
		if err := db.Preload("Feature").Find(&useCaseFeatures).Error; err != nil {
			replyErr(c, err)
			return
		}

		graph := flowgraph.Build(tpl.Dimensions, dimScores, threshold, dimUseCases, useCaseFeatures)
		counts := flowgraph.SummaryCounts(graph.Nodes)
		c.JSON(http.StatusOK, gin.H{
			"nodes":                       graph.Nodes,
			"links":                       graph.Links,
			"weak_dimensions_count":       counts.WeakDimensions,
			"recommended_use_cases_count": counts.RecommendedUseCases,
			"tp_features_count":           counts.TPFeatures,
		})
	}
}

func handleRecommendationGenerate(db *gorm.DB, defaultThreshold float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		threshold := defaultThreshold
		if raw := c.Query("threshold"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a positive number"})
				return
			}
			threshold = v
		}

		recs, err := recommend.Generate(db, c.Param("id"), threshold)
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"recommendations": recs, "created": len(recs)})
	}
}

func handleRecommendationAccept(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Quarter string `json:"quarter" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		item, err := recommend.Accept(db, c.Param("id"), req.Quarter)
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func handleRecommendationUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := recommend.SetStatus(db, c.Param("id"), req.Status); err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
