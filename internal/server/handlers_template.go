package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/compasshq/compass/internal/apperr"
	"github.com/compasshq/compass/internal/template"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func handleTemplateList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tpls, err := template.List(db, c.Query("framework"))
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"templates": tpls})
	}
}

func handleTemplateGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tpl, err := template.Get(db, c.Param("id"))
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, tpl)
	}
}

func handleTemplateClone(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Version string `json:"version" binding:"required"`
			Actor   string `json:"actor"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		draft, err := template.CloneAsDraft(db, c.Param("id"), req.Version, req.Actor)
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, draft)
	}
}

func handleTemplatePromote(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Actor string `json:"actor"`
		}
		// Body is optional for promote.
		c.ShouldBindJSON(&req)

		if err := template.Promote(db, c.Param("id"), req.Actor); err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "active"})
	}
}

func handleTemplateAudit(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := template.AuditTrail(db, c.Param("id"))
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"audit": entries})
	}
}

func handleQuestionAdd(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dimensionID, err := parseUintParam(c, "id")
		if err != nil {
			replyErr(c, err)
			return
		}

		var req struct {
			Text     string `json:"text" binding:"required"`
			Position int    `json:"position"`
			Required *bool  `json:"required"`
			Rubric   []struct {
				Value       int    `json:"value"`
				Label       string `json:"label"`
				Description string `json:"description"`
				Evidence    string `json:"evidence"`
			} `json:"rubric"`
			Actor string `json:"actor"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		opts := template.QuestionOpts{
			Text:     req.Text,
			Position: req.Position,
			Required: req.Required == nil || *req.Required,
		}
		for _, r := range req.Rubric {
			opts.Rubric = append(opts.Rubric, template.RubricOpts{
				Value:       r.Value,
				Label:       r.Label,
				Description: r.Description,
				Evidence:    r.Evidence,
			})
		}

		q, err := template.AddQuestion(db, dimensionID, opts, req.Actor)
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, q)
	}
}

func handleQuestionEdit(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		questionID, err := parseUintParam(c, "id")
		if err != nil {
			replyErr(c, err)
			return
		}

		var req struct {
			Text     *string `json:"text"`
			Position *int    `json:"position"`
			Required *bool   `json:"required"`
			Actor    string  `json:"actor"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		warning, err := template.EditQuestion(db, questionID, template.QuestionPatch{
			Text:     req.Text,
			Position: req.Position,
			Required: req.Required,
		}, req.Actor)
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"active_template_warning": warning})
	}
}

func handleQuestionDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		questionID, err := parseUintParam(c, "id")
		if err != nil {
			replyErr(c, err)
			return
		}
		if err := template.DeleteQuestion(db, questionID, c.Query("actor")); err != nil {
			replyErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// parseUintParam parses a numeric path parameter.
func parseUintParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", apperr.ErrNotFound, c.Param(name))
	}
	return uint(v), nil
}
