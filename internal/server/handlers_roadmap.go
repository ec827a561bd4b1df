package server

import (
	"net/http"
	"time"

	"github.com/compasshq/compass/internal/models"
	"github.com/compasshq/compass/internal/roadmap"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func handleRoadmapList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := roadmap.List(db, c.Param("id"))
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func handleRoadmapCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Category   string `json:"category"`
			Title      string `json:"title" binding:"required"`
			StartDate  string `json:"start_date" binding:"required"`
			EndDate    string `json:"end_date" binding:"required"`
			SubQuarter string `json:"sub_quarter"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		start, err := parseDate(req.StartDate)
		if err != nil {
			replyErr(c, err)
			return
		}
		end, err := parseDate(req.EndDate)
		if err != nil {
			replyErr(c, err)
			return
		}

		item, err := roadmap.Create(db, roadmap.CreateOpts{
			CustomerID: c.Param("id"),
			Category:   req.Category,
			Title:      req.Title,
			StartDate:  start,
			EndDate:    end,
			SubQuarter: req.SubQuarter,
		})
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

// handleRoadmapPatch applies partial updates from drag/resize/reorder UI
// gestures: one date edits that edge, both dates replace the range, and
// display_order triggers a bucket renumber (category and quarter default to
// the item's own).
func handleRoadmapPatch(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			StartDate    *string `json:"start_date"`
			EndDate      *string `json:"end_date"`
			DisplayOrder *int    `json:"display_order"`
			SubQuarter   *string `json:"sub_quarter"`
			Status       *string `json:"status"`
			Category     string  `json:"category"`
			Quarter      string  `json:"quarter"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id := c.Param("id")

		var start, end time.Time
		if req.StartDate != nil {
			var err error
			if start, err = parseDate(*req.StartDate); err != nil {
				replyErr(c, err)
				return
			}
		}
		if req.EndDate != nil {
			var err error
			if end, err = parseDate(*req.EndDate); err != nil {
				replyErr(c, err)
				return
			}
		}

		// All requested edits commit together: a rejected status change
		// (or any other failing edit) rolls back the date edits too.
		err := db.Transaction(func(tx *gorm.DB) error {
			switch {
			case req.StartDate != nil && req.EndDate != nil:
				if _, err := roadmap.SetRange(tx, id, start, end); err != nil {
					return err
				}
			case req.StartDate != nil:
				if _, err := roadmap.Resize(tx, id, roadmap.EdgeStart, start); err != nil {
					return err
				}
			case req.EndDate != nil:
				if _, err := roadmap.Resize(tx, id, roadmap.EdgeEnd, end); err != nil {
					return err
				}
			}

			if req.DisplayOrder != nil {
				category, quarter := req.Category, req.Quarter
				if category == "" || quarter == "" {
					item, err := roadmap.Get(tx, id)
					if err != nil {
						return err
					}
					if category == "" {
						category = item.Category
					}
					if quarter == "" {
						quarter = roadmap.QuarterOf(item.StartDate)
					}
				}
				if err := roadmap.Reorder(tx, id, *req.DisplayOrder, category, quarter); err != nil {
					return err
				}
			}

			if req.SubQuarter != nil {
				if err := roadmap.SetSubQuarter(tx, id, *req.SubQuarter); err != nil {
					return err
				}
			}

			if req.Status != nil {
				if err := roadmap.SetStatus(tx, id, *req.Status); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			replyErr(c, err)
			return
		}

		item, err := roadmap.Get(db, id)
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func handleDepAdd(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DependsOn string `json:"depends_on" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := roadmap.AddDep(db, c.Param("id"), req.DependsOn); err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.RoadmapDep{
			ItemID:    c.Param("id"),
			DependsOn: req.DependsOn,
		})
	}
}

func handleDepRemove(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := roadmap.RemoveDep(db, c.Param("id"), c.Param("dep_id")); err != nil {
			replyErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
