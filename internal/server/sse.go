package server

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/compasshq/compass/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// activityEvent holds data for a template-activity SSE event.
type activityEvent struct {
	ID         uint   `json:"id"`
	TemplateID string `json:"template_id"`
	Actor      string `json:"actor,omitempty"`
	Action     string `json:"action"`
	Detail     string `json:"detail,omitempty"`
}

// handleSSE streams template audit activity to connected clients by polling
// for new audit rows.
func handleSSE(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		// Only alert on activity newer than the connection.
		var lastSeenID uint
		var latest models.TemplateAudit
		if err := db.Order("id DESC").Limit(1).First(&latest).Error; err == nil {
			lastSeenID = latest.ID
		}

		ctx := c.Request.Context()
		ticker := time.NewTicker(3 * time.Second)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				var entries []models.TemplateAudit
				db.Where("id > ?", lastSeenID).Order("id ASC").Find(&entries)
				if len(entries) == 0 {
					continue
				}
				for _, e := range entries {
					writeSSE(c.Writer, "activity", activityEvent{
						ID:         e.ID,
						TemplateID: e.TemplateID,
						Actor:      e.Actor,
						Action:     e.Action,
						Detail:     e.Detail,
					})
					lastSeenID = e.ID
				}
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes one SSE event frame.
func writeSSE(w io.Writer, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
}
