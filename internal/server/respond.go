package server

import (
	"fmt"
	"time"

	"github.com/compasshq/compass/internal/apperr"
	"github.com/gin-gonic/gin"
)

// dateLayout is the wire format for all roadmap dates.
const dateLayout = "2006-01-02"

// replyErr maps a core error onto its HTTP status with the actionable
// message intact.
func replyErr(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
}

// parseDate parses a YYYY-MM-DD wire date.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q, want YYYY-MM-DD", apperr.ErrValidation, s)
	}
	return t, nil
}
