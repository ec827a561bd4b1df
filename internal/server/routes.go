package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, gapThreshold float64) {
	api := router.Group("/api")

	api.GET("/health", handleHealth())

	api.POST("/customers", handleCustomerCreate(db))
	api.GET("/customers", handleCustomerList(db))
	api.GET("/customers/:id", handleCustomerGet(db))
	api.GET("/customers/:id/health", handleCustomerHealth(db))

	api.GET("/templates", handleTemplateList(db))
	api.GET("/templates/:id", handleTemplateGet(db))
	api.POST("/templates/:id/clone", handleTemplateClone(db))
	api.POST("/templates/:id/promote", handleTemplatePromote(db))
	api.GET("/templates/:id/audit", handleTemplateAudit(db))
	api.POST("/dimensions/:id/questions", handleQuestionAdd(db))
	api.PATCH("/questions/:id", handleQuestionEdit(db))
	api.DELETE("/questions/:id", handleQuestionDelete(db))

	api.POST("/assessments", handleAssessmentStart(db))
	api.GET("/assessments/:id", handleAssessmentGet(db))
	api.PUT("/assessments/:id/answers/:question_id", handleAnswerSet(db))
	api.POST("/assessments/:id/complete", handleAssessmentComplete(db))
	api.GET("/assessments/:id/report", handleAssessmentReport(db))
	api.GET("/customers/:id/flow-visualization", handleFlowVisualization(db, gapThreshold))

	api.POST("/assessments/:id/recommendations/generate", handleRecommendationGenerate(db, gapThreshold))
	api.POST("/recommendations/:id/accept", handleRecommendationAccept(db))
	api.PATCH("/recommendations/:id", handleRecommendationUpdate(db))

	api.GET("/customers/:id/roadmap", handleRoadmapList(db))
	api.POST("/customers/:id/roadmap", handleRoadmapCreate(db))
	api.PATCH("/roadmap/items/:id", handleRoadmapPatch(db))
	api.POST("/roadmap/items/:id/dependencies", handleDepAdd(db))
	api.DELETE("/roadmap/items/:id/dependencies/:dep_id", handleDepRemove(db))

	api.GET("/events", handleSSE(db))
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
