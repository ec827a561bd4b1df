package server

import (
	"net/http"

	"github.com/compasshq/compass/internal/customer"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func handleCustomerCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string `json:"name" binding:"required"`
			Segment  string `json:"segment"`
			CSMOwner string `json:"csm_owner"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		cust, err := customer.Create(db, customer.CreateOpts{
			Name:     req.Name,
			Segment:  req.Segment,
			CSMOwner: req.CSMOwner,
		})
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, cust)
	}
}

func handleCustomerList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		customers, err := customer.List(db)
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"customers": customers})
	}
}

func handleCustomerGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cust, err := customer.Get(db, c.Param("id"))
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, cust)
	}
}

func handleCustomerHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rollup, err := customer.HealthRollup(db, c.Param("id"))
		if err != nil {
			replyErr(c, err)
			return
		}
		c.JSON(http.StatusOK, rollup)
	}
}
