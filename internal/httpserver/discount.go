package httpserver

import (
	"net/http"

	"shopbasket/internal/domain"

	"github.com/gin-gonic/gin"
)

// getDiscount answers 200 with a "No Discount" placeholder for unknown products.
func (h *handlers) getDiscount(c *gin.Context) {
	coupon, err := h.discount.Get(c.Request.Context(), c.Param("productName"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

func (h *handlers) createDiscount(c *gin.Context) {
	var in domain.Coupon
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	coupon, err := h.discount.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

func (h *handlers) updateDiscount(c *gin.Context) {
	var in domain.Coupon
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	coupon, err := h.discount.Update(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

func (h *handlers) deleteDiscount(c *gin.Context) {
	deleted, err := h.discount.Delete(c.Request.Context(), c.Param("productName"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
