package httpserver

import (
	"net/http"

	"shopbasket/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type handlers struct {
	logger   logrus.FieldLogger
	basket   BasketService
	catalog  CatalogService
	discount DiscountService
}

func (h *handlers) getBasket(c *gin.Context) {
	cart, err := h.basket.Get(c.Request.Context(), c.Param("userName"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toBasketResponse(*cart))
}

func (h *handlers) updateBasket(c *gin.Context) {
	var in domain.Cart
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	cart, err := h.basket.Update(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toBasketResponse(*cart))
}

func (h *handlers) deleteBasket(c *gin.Context) {
	if err := h.basket.Delete(c.Request.Context(), c.Param("userName")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusOK)
}
