package httpserver

import (
	"context"
	"errors"
	"net/http"

	"shopbasket/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type basketResponse struct {
	domain.Cart
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func toBasketResponse(c domain.Cart) basketResponse {
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	return basketResponse{Cart: c, TotalPrice: c.TotalPrice()}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto status codes. Server-side failures are logged
// and answered without detail.
func writeError(c *gin.Context, logger logrus.FieldLogger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrDiscountUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"status": status,
	})
	switch {
	case status >= http.StatusInternalServerError:
		entry.Error("request failed")
	default:
		entry.Debug("request rejected")
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
}
