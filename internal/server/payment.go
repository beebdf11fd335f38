package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/invopay/internal/payment/domain"
)

func (s *Server) RecordPayment(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		return
	}

	var req paymentdomain.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.paymentSvc.Record(c.Request.Context(), orgID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordPayment(c.Request.Context(), string(req.Method))

	c.JSON(http.StatusCreated, result)
}
