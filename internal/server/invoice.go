package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
)

func (s *Server) CreateInvoice(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		return
	}

	var req invoicedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.invoiceSvc.Create(c.Request.Context(), orgID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) FinalizeInvoice(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		return
	}

	finalized, err := s.invoiceSvc.Finalize(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, finalized)
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		return
	}

	found, err := s.invoiceSvc.GetByID(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (s *Server) ListInvoices(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		return
	}

	req := invoicedomain.ListInvoiceRequest{
		CreatedFrom: parseTimeQuery(c, "created_from"),
		CreatedTo:   parseTimeQuery(c, "created_to"),
		DueFrom:     parseTimeQuery(c, "due_from"),
		DueTo:       parseTimeQuery(c, "due_to"),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := invoicedomain.InvoiceStatus(strings.ToUpper(raw))
		req.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			req.Limit = limit
		}
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), orgID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func parseTimeQuery(c *gin.Context, key string) *time.Time {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}
