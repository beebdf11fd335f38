package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetAnalyticsOverview(c *gin.Context) {
	orgID, ok := s.orgID(c)
	if !ok {
		return
	}

	overview, err := s.analyticsSvc.Overview(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
