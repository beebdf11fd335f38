package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/invopay/internal/observability/context"
	"github.com/smallbiznis/invopay/internal/orgcontext"
)

// HeaderOrg carries the acting organization. Authentication lives in
// front of this service; by the time a request reaches us the header is
// trusted.
const HeaderOrg = "X-Org-ID"

// OrgContext resolves the acting organization from the request header
// and injects it into the request context.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderOrg))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		orgID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := orgcontext.WithOrgID(c.Request.Context(), orgID)
		ctx = obscontext.WithOrgID(ctx, orgID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) orgID(c *gin.Context) (snowflake.ID, bool) {
	orgID, ok := orgcontext.OrgIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return 0, false
	}
	return orgID, true
}

// VerifyRateLimit bounds anonymous lookups per client address.
func (s *Server) VerifyRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.verifyLimiter == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		decision := s.verifyLimiter.Allow(c.Request.Context(), c.ClientIP())
		if !decision.Allowed {
			s.obsMetrics.RecordRateLimitDenied(c.Request.Context(), route)
			retryAfter := int(decision.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}
		s.obsMetrics.RecordRateLimitAllowed(c.Request.Context(), route)
		c.Next()
	}
}
