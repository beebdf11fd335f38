package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/invopay/internal/analytics"
	analyticsdomain "github.com/smallbiznis/invopay/internal/analytics/domain"
	"github.com/smallbiznis/invopay/internal/config"
	"github.com/smallbiznis/invopay/internal/invoice"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
	"github.com/smallbiznis/invopay/internal/observability"
	obsmiddleware "github.com/smallbiznis/invopay/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invopay/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invopay/internal/observability/tracing"
	"github.com/smallbiznis/invopay/internal/payment"
	paymentdomain "github.com/smallbiznis/invopay/internal/payment/domain"
	"github.com/smallbiznis/invopay/internal/ratelimit"
	receiptdomain "github.com/smallbiznis/invopay/internal/receipt/domain"
	"github.com/smallbiznis/invopay/internal/verification"
	verificationdomain "github.com/smallbiznis/invopay/internal/verification/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	invoice.Module,
	payment.Module,
	analytics.Module,
	verification.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	invoiceSvc      invoicedomain.Service
	paymentSvc      paymentdomain.Service
	receiptSvc      receiptdomain.Service
	verificationSvc verificationdomain.Service
	analyticsSvc    analyticsdomain.Service
	verifyLimiter   *ratelimit.Limiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	InvoiceSvc      invoicedomain.Service
	PaymentSvc      paymentdomain.Service
	ReceiptSvc      receiptdomain.Service
	VerificationSvc verificationdomain.Service
	AnalyticsSvc    analyticsdomain.Service
	VerifyLimiter   *ratelimit.Limiter
	ObsMetrics      *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		invoiceSvc:      p.InvoiceSvc,
		paymentSvc:      p.PaymentSvc,
		receiptSvc:      p.ReceiptSvc,
		verificationSvc: p.VerificationSvc,
		analyticsSvc:    p.AnalyticsSvc,
		verifyLimiter:   p.VerifyLimiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerPublicRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.OrgContext())

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.POST("/invoices/:id/finalize", s.FinalizeInvoice)

	// -------- Payments --------
	api.POST("/payments", s.RecordPayment)

	// -------- Receipts --------
	api.GET("/receipts/:id", s.GetReceiptByID)

	// -------- Analytics --------
	api.GET("/analytics/overview", s.GetAnalyticsOverview)
}

// Public endpoints serve anonymous traffic and share one rate limiter;
// every response body on these routes is masked.
func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/", s.VerifyRateLimit())

	public.GET("/v/:hash", s.VerifyReceipt)
	public.GET("/r/:number", s.GetPublicReceipt)
}
