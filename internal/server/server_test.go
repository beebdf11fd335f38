package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	analyticsservice "github.com/smallbiznis/invopay/internal/analytics/service"
	"github.com/smallbiznis/invopay/internal/clock"
	invoicedomain "github.com/smallbiznis/invopay/internal/invoice/domain"
	invoiceservice "github.com/smallbiznis/invopay/internal/invoice/service"
	paymentdomain "github.com/smallbiznis/invopay/internal/payment/domain"
	paymentservice "github.com/smallbiznis/invopay/internal/payment/service"
	"github.com/smallbiznis/invopay/internal/ratelimit"
	receiptdomain "github.com/smallbiznis/invopay/internal/receipt/domain"
	receiptservice "github.com/smallbiznis/invopay/internal/receipt/service"
	verificationservice "github.com/smallbiznis/invopay/internal/verification/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testOrg = "42"

func newTestServer(t *testing.T, rateLimit int) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.LineItem{},
		&paymentdomain.Payment{},
		&receiptdomain.Receipt{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	sysClock := clock.NewSystemClock()

	receiptSvc := receiptservice.NewService(receiptservice.ServiceParam{
		DB:    db,
		Log:   log,
		GenID: node,
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine: engine,
		db:     db,
		genID:  node,
		invoiceSvc: invoiceservice.NewService(invoiceservice.ServiceParam{
			DB:    db,
			Log:   log,
			GenID: node,
		}),
		paymentSvc: paymentservice.NewService(paymentservice.ServiceParam{
			DB:         db,
			Log:        log,
			GenID:      node,
			ReceiptSvc: receiptSvc,
		}),
		receiptSvc: receiptSvc,
		verificationSvc: verificationservice.NewService(verificationservice.ServiceParam{
			DB:  db,
			Log: log,
		}),
		analyticsSvc: analyticsservice.NewService(analyticsservice.ServiceParam{
			DB:    db,
			Log:   log,
			Clock: sysClock,
		}),
		verifyLimiter: ratelimit.NewLimiter(
			ratelimit.NewMemoryStore(sysClock), sysClock, log,
			rateLimit, time.Minute, time.Minute,
		),
	}
	srv.registerAPIRoutes()
	srv.registerPublicRoutes()
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, org, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if org != "" {
		req.Header.Set(HeaderOrg, org)
	}
	resp := httptest.NewRecorder()
	srv.engine.ServeHTTP(resp, req)
	return resp
}

func decodeBody[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

const createInvoiceBody = `{
	"currency": "GHS",
	"issuer_name": "Kente Studio",
	"issuer_email": "billing@kente.example",
	"issuer_phone": "+233200000111",
	"customer_name": "Ama Mensah",
	"customer_email": "ama@example.com",
	"customer_phone": "+233201234567",
	"line_items": [
		{"label": "Consulting", "quantity": "2", "unit_amount": 5000, "tax_rate_bps": 500}
	]
}`

func createAndFinalizeInvoice(t *testing.T, srv *Server) invoicedomain.Invoice {
	t.Helper()

	resp := doRequest(t, srv, http.MethodPost, "/api/invoices", testOrg, createInvoiceBody)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	invoice := decodeBody[invoicedomain.Invoice](t, resp)

	resp = doRequest(t, srv, http.MethodPost, "/api/invoices/"+invoice.ID.String()+"/finalize", testOrg, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decodeBody[invoicedomain.Invoice](t, resp)
}

func recordPayment(t *testing.T, srv *Server, invoice invoicedomain.Invoice) paymentdomain.RecordPaymentResult {
	t.Helper()

	body := `{
		"invoice_id": "` + invoice.ID.String() + `",
		"amount": ` + strconv.FormatInt(invoice.TotalAmount, 10) + `,
		"method": "MOBILE_MONEY"
	}`
	resp := doRequest(t, srv, http.MethodPost, "/api/payments", testOrg, body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeBody[paymentdomain.RecordPaymentResult](t, resp)
}

func TestInvoiceLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t, 100)

	resp := doRequest(t, srv, http.MethodPost, "/api/invoices", testOrg, createInvoiceBody)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	invoice := decodeBody[invoicedomain.Invoice](t, resp)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, invoice.Status)
	// 2 x 5000 plus 5% tax.
	assert.Equal(t, int64(10500), invoice.TotalAmount)

	resp = doRequest(t, srv, http.MethodPost, "/api/invoices/"+invoice.ID.String()+"/finalize", testOrg, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	finalized := decodeBody[invoicedomain.Invoice](t, resp)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, finalized.Status)

	result := recordPayment(t, srv, finalized)
	assert.Equal(t, string(invoicedomain.InvoiceStatusPaid), result.InvoiceStatus)
	assert.Equal(t, int64(0), result.BalanceDue)
	assert.NotEmpty(t, result.ReceiptHash)
	assert.True(t, strings.HasPrefix(result.ReceiptNumber, "RCT-"), result.ReceiptNumber)
}

func TestAPIRequiresOrgHeader(t *testing.T) {
	srv := newTestServer(t, 100)

	resp := doRequest(t, srv, http.MethodGet, "/api/invoices", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doRequest(t, srv, http.MethodGet, "/api/invoices", "not-a-number", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestOwnerReceiptViewIsUnmasked(t *testing.T) {
	srv := newTestServer(t, 100)
	invoice := createAndFinalizeInvoice(t, srv)
	result := recordPayment(t, srv, invoice)

	resp := doRequest(t, srv, http.MethodGet, "/api/receipts/"+result.ReceiptID.String(), testOrg, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	view := decodeBody[receiptResponse](t, resp)
	assert.Equal(t, "ama@example.com", view.Snapshot.Customer.Email)
	assert.Equal(t, "+233201234567", view.Snapshot.Customer.Phone)

	// Another organization never sees it.
	resp = doRequest(t, srv, http.MethodGet, "/api/receipts/"+result.ReceiptID.String(), "43", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPublicReceiptViewMasksParties(t *testing.T) {
	srv := newTestServer(t, 100)
	invoice := createAndFinalizeInvoice(t, srv)
	result := recordPayment(t, srv, invoice)

	resp := doRequest(t, srv, http.MethodGet, "/r/"+result.ReceiptNumber, "", "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	view := decodeBody[receiptResponse](t, resp)
	assert.Equal(t, "A*** M***", view.Snapshot.Customer.Name)
	assert.Equal(t, "am***@e***.com", view.Snapshot.Customer.Email)
	assert.Equal(t, "***4567", view.Snapshot.Customer.Phone)
	// Ledger amounts stay visible.
	assert.Equal(t, invoice.TotalAmount, view.Snapshot.Totals.TotalMinor)

	resp = doRequest(t, srv, http.MethodGet, "/r/RCT-DOESNOTEXIST", "", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestVerifyEndpoint(t *testing.T) {
	srv := newTestServer(t, 100)
	invoice := createAndFinalizeInvoice(t, srv)
	result := recordPayment(t, srv, invoice)

	// Full hash.
	resp := doRequest(t, srv, http.MethodGet, "/v/"+result.ReceiptHash, "", "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	verdict := decodeBody[verifyResponse](t, resp)
	require.True(t, verdict.Valid, resp.Body.String())
	require.NotNil(t, verdict.Match)
	assert.Equal(t, result.ReceiptNumber, verdict.Match.ReceiptNumber)
	assert.Equal(t, result.ReceiptHash, verdict.Match.Hash)
	assert.NotEmpty(t, verdict.Match.Algo)

	// Tail only, uppercase.
	tail := strings.ToUpper(result.ReceiptHash[len(result.ReceiptHash)-10:])
	verdict = decodeBody[verifyResponse](t, doRequest(t, srv, http.MethodGet, "/v/"+tail, "", ""))
	assert.True(t, verdict.Valid)

	// A miss is a 200 with valid=false, never an error status.
	resp = doRequest(t, srv, http.MethodGet, "/v/ffffffffffffffff", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	verdict = decodeBody[verifyResponse](t, resp)
	assert.False(t, verdict.Valid)
	assert.NotEmpty(t, verdict.Error)

	// Too-short codes get an explanation.
	resp = doRequest(t, srv, http.MethodGet, "/v/abc", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	verdict = decodeBody[verifyResponse](t, resp)
	assert.False(t, verdict.Valid)
	assert.Contains(t, verdict.Error, "too short")
}

func TestVerifyLegacyReceiptOverHTTP(t *testing.T) {
	srv := newTestServer(t, 100)
	invoice := createAndFinalizeInvoice(t, srv)
	result := recordPayment(t, srv, invoice)

	// Age the row back to before hashes were stored at write time.
	require.NoError(t, srv.db.Exec(
		`UPDATE receipts SET algo = '', hash = '', hash_tail = '' WHERE id = ?`,
		result.ReceiptID,
	).Error)

	resp := doRequest(t, srv, http.MethodGet, "/v/"+result.ReceiptHash, "", "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	verdict := decodeBody[verifyResponse](t, resp)
	require.True(t, verdict.Valid, resp.Body.String())
	require.NotNil(t, verdict.Match)

	// The response reports the recomputed fingerprint, not the empty
	// columns.
	assert.Equal(t, "sha256", verdict.Match.Algo)
	assert.Equal(t, result.ReceiptHash, verdict.Match.Hash)
	assert.Equal(t, result.ReceiptHash[len(result.ReceiptHash)-10:], verdict.Match.HashTail)
}

func TestVerifyEndpointRateLimited(t *testing.T) {
	srv := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		resp := doRequest(t, srv, http.MethodGet, "/v/ffffffffffffffff", "", "")
		require.Equal(t, http.StatusOK, resp.Code, "request %d", i)
	}

	resp := doRequest(t, srv, http.MethodGet, "/v/ffffffffffffffff", "", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))
}

func TestAnalyticsOverviewOverHTTP(t *testing.T) {
	srv := newTestServer(t, 100)
	invoice := createAndFinalizeInvoice(t, srv)
	recordPayment(t, srv, invoice)

	resp := doRequest(t, srv, http.MethodGet, "/api/analytics/overview", testOrg, "")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var overview struct {
		Currency       string `json:"currency"`
		CollectionRate int    `json:"collection_rate_pct"`
		OverdueCount   int    `json:"overdue_count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &overview))
	assert.Equal(t, 100, overview.CollectionRate)
	assert.Equal(t, 0, overview.OverdueCount)
}
