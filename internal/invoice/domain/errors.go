package domain

import "errors"

var (
	ErrNotFound            = errors.New("invoice_not_found")
	ErrInvalidInvoiceID    = errors.New("invalid_invoice_id")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidCurrency     = errors.New("invalid_currency")
	ErrNoLineItems         = errors.New("invalid_line_items")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidTaxRate      = errors.New("invalid_tax_rate")
	ErrInvalidDueDate      = errors.New("invalid_due_date")
	ErrNotDraft            = errors.New("invoice_not_draft")
	ErrNotPayable          = errors.New("invoice_not_payable")
)
