package domain

import "errors"

var (
	ErrInvalidAmount    = errors.New("invalid_payment_amount")
	ErrInvalidMethod    = errors.New("invalid_payment_method")
	ErrCurrencyMismatch = errors.New("payment_currency_mismatch")
)
