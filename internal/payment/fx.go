package payment

import (
	"github.com/smallbiznis/invopay/internal/payment/service"
	"github.com/smallbiznis/invopay/internal/receipt"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	receipt.Module,
	fx.Provide(service.NewService),
)
