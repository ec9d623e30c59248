// Package payment models the third-party hosted checkout. The provider
// is invoked with an order descriptor and client-supplied success and
// failure callbacks; the actual payment UI lives outside this codebase.
package payment

import (
	"log/slog"

	"github.com/rishta-app/rishta-client/internal/model"
)

// Gateway is the hosted checkout collaborator. Implementations call
// exactly one of onSuccess (with the provider's payment id) or
// onFailure.
type Gateway interface {
	Checkout(order model.Order, onSuccess func(paymentID string), onFailure func(err error))
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(order model.Order, onSuccess func(paymentID string), onFailure func(err error))

func (f GatewayFunc) Checkout(order model.Order, onSuccess func(paymentID string), onFailure func(err error)) {
	f(order, onSuccess, onFailure)
}

// LoggingGateway is a stand-in provider for development builds: it
// approves every order immediately with a synthetic payment id.
type LoggingGateway struct {
	Log *slog.Logger
}

func (g *LoggingGateway) Checkout(order model.Order, onSuccess func(paymentID string), onFailure func(err error)) {
	if g.Log != nil {
		g.Log.Info("checkout (dev gateway)", "order", order.ID, "amount", order.AmountPaise, "currency", order.Currency)
	}
	onSuccess("dev_pay_" + order.ID)
}
