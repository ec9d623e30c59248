// Package subscription owns plans, the viewer's current subscription,
// and the checkout flow against the hosted payment provider.
package subscription

import (
	"context"
	"io"
	"log/slog"

	"github.com/rishta-app/rishta-client/internal/api"
	"github.com/rishta-app/rishta-client/internal/apperrors"
	"github.com/rishta-app/rishta-client/internal/model"
	"github.com/rishta-app/rishta-client/internal/payment"
	"github.com/rishta-app/rishta-client/internal/receipt"
	"github.com/rishta-app/rishta-client/internal/store"
)

type State struct {
	Plans       []model.Plan
	Current     *model.Subscription
	LastOrder   *model.Order
	LastPayment string
	Status      store.Status
}

type Slice struct {
	store *store.Store
	api   *api.Client
	log   *slog.Logger

	state State
}

func New(st *store.Store, client *api.Client, log *slog.Logger) *Slice {
	return &Slice{store: st, api: client, log: log}
}

// State returns a snapshot with copied plans and pointers.
func (s *Slice) State() State {
	var out State
	s.store.View(func() {
		out = s.state
		out.Plans = append([]model.Plan(nil), s.state.Plans...)
		if s.state.Current != nil {
			c := *s.state.Current
			out.Current = &c
		}
		if s.state.LastOrder != nil {
			o := *s.state.LastOrder
			out.LastOrder = &o
		}
	})
	return out
}

// GetPlans loads the purchasable tiers.
func (s *Slice) GetPlans(ctx context.Context) ([]model.Plan, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var plans []model.Plan
	if err := s.api.Get(ctx, "/subscriptions/plans", &plans); err != nil {
		msg := apperrors.Message(err, "Failed to load plans")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return nil, err
	}

	s.store.Commit(func() {
		s.state.Plans = plans
		s.state.Status.Done()
	})
	return plans, nil
}

// GetMySubscription loads the viewer's current subscription, if any.
func (s *Slice) GetMySubscription(ctx context.Context) (*model.Subscription, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var sub model.Subscription
	if err := s.api.Get(ctx, "/subscriptions/me", &sub); err != nil {
		msg := apperrors.Message(err, "Failed to load subscription")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return nil, err
	}

	s.store.Commit(func() {
		if sub.PlanID == "" {
			s.state.Current = nil
		} else {
			s.state.Current = &sub
		}
		s.state.Status.Done()
	})
	if sub.PlanID == "" {
		return nil, nil
	}
	return &sub, nil
}

// CreateOrder creates a checkout order for a plan. The returned order
// descriptor is what the hosted provider is invoked with.
func (s *Slice) CreateOrder(ctx context.Context, planID string) (model.Order, error) {
	if planID == "" {
		return model.Order{}, apperrors.Validation("Choose a plan first")
	}

	s.store.Commit(func() { s.state.Status.Begin() })

	var order model.Order
	if err := s.api.Post(ctx, "/subscriptions/orders", map[string]string{"planId": planID}, &order); err != nil {
		msg := apperrors.Message(err, "Failed to start checkout")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return model.Order{}, err
	}

	s.store.Commit(func() {
		s.state.LastOrder = &order
		s.state.Status.Done()
	})
	return order, nil
}

// StartCheckout hands the order to the hosted provider and wires the
// provider's callbacks: success verifies the payment with the backend,
// failure records the error in the slice.
func (s *Slice) StartCheckout(ctx context.Context, gw payment.Gateway, order model.Order) {
	gw.Checkout(order,
		func(paymentID string) {
			if _, err := s.VerifyPayment(ctx, order.ID, paymentID); err != nil {
				s.log.Error("payment verification failed", "order", order.ID, "err", err)
			}
		},
		func(err error) {
			msg := apperrors.Message(err, "Payment was not completed")
			s.store.Commit(func() { s.state.Status.Fail(msg) })
		},
	)
}

// VerifyPayment confirms a completed checkout with the backend and
// stores the activated subscription.
func (s *Slice) VerifyPayment(ctx context.Context, orderID, paymentID string) (model.Subscription, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var sub model.Subscription
	err := s.api.Post(ctx, "/subscriptions/verify", map[string]string{
		"orderId":   orderID,
		"paymentId": paymentID,
	}, &sub)
	if err != nil {
		msg := apperrors.Message(err, "Payment verification failed")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return model.Subscription{}, err
	}

	s.store.Commit(func() {
		s.state.Current = &sub
		s.state.LastPayment = paymentID
		if s.state.LastOrder != nil && s.state.LastOrder.ID == orderID {
			s.state.LastOrder.Status = "paid"
		}
		s.state.Status.Done()
	})
	s.log.Info("subscription activated", "plan", sub.PlanID)
	return sub, nil
}

// DownloadReceipt renders the receipt for the last verified payment.
// Purely local, no network call.
func (s *Slice) DownloadReceipt(w io.Writer, userName string) error {
	var (
		order     *model.Order
		current   *model.Subscription
		paymentID string
	)
	s.store.View(func() {
		if s.state.LastOrder != nil {
			o := *s.state.LastOrder
			order = &o
		}
		if s.state.Current != nil {
			c := *s.state.Current
			current = &c
		}
		paymentID = s.state.LastPayment
	})

	if order == nil || current == nil {
		return apperrors.Validation("No completed payment to download a receipt for")
	}

	return receipt.Write(w, receipt.Data{
		UserName:  userName,
		Order:     *order,
		Plan:      current.PlanName,
		PaidAt:    current.StartedAt,
		PaymentID: paymentID,
	})
}

// Reset drops cached subscription state, used on identity change.
func (s *Slice) Reset() {
	s.store.Commit(func() { s.state = State{} })
}
