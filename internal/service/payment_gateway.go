package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const purchaseMetadataKey = "purchaseId"

// StripeGateway Stripe Checkout 实现
type StripeGateway struct {
	API           *client.API
	WebhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		API:           client.New(secretKey, nil),
		WebhookSecret: webhookSecret,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	metadata := map[string]string{purchaseMetadataKey: req.PurchaseID}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.CourseTitle),
					},
					UnitAmount: stripe.Int64(int64(math.Round(req.Amount * 100))),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := g.API.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseEvent 验签并提取订单ID
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*PaymentEvent, error) {
	if g.WebhookSecret == "" {
		return nil, errors.New("webhook secret not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, err
	}
	return decodeStripeEvent(event)
}

func decodeStripeEvent(event stripe.Event) (*PaymentEvent, error) {
	out := &PaymentEvent{ID: event.ID, Type: PaymentEventType(event.Type)}
	if event.Data == nil {
		return nil, errors.New("event has no data")
	}

	var metadata map[string]string
	switch out.Type {
	case PaymentSessionCompleted, PaymentSessionExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		metadata = sess.Metadata
	case PaymentIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		metadata = pi.Metadata
	default:
		return out, nil
	}

	out.PurchaseID = metadata[purchaseMetadataKey]
	if out.PurchaseID == "" {
		return nil, fmt.Errorf("%s event %s has no %s metadata", out.Type, out.ID, purchaseMetadataKey)
	}
	return out, nil
}
