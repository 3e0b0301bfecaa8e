// Package payment wraps the Stripe API behind a small provider
// interface so the checkout and confirmation services stay free of
// SDK types and can be tested against fakes.
package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// Session is the provider-neutral view of a checkout session.
type Session struct {
	ID       string // provider session identifier
	IntentID string // provider payment-intent identifier, if any
	URL      string // hosted payment page to redirect the customer to
	Paid     bool   // whether the provider reports the session as paid
}

// CreateSessionParams carries everything needed to open a payment
// session for one booking.  The amount is whole francs; conversion to
// the provider's minor unit happens here and nowhere else.
type CreateSessionParams struct {
	BookingID     string
	Description   string
	AmountCHF     int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Provider is implemented by the Stripe client below and by fakes in
// tests.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, p CreateSessionParams) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
}

// Client talks to Stripe with its own API key; no package-global key
// is set so tests and tools can construct independent clients.
type Client struct {
	api           *client.API
	webhookSecret string
}

// New returns a Client using the given secret API key and webhook
// signing secret.
func New(secretKey, webhookSecret string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api, webhookSecret: webhookSecret}
}

// CreateCheckoutSession opens a hosted checkout session scoped to the
// booking's exact amount.  The booking id travels both as the client
// reference and in metadata so the webhook can always be correlated
// with a booking row.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CreateSessionParams) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		ClientReferenceID: stripe.String(p.BookingID),
		CustomerEmail:     stripe.String(p.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyCHF)),
				UnitAmount: stripe.Int64(p.AmountCHF * 100), // francs -> rappen
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(p.Description),
				},
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", p.BookingID)

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("create checkout session: %w", err)
	}
	return fromStripeSession(sess), nil
}

// GetSession fetches the authoritative state of a session from the
// provider.  Used by the client confirmation poll.
func (c *Client) GetSession(ctx context.Context, id string) (Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := c.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return Session{}, fmt.Errorf("get checkout session: %w", err)
	}
	return fromStripeSession(sess), nil
}

func fromStripeSession(sess *stripe.CheckoutSession) Session {
	s := Session{
		ID:   sess.ID,
		URL:  sess.URL,
		Paid: sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
	if sess.PaymentIntent != nil {
		s.IntentID = sess.PaymentIntent.ID
	}
	return s
}

// WebhookEvent is the provider-neutral view of a webhook notification
// after signature verification and payload extraction.
type WebhookEvent struct {
	ID        string // provider event id, used for deduplication
	Type      string // provider event type, e.g. "checkout.session.completed"
	BookingID string // booking the event refers to, if any
	SessionID string // checkout-session id carried in the payload
	IntentID  string // payment-intent id carried in the payload
	Paid      bool   // whether the payload reports the session as paid
}

// SessionCompleted reports whether this event confirms a paid checkout
// session; only those trigger the reconciliation flow.
func (e WebhookEvent) SessionCompleted() bool {
	return e.Type == "checkout.session.completed" && e.Paid
}

// VerifyWebhook checks the notification's signature against the shared
// webhook secret and extracts the session payload.  It fails closed:
// any signature mismatch or malformed payload returns an error and the
// caller must reject the request without touching state.
func (c *Client) VerifyWebhook(payload []byte, sigHeader string) (WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return WebhookEvent{}, err
	}
	return eventFromStripe(event)
}

func eventFromStripe(event stripe.Event) (WebhookEvent, error) {
	out := WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != "checkout.session.completed" {
		return out, nil
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode session payload: %w", err)
	}
	out.SessionID = sess.ID
	out.Paid = sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
	out.BookingID = sess.ClientReferenceID
	if out.BookingID == "" {
		out.BookingID = sess.Metadata["booking_id"]
	}
	if sess.PaymentIntent != nil {
		out.IntentID = sess.PaymentIntent.ID
	}
	return out, nil
}
