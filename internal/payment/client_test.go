package payment

import (
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

const testSecret = "whsec_test_secret"

func signedHeader(at time.Time, payload []byte, secret string) string {
	sig := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func completedPayload() []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"api_version": %q,
		"data": {
			"object": {
				"id": "cs_1",
				"client_reference_id": "0f8fad5b-d9cb-469f-a165-70867728950e",
				"payment_status": "paid",
				"payment_intent": "pi_1"
			}
		}
	}`, stripe.APIVersion))
}

func TestVerifyWebhookAcceptsSignedPayload(t *testing.T) {
	c := New("sk_test_123", testSecret)
	payload := completedPayload()

	ev, err := c.VerifyWebhook(payload, signedHeader(time.Now(), payload, testSecret))
	require.NoError(t, err)

	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, "checkout.session.completed", ev.Type)
	assert.Equal(t, "cs_1", ev.SessionID)
	assert.Equal(t, "pi_1", ev.IntentID)
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", ev.BookingID)
	assert.True(t, ev.SessionCompleted())
}

func TestVerifyWebhookRejectsTamperedPayload(t *testing.T) {
	c := New("sk_test_123", testSecret)
	payload := completedPayload()
	header := signedHeader(time.Now(), payload, testSecret)

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = ' '
	_, err := c.VerifyWebhook(tampered, header)
	assert.Error(t, err)
}

func TestVerifyWebhookRejectsWrongSecret(t *testing.T) {
	c := New("sk_test_123", testSecret)
	payload := completedPayload()

	_, err := c.VerifyWebhook(payload, signedHeader(time.Now(), payload, "whsec_other"))
	assert.Error(t, err)
}

func TestVerifyWebhookRejectsStaleTimestamp(t *testing.T) {
	c := New("sk_test_123", testSecret)
	payload := completedPayload()

	_, err := c.VerifyWebhook(payload, signedHeader(time.Now().Add(-time.Hour), payload, testSecret))
	assert.Error(t, err)
}

func TestVerifyWebhookFallsBackToMetadataBookingID(t *testing.T) {
	c := New("sk_test_123", testSecret)
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_2",
		"type": "checkout.session.completed",
		"api_version": %q,
		"data": {
			"object": {
				"id": "cs_2",
				"payment_status": "paid",
				"metadata": {"booking_id": "b-meta"}
			}
		}
	}`, stripe.APIVersion))

	ev, err := c.VerifyWebhook(payload, signedHeader(time.Now(), payload, testSecret))
	require.NoError(t, err)
	assert.Equal(t, "b-meta", ev.BookingID)
}

func TestOtherEventTypesAreNotCompleted(t *testing.T) {
	c := New("sk_test_123", testSecret)
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_3",
		"type": "charge.refunded",
		"api_version": %q,
		"data": {"object": {}}
	}`, stripe.APIVersion))

	ev, err := c.VerifyWebhook(payload, signedHeader(time.Now(), payload, testSecret))
	require.NoError(t, err)
	assert.False(t, ev.SessionCompleted())
}
