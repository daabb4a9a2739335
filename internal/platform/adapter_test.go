package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

func decode(t *testing.T, body string) Payload {
	t.Helper()
	p, err := Decode([]byte(body))
	require.NoError(t, err)
	return p
}

func TestNormalizeHotmartAbandonment(t *testing.T) {
	p := decode(t, `{
		"hottok": "test-hottok-123",
		"prod": "python-pro-01",
		"email": "carlos@email.com",
		"phone_number": "11999999999",
		"phone_local_code": "55",
		"event": "CART_ABANDONMENT",
		"name": "Carlos Silva",
		"price": 297.0,
		"checkout_url": "https://pay.hotmart.com/checkout/abc123"
	}`)

	ev, err := Normalize(p)
	require.NoError(t, err)

	assert.Equal(t, entity.PlatformHotmart, ev.Platform)
	assert.Equal(t, "python-pro-01", ev.ExternalProductID)
	assert.Equal(t, "carlos@email.com", ev.Email)
	assert.Equal(t, "5511999999999", ev.Phone)
	assert.Equal(t, EventAbandonment, ev.Kind)
	assert.Equal(t, "Carlos Silva", ev.DisplayName)
	require.NotNil(t, ev.Amount)
	assert.Equal(t, 297.0, *ev.Amount)
	assert.Equal(t, "https://pay.hotmart.com/checkout/abc123", ev.CheckoutURL)
}

func TestNormalizeEventKinds(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		platform entity.Platform
		kind     EventKind
	}{
		{"hotmart purchase", `{"hotmart_id":"h1","product_id":"p1","event":"PURCHASE_APPROVED","email":"a@b.com"}`, entity.PlatformHotmart, EventConversion},
		{"hotmart other event", `{"hottok":"t","prod":"p1","event":"PURCHASE_REFUNDED"}`, entity.PlatformHotmart, EventIgnored},
		{"kiwify paid", `{"order_id":"o1","product_id":"p1","status":"paid"}`, entity.PlatformKiwify, EventConversion},
		{"kiwify waiting", `{"order_id":"o1","product_id":"p1","status":"waiting_payment","mobile":"21988888888"}`, entity.PlatformKiwify, EventAbandonment},
		{"kiwify refused", `{"order_id":"o1","product_id":"p1","status":"refused"}`, entity.PlatformKiwify, EventIgnored},
		{"eduzz paid", `{"trans_cod":"e1","product_cod":"ebook","trans_status":"3","cus_email":"m@e.com"}`, entity.PlatformEduzz, EventConversion},
		{"eduzz refund", `{"trans_cod":"e1","product_cod":"ebook","trans_status":"7"}`, entity.PlatformEduzz, EventIgnored},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Normalize(decode(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.platform, ev.Platform)
			assert.Equal(t, tt.kind, ev.Kind)
		})
	}
}

func TestNormalizeDetectionOrder(t *testing.T) {
	// hottok vence order_id + product_id
	ev, err := Normalize(decode(t, `{"hottok":"t","order_id":"o1","product_id":"p1","event":"CART_ABANDONMENT"}`))
	require.NoError(t, err)
	assert.Equal(t, entity.PlatformHotmart, ev.Platform)

	// order_id sem product_id não é Kiwify
	_, err = Normalize(decode(t, `{"order_id":"o1","status":"paid"}`))
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestNormalizeFailures(t *testing.T) {
	_, err := Normalize(decode(t, `{"random":"data","no_platform_markers":true}`))
	assert.ErrorIs(t, err, ErrUnknownPlatform)

	_, err = Normalize(decode(t, `{}`))
	assert.ErrorIs(t, err, ErrUnknownPlatform)

	ev, err := Normalize(decode(t, `{"hottok":"t","event":"CART_ABANDONMENT"}`))
	assert.ErrorIs(t, err, ErrMissingProductID)
	assert.Equal(t, entity.PlatformHotmart, ev.Platform)
}

func TestNormalizeKeepsNumericIDsAsText(t *testing.T) {
	ev, err := Normalize(decode(t, `{"hotmart_id":1,"prod":12345678901234567890,"event":"CART_ABANDONMENT"}`))
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567890", ev.ExternalProductID)
}

func TestNormalizeDropsNegativeAmount(t *testing.T) {
	ev, err := Normalize(decode(t, `{"order_id":"o1","product_id":"p1","status":"waiting_payment","amount":-10}`))
	require.NoError(t, err)
	assert.Nil(t, ev.Amount)
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, body := range []string{"not json", "", "[1,2]", "null"} {
		_, err := Decode([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedBody, body)
	}
}

func TestCleanPhoneNumber(t *testing.T) {
	assert.Equal(t, "5511999999999", CleanPhoneNumber("+55 (11) 99999-9999"))
	assert.Equal(t, "", CleanPhoneNumber("anonymous"))
}
