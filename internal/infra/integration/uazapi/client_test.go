package uazapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

func TestSendText(t *testing.T) {
	var got SendTextInput

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/message/text", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("apikey"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"key":{"id":"ABC"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "key-123", zap.NewNop())
	err := client.SendText(context.Background(), "instance_client-1", "5511999999999", "Oi!")

	require.NoError(t, err)
	assert.Equal(t, SendTextInput{InstanceName: "instance_client-1", Number: "5511999999999", Text: "Oi!"}, got)
}

func TestSendTextNon200IsFailure(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		err := NewClient(srv.URL, "k", zap.NewNop()).SendText(context.Background(), "i", "55", "oi")
		assert.Error(t, err, "status %d", status)
		srv.Close()
	}
}

func TestSendTextWithoutBaseURL(t *testing.T) {
	err := NewClient("", "k", zap.NewNop()).SendText(context.Background(), "i", "55", "oi")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestConnectReturnsQRCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instance/connect", r.URL.Path)
		w.Write([]byte(`{"base64":"data:image/png;base64,AAAA"}`))
	}))
	defer srv.Close()

	qr, err := NewClient(srv.URL, "k", zap.NewNop()).Connect(context.Background(), "instance_c1")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", qr)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		state    string
		expected entity.InstanceStatus
	}{
		{"open", entity.InstanceConnected},
		{"connecting", entity.InstanceDisconnected},
		{"close", entity.InstanceDisconnected},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "instance_c1", r.URL.Query().Get("instanceName"))
				w.Write([]byte(`{"instance":{"state":"` + tt.state + `"}}`))
			}))
			defer srv.Close()

			status, err := NewClient(srv.URL, "k", zap.NewNop()).Status(context.Background(), "instance_c1")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestInboundMessage(t *testing.T) {
	var hook InboundWebhook
	raw := `{"instanceName":"instance_c1","message":{"key":{"remoteJid":"5511999999999@s.whatsapp.net","fromMe":false},
		"message":{"extendedTextMessage":{"text":"tem desconto?"}}}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &hook))

	assert.Equal(t, "5511999999999", hook.Message.Phone())
	assert.Equal(t, "tem desconto?", hook.Message.Text())

	var empty *InboundMessage
	assert.Equal(t, "", empty.Text())
	assert.Equal(t, "", empty.Phone())
}
