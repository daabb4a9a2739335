package uazapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

var ErrNotConfigured = errors.New("uazapi não configurada")

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// SendText faz uma única tentativa. Retentativa é responsabilidade do job de recuperação.
func (c *Client) SendText(ctx context.Context, instanceKey, phone, text string) error {
	input := SendTextInput{InstanceName: instanceKey, Number: phone, Text: text}

	if _, err := c.post(ctx, "/message/text", input); err != nil {
		c.logger.Error("falha ao enviar mensagem", zap.String("phone", phone), zap.Error(err))
		return err
	}

	c.logger.Info("mensagem enviada", zap.String("phone", phone), zap.String("instance", instanceKey))
	return nil
}

// InitInstance cria a instância se ela ainda não existir.
func (c *Client) InitInstance(ctx context.Context, instanceKey string) error {
	_, err := c.post(ctx, "/instance/init", instanceRequest{InstanceName: instanceKey})
	return err
}

// Connect devolve o QR code (base64) para parear o WhatsApp.
func (c *Client) Connect(ctx context.Context, instanceKey string) (string, error) {
	body, err := c.post(ctx, "/instance/connect", instanceRequest{InstanceName: instanceKey})
	if err != nil {
		return "", err
	}

	var resp ConnectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("uazapi: resposta inválida do connect: %w", err)
	}
	return resp.Base64, nil
}

// Status consulta o estado da instância; só "open" conta como conectado.
func (c *Client) Status(ctx context.Context, instanceKey string) (entity.InstanceStatus, error) {
	if c.baseURL == "" {
		return "", ErrNotConfigured
	}

	endpoint := c.baseURL + "/instance/status?instanceName=" + url.QueryEscape(instanceKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.apiKey)

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var resp StatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("uazapi: resposta inválida do status: %w", err)
	}
	if resp.Instance.State == "open" {
		return entity.InstanceConnected, nil
	}
	return entity.InstanceDisconnected, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("uazapi: erro ao serializar payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uazapi: erro de conexão: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("uazapi: status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// Text extrai o texto de conversation ou extendedTextMessage.
func (m *InboundMessage) Text() string {
	if m == nil || m.Message == nil {
		return ""
	}
	if m.Message.Conversation != "" {
		return m.Message.Conversation
	}
	if m.Message.ExtendedTextMessage != nil {
		return m.Message.ExtendedTextMessage.Text
	}
	return ""
}

// Phone remove o sufixo do JID (@s.whatsapp.net).
func (m *InboundMessage) Phone() string {
	if m == nil {
		return ""
	}
	jid := m.Key.RemoteJid
	if i := strings.Index(jid, "@"); i >= 0 {
		jid = jid[:i]
	}
	return jid
}
