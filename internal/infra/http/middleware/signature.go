package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const HottokHeader = "X-Hotmart-Hottok"

// maxWebhookBody limita o corpo lido na verificação.
const maxWebhookBody = 1 << 20

// VerifySignature confere o hottok do corpo e o HMAC-SHA256 do header contra o segredo.
// Cada verificação só roda quando o dado está presente; sem segredo tudo passa.
func VerifySignature(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBody))
			if err != nil {
				writeUnauthorized(w)
				return
			}
			req.Body.Close()
			req.Body = io.NopCloser(bytes.NewReader(body))

			if token, ok := bodyHottok(body); ok && !equal(token, secret) {
				logger.Warn("hottok inválido", zap.String("path", req.URL.Path))
				writeUnauthorized(w)
				return
			}

			if sig := req.Header.Get(HottokHeader); sig != "" && !equal(sig, Sign(secret, body)) {
				logger.Warn("assinatura HMAC inválida", zap.String("path", req.URL.Path))
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}

// Sign devolve o HMAC-SHA256 do corpo em hex.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// bodyHottok devolve o hottok do corpo quando ele é "verdadeiro" (não nulo, não vazio,
// não zero, não false). Valor que não é string volta com ok=true e nunca bate com o segredo.
func bodyHottok(body []byte) (token string, ok bool) {
	var payload struct {
		Hottok any `json:"hottok"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}
	switch v := payload.Hottok.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case bool:
		return "", v
	case float64:
		return "", v != 0
	default:
		return "", true
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "invalid_signature"})
}
