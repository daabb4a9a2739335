package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	r "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CounterStore conta requisições numa janela fixa por identidade do chamador.
// Criado uma vez por processo e injetado no roteador.
type CounterStore interface {
	// Incr soma 1 ao contador da janela atual e devolve o total e quanto falta para a janela virar.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type visitor struct {
	count     int64
	lastReset time.Time
}

type MemoryCounterStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (s *MemoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	v, ok := s.visitors[key]
	if !ok || now.Sub(v.lastReset) >= window {
		v = &visitor{lastReset: now}
		s.visitors[key] = v
	}
	v.count++
	return v.count, window - now.Sub(v.lastReset), nil
}

// Cleanup remove contadores velhos até o ctx ser cancelado.
func (s *MemoryCounterStore) Cleanup(ctx context.Context, window time.Duration) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(window)
		}
	}
}

func (s *MemoryCounterStore) sweep(window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, v := range s.visitors {
		if now.Sub(v.lastReset) > window*2 {
			delete(s.visitors, key)
		}
	}
}

// RedisCounterStore compartilha os contadores entre réplicas da API.
type RedisCounterStore struct {
	rdb    *r.Client
	prefix string
	now    func() time.Time
}

func NewRedisCounterStore(rdb *r.Client) *RedisCounterStore {
	return &RedisCounterStore{rdb: rdb, prefix: "rate:limit", now: time.Now}
}

func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := s.now()
	slot := now.UnixMilli() / window.Milliseconds()
	k := fmt.Sprintf("%s:%s:%d", s.prefix, key, slot)

	pipe := s.rdb.Pipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	resetAt := time.UnixMilli((slot + 1) * window.Milliseconds())
	return incr.Val(), resetAt.Sub(now), nil
}

type rateLimitedResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

// RateLimit aplica o limite por IP. Falha do store não bloqueia o webhook.
func RateLimit(store CounterStore, limit int, window time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			count, resetIn, err := store.Incr(req.Context(), ClientIP(req), window)
			if err != nil {
				logger.Warn("rate limit indisponível", zap.Error(err))
				next.ServeHTTP(w, req)
				return
			}

			remaining := int64(limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(limit) {
				retryAfter := int(math.Ceil(resetIn.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				RecordRateLimited()
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(rateLimitedResponse{
					Error:      "rate_limited",
					Message:    "Too many requests. Please try again later.",
					RetryAfter: retryAfter,
				})
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}

// ClientIP usa o primeiro X-Forwarded-For, depois X-Real-IP, depois o RemoteAddr.
func ClientIP(req *http.Request) string {
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := req.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		return host
	}
	return req.RemoteAddr
}
