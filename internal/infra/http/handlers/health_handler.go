package handlers

import (
	"context"
	"net/http"
	"time"
)

// Checker é uma dependência verificada pelo /health (banco, fila).
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapta uma função a Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	Database  Checker
	Queue     Checker
	StartTime time.Time
	now       func() time.Time
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    float64           `json:"uptime"`
}

func NewHealthHandler(database, queue Checker) *HealthHandler {
	return &HealthHandler{
		Database:  database,
		Queue:     queue,
		StartTime: time.Now(),
		now:       time.Now,
	}
}

// Handle (GET /health) devolve 503 se algum check falhar.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"app":      "ok",
		"database": check(ctx, h.Database),
		"queue":    check(ctx, h.Queue),
	}

	status := "healthy"
	for _, v := range checks {
		if v == "error" {
			status = "degraded"
			break
		}
	}

	now := h.now()
	response := HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: now.UTC(),
		Uptime:    now.Sub(h.StartTime).Round(time.Second).Seconds(),
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

func check(ctx context.Context, c Checker) string {
	if c == nil {
		return "not_configured"
	}
	if err := c.Ping(ctx); err != nil {
		return "error"
	}
	return "ok"
}
