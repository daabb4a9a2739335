// Package platform detecta qual plataforma (Hotmart, Kiwify, Eduzz) gerou um webhook
// e converte o payload num Event canônico. Não faz I/O.
package platform

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

var (
	ErrUnknownPlatform  = errors.New("unknown platform")
	ErrMissingProductID = errors.New("missing product id")
	ErrMalformedBody    = errors.New("malformed body")
)

type EventKind string

const (
	EventAbandonment EventKind = "abandonment"
	EventConversion  EventKind = "conversion"
	EventIgnored     EventKind = "ignored"
)

type Event struct {
	Platform          entity.Platform
	ExternalProductID string
	Email             string
	Phone             string
	Kind              EventKind
	RawEvent          string
	DisplayName       string
	Amount            *float64
	CheckoutURL       string
}

// Payload é o JSON cru do webhook, com números preservados como json.Number.
type Payload map[string]any

// Decode lê o corpo preservando números como texto, evitando perda de precisão
// e de zeros à esquerda em ids numéricos.
func Decode(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil || p == nil {
		return nil, ErrMalformedBody
	}
	return p, nil
}

type matcher struct {
	platform entity.Platform
	detect   func(Payload) bool
	extract  func(Payload) Event
}

// A ordem importa: o primeiro matcher que reconhecer o payload vence.
var matchers = []matcher{
	{platform: entity.PlatformHotmart, detect: isHotmart, extract: extractHotmart},
	{platform: entity.PlatformKiwify, detect: isKiwify, extract: extractKiwify},
	{platform: entity.PlatformEduzz, detect: isEduzz, extract: extractEduzz},
}

func Normalize(p Payload) (Event, error) {
	for _, m := range matchers {
		if !m.detect(p) {
			continue
		}
		ev := m.extract(p)
		ev.Platform = m.platform
		if ev.ExternalProductID == "" {
			return ev, ErrMissingProductID
		}
		return ev, nil
	}
	return Event{}, ErrUnknownPlatform
}

var nonDigits = regexp.MustCompile(`\D`)

func CleanPhoneNumber(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

// has indica presença da chave com valor não nulo.
func (p Payload) has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// str devolve o primeiro campo presente como string, sem coerção numérica.
func (p Payload) str(keys ...string) string {
	for _, k := range keys {
		switch v := p[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// amount aceita número ou string numérica; valores negativos são descartados.
func (p Payload) amount(keys ...string) *float64 {
	for _, k := range keys {
		var raw string
		switch v := p[k].(type) {
		case json.Number:
			raw = v.String()
		case string:
			raw = strings.TrimSpace(v)
		case float64:
			raw = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 {
			continue
		}
		return &f
	}
	return nil
}
