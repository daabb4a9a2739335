package agent

import (
	"strconv"
	"strings"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

const (
	DefaultAgentName         = "Assistant"
	DefaultPersona           = "Friendly and helpful"
	DefaultObjectionHandling = "Focus on the value delivered"
	DefaultDownsell          = "Not available"
	PriceNotInformed         = "not informed"
	DefaultLeadName          = "Customer"
	DefaultProductName       = "Product"
)

const systemPromptTemplate = `
You are a sales recovery specialist for the product {product_name}.
Your name is {agent_name}.

CONTEXT:
The customer {lead_name} started the checkout but did not finish it.
Checkout link: {checkout_url}
Product price: {product_price}

YOUR MISSION:
Politely find out why the customer did not buy and try to turn it around.
Sales technique: Empathy -> Probing -> Solution.

BEHAVIOUR GUIDELINES:
- Persona: {agent_persona}
- Objection handling: {objection_handling}
- Downsell link (OFFER ONLY IF THE OBJECTION IS PRICE): {downsell_link}

STRICT RULES:
1. Short, natural answers for WhatsApp (max 2 sentences).
2. NEVER make up information that is not here.
3. If the customer says they already bought, congratulate them and end the conversation.
4. If the customer is rude or asks you to stop, apologise and end the conversation.
5. Wait for the customer's answer before sending the next piece of information.
`

// PromptConfig reúne tudo que entra no system prompt. Campos vazios recebem default.
type PromptConfig struct {
	ProductName       string
	AgentName         string
	LeadName          string
	CheckoutURL       string
	Price             *float64
	Persona           string
	ObjectionHandling string
	DownsellLink      string
}

func NewPromptConfig(product *entity.Product, lead *entity.Lead) PromptConfig {
	checkout := lead.CheckoutURL
	if checkout == "" {
		checkout = product.ExternalProductID
	}
	return PromptConfig{
		ProductName:       product.Name,
		LeadName:          lead.Name,
		CheckoutURL:       checkout,
		Price:             lead.Value,
		Persona:           product.AgentPersona,
		ObjectionHandling: product.ObjectionHandling,
		DownsellLink:      product.DownsellLink,
	}
}

// BuildSystemPrompt substitui todos os placeholders numa única passada, então um valor
// que contenha "{lead_name}" não é substituído de novo.
func BuildSystemPrompt(cfg PromptConfig) string {
	r := strings.NewReplacer(
		"{product_name}", orDefault(cfg.ProductName, DefaultProductName),
		"{agent_name}", orDefault(cfg.AgentName, DefaultAgentName),
		"{lead_name}", orDefault(cfg.LeadName, DefaultLeadName),
		"{checkout_url}", cfg.CheckoutURL,
		"{product_price}", formatPrice(cfg.Price),
		"{agent_persona}", orDefault(cfg.Persona, DefaultPersona),
		"{objection_handling}", orDefault(cfg.ObjectionHandling, DefaultObjectionHandling),
		"{downsell_link}", orDefault(cfg.DownsellLink, DefaultDownsell),
	)
	return r.Replace(systemPromptTemplate)
}

// FallbackMessage é usada quando o modelo falha ou responde vazio.
func FallbackMessage(leadName, productName string) string {
	return "Hello " + orDefault(leadName, DefaultLeadName) +
		", I noticed you didn't complete the purchase of " + orDefault(productName, DefaultProductName) + "."
}

// Preço vai cru (sem formatação de moeda).
func formatPrice(v *float64) string {
	if v == nil {
		return PriceNotInformed
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
