package platform

// Hotmart

func isHotmart(p Payload) bool {
	return p.has("hottok") || p.has("hotmart_id")
}

func extractHotmart(p Payload) Event {
	phone := p.str("phone_number", "phone")
	if code := p.str("phone_local_code"); code != "" && phone != "" {
		phone = code + phone
	}

	raw := p.str("event")
	kind := EventIgnored
	switch raw {
	case "PURCHASE_APPROVED":
		kind = EventConversion
	case "CART_ABANDONMENT":
		kind = EventAbandonment
	}

	return Event{
		ExternalProductID: p.str("prod", "product_id"),
		Email:             p.str("email"),
		Phone:             phone,
		Kind:              kind,
		RawEvent:          raw,
		DisplayName:       p.str("name", "first_name"),
		Amount:            p.amount("price", "amount"),
		CheckoutURL:       p.str("checkout_url"),
	}
}

// Kiwify

func isKiwify(p Payload) bool {
	return p.has("order_id") && p.has("product_id")
}

func extractKiwify(p Payload) Event {
	raw := p.str("status")
	kind := EventIgnored
	switch raw {
	case "paid":
		kind = EventConversion
	case "waiting_payment":
		kind = EventAbandonment
	}

	return Event{
		ExternalProductID: p.str("product_id"),
		Email:             p.str("email"),
		Phone:             p.str("mobile", "phone"),
		Kind:              kind,
		RawEvent:          raw,
		DisplayName:       p.str("name"),
		Amount:            p.amount("amount", "price"),
		CheckoutURL:       p.str("checkout_url"),
	}
}

// Eduzz

func isEduzz(p Payload) bool {
	return p.has("trans_cod")
}

// Só o status "3" (pago) é mapeado. Reembolso/chargeback ficam de fora por enquanto.
func extractEduzz(p Payload) Event {
	raw := p.str("trans_status")
	kind := EventIgnored
	if raw == "3" {
		kind = EventConversion
	}

	return Event{
		ExternalProductID: p.str("product_cod"),
		Email:             p.str("cus_email", "email"),
		Phone:             p.str("cus_cel"),
		Kind:              kind,
		RawEvent:          raw,
		DisplayName:       p.str("cus_name", "name"),
		Amount:            p.amount("trans_value", "amount"),
		CheckoutURL:       p.str("checkout_url"),
	}
}
