package uazapi

type SendTextInput struct {
	InstanceName string `json:"instanceName"`
	Number       string `json:"number"` // Ex: "5511999999999"
	Text         string `json:"text"`
}

type instanceRequest struct {
	InstanceName string `json:"instanceName"`
}

type ConnectResponse struct {
	Base64 string `json:"base64"`
}

type StatusResponse struct {
	Instance struct {
		State string `json:"state"` // open, connecting, close
	} `json:"instance"`
}

// InboundWebhook é o payload que a UAZAPI envia quando chega uma mensagem.
type InboundWebhook struct {
	InstanceName string          `json:"instanceName"`
	Message      *InboundMessage `json:"message"`
}

type InboundMessage struct {
	Key struct {
		RemoteJid string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
		ID        string `json:"id"`
	} `json:"key"`
	Message *struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage *struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
	} `json:"message"`
}
