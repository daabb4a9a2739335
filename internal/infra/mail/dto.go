package mail

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Operator string
	dialer   dialer
}

// LeadAlertData alimenta os templates de alerta ao operador.
type LeadAlertData struct {
	LeadID      string
	Name        string
	Email       string
	Phone       string
	Status      string
	Reason      string
	CheckoutURL string
	LastMessage string
}
