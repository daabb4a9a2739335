package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var ErrNoOperator = errors.New("operator email not configured")

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from, operator string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		Operator: operator,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

// NotifyLeadFailed avisa que a IA desistiu do lead (tentativas esgotadas ou ação manual).
func (s *EmailSender) NotifyLeadFailed(ctx context.Context, lead *entity.Lead, reason string) error {
	data := alertData(lead)
	data.Reason = reason
	subject := fmt.Sprintf("Lead %s não recuperado", displayName(lead))
	return s.send(ctx, "lead_failed.html", subject, data)
}

func (s *EmailSender) NotifyLeadEscalated(ctx context.Context, lead *entity.Lead) error {
	subject := fmt.Sprintf("Lead %s precisa de atendimento humano", displayName(lead))
	return s.send(ctx, "lead_escalated.html", subject, alertData(lead))
}

func (s *EmailSender) send(ctx context.Context, tmpl, subject string, data LeadAlertData) error {
	if s.Operator == "" {
		return ErrNoOperator
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return fmt.Errorf("erro ao processar template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.Operator)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}
	return nil
}

func alertData(lead *entity.Lead) LeadAlertData {
	data := LeadAlertData{
		LeadID:      lead.ID,
		Name:        displayName(lead),
		Email:       lead.Email,
		Phone:       lead.Phone,
		Status:      string(lead.Status),
		CheckoutURL: lead.CheckoutURL,
	}
	for i := len(lead.ConversationLog) - 1; i >= 0; i-- {
		if lead.ConversationLog[i].Role == entity.RoleUser {
			data.LastMessage = lead.ConversationLog[i].Content
			break
		}
	}
	return data
}

func displayName(lead *entity.Lead) string {
	if lead.Name != "" {
		return lead.Name
	}
	return lead.Email
}
