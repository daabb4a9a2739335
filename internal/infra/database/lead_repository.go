package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, client_id, product_id, name, email, phone, phone_normalized, value,
	checkout_url, status, conversation_log, created_at, updated_at`

// terminalStatuses alimenta a guarda "status <> ALL($n)".
func terminalStatuses() any {
	statuses := make([]string, len(entity.TerminalStatuses))
	for i, s := range entity.TerminalStatuses {
		statuses[i] = string(s)
	}
	return pq.Array(statuses)
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	log, err := encodeLog(lead.ConversationLog)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leads (id, client_id, product_id, name, email, phone, phone_normalized, value,
			checkout_url, status, conversation_log, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.ClientID,
		lead.ProductID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.PhoneNormalized,
		nullFloat(lead.Value),
		lead.CheckoutURL,
		string(lead.Status),
		log,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrActiveLeadExists
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return scanLead(r.DB.QueryRowContext(ctx, query, id))
}

func (r *LeadRepository) FindActive(ctx context.Context, clientID, productID, email string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads
		WHERE client_id = $1 AND product_id = $2 AND email = $3 AND status <> ALL($4)
		ORDER BY created_at DESC LIMIT 1`
	return scanLead(r.DB.QueryRowContext(ctx, query, clientID, productID, email, terminalStatuses()))
}

func (r *LeadRepository) FindLatestByPhone(ctx context.Context, clientID, phoneNormalized string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads
		WHERE phone_normalized = $1 AND ($2 = '' OR client_id = $2)
		ORDER BY created_at DESC LIMIT 1`
	return scanLead(r.DB.QueryRowContext(ctx, query, phoneNormalized, clientID))
}

// UpdateStatus só escreve em lead não terminal; zero linhas afetadas vira ErrLeadFinalized
// (ou ErrLeadNotFound se o lead não existe).
func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, status entity.LeadStatus) error {
	query := `UPDATE leads SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status <> ALL($3)`
	res, err := r.DB.ExecContext(ctx, query, string(status), id, terminalStatuses())
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	return r.checkGuard(ctx, res, id)
}

func (r *LeadRepository) ConvertActive(ctx context.Context, clientID, productID, email string) (int64, error) {
	query := `UPDATE leads SET status = $1, updated_at = NOW()
		WHERE client_id = $2 AND product_id = $3 AND email = $4 AND status <> ALL($5)`
	res, err := r.DB.ExecContext(ctx, query,
		string(entity.StatusConvertedOrganically), clientID, productID, email, terminalStatuses())
	if err != nil {
		return 0, fmt.Errorf("kill switch: %w", err)
	}
	return res.RowsAffected()
}

func (r *LeadRepository) SaveConversation(ctx context.Context, id string, entries []entity.ConversationEntry, status entity.LeadStatus) error {
	log, err := encodeLog(entries)
	if err != nil {
		return err
	}
	query := `UPDATE leads SET conversation_log = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND status <> ALL($4)`
	res, err := r.DB.ExecContext(ctx, query, log, string(status), id, terminalStatuses())
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return r.checkGuard(ctx, res, id)
}

// ExpireStale marca como failed os leads ainda aguardando criados antes de cutoff
// (job perdido numa queda da fila, por exemplo).
func (r *LeadRepository) ExpireStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := `UPDATE leads SET status = $1, updated_at = NOW()
		WHERE status = ANY($2) AND created_at < $3
		RETURNING id`
	awaiting := pq.Array([]string{string(entity.StatusPendingRecovery), string(entity.StatusQueued)})
	rows, err := r.DB.QueryContext(ctx, query, string(entity.StatusFailed), awaiting, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expire stale leads: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *LeadRepository) checkGuard(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return entity.ErrLeadNotFound
	}
	return entity.ErrLeadFinalized
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		lead   entity.Lead
		status string
		value  sql.NullFloat64
		log    []byte
	)
	err := row.Scan(
		&lead.ID,
		&lead.ClientID,
		&lead.ProductID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.PhoneNormalized,
		&value,
		&lead.CheckoutURL,
		&status,
		&log,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}

	lead.Status = entity.LeadStatus(status)
	if value.Valid {
		v := value.Float64
		lead.Value = &v
	}
	lead.ConversationLog = []entity.ConversationEntry{}
	if len(log) > 0 {
		if err := json.Unmarshal(log, &lead.ConversationLog); err != nil {
			return nil, fmt.Errorf("conversation_log inválido: %w", err)
		}
	}
	return &lead, nil
}

func encodeLog(entries []entity.ConversationEntry) ([]byte, error) {
	if entries == nil {
		entries = []entity.ConversationEntry{}
	}
	return json.Marshal(entries)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
