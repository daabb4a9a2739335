package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

type InstanceRepository struct {
	DB *sql.DB
}

func NewInstanceRepository(db *sql.DB) *InstanceRepository {
	return &InstanceRepository{DB: db}
}

const instanceColumns = `id, client_id, instance_key, status, qr_code_base64, updated_at`

func (r *InstanceRepository) FindConnectedByClient(ctx context.Context, clientID string) (*entity.Instance, error) {
	query := `SELECT ` + instanceColumns + ` FROM instances WHERE client_id = $1 AND status = $2`
	return scanInstance(r.DB.QueryRowContext(ctx, query, clientID, string(entity.InstanceConnected)))
}

func (r *InstanceRepository) FindByClient(ctx context.Context, clientID string) (*entity.Instance, error) {
	query := `SELECT ` + instanceColumns + ` FROM instances WHERE client_id = $1`
	return scanInstance(r.DB.QueryRowContext(ctx, query, clientID))
}

func (r *InstanceRepository) FindByKey(ctx context.Context, instanceKey string) (*entity.Instance, error) {
	query := `SELECT ` + instanceColumns + ` FROM instances WHERE instance_key = $1`
	return scanInstance(r.DB.QueryRowContext(ctx, query, instanceKey))
}

// Upsert mantém uma instância por cliente.
func (r *InstanceRepository) Upsert(ctx context.Context, instance *entity.Instance) error {
	if instance.ID == "" {
		instance.ID = uuid.New().String()
	}
	query := `
		INSERT INTO instances (id, client_id, instance_key, status, qr_code_base64, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (client_id) DO UPDATE SET
			instance_key = EXCLUDED.instance_key,
			status = EXCLUDED.status,
			qr_code_base64 = EXCLUDED.qr_code_base64,
			updated_at = NOW()
		RETURNING id, updated_at
	`
	err := r.DB.QueryRowContext(ctx, query,
		instance.ID,
		instance.ClientID,
		instance.InstanceKey,
		string(instance.Status),
		instance.QRCodeBase64,
	).Scan(&instance.ID, &instance.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert instance: %w", err)
	}
	return nil
}

func (r *InstanceRepository) UpdateStatus(ctx context.Context, instanceKey string, status entity.InstanceStatus) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE instances SET status = $1, updated_at = NOW() WHERE instance_key = $2`,
		string(status), instanceKey)
	if err != nil {
		return fmt.Errorf("update instance status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrInstanceNotFound
	}
	return nil
}

func scanInstance(row rowScanner) (*entity.Instance, error) {
	var (
		i      entity.Instance
		status string
	)
	err := row.Scan(&i.ID, &i.ClientID, &i.InstanceKey, &status, &i.QRCodeBase64, &i.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrInstanceNotFound
	}
	if err != nil {
		return nil, err
	}
	i.Status = entity.InstanceStatus(status)
	return &i, nil
}
