package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

type ProductRepository struct {
	DB *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{DB: db}
}

const productColumns = `id, client_id, platform, external_product_id, name, agent_persona,
	objection_handling, downsell_link, delay_minutes, is_active, created_at, updated_at, deleted_at`

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND deleted_at IS NULL`
	return scanProduct(r.DB.QueryRowContext(ctx, query, id))
}

// FindByExternalID devolve também produtos inativos/removidos; o ProductRegistry decide.
func (r *ProductRepository) FindByExternalID(ctx context.Context, clientID string, platform entity.Platform, externalProductID string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		WHERE client_id = $1 AND platform = $2 AND external_product_id = $3
		ORDER BY deleted_at NULLS FIRST, is_active DESC
		LIMIT 1`
	return scanProduct(r.DB.QueryRowContext(ctx, query, clientID, string(platform), externalProductID))
}

// Create é usado pelo seed de desenvolvimento; o cadastro real vem do painel.
func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, client_id, platform, external_product_id, name, agent_persona,
			objection_handling, downsell_link, delay_minutes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query,
		p.ID, p.ClientID, string(p.Platform), p.ExternalProductID, p.Name, p.AgentPersona,
		p.ObjectionHandling, p.DownsellLink, p.DelayMinutes, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var (
		p         entity.Product
		platform  string
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&p.ID,
		&p.ClientID,
		&platform,
		&p.ExternalProductID,
		&p.Name,
		&p.AgentPersona,
		&p.ObjectionHandling,
		&p.DownsellLink,
		&p.DelayMinutes,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
		&deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Platform = entity.Platform(platform)
	if deletedAt.Valid {
		t := deletedAt.Time
		p.DeletedAt = &t
	}
	return &p, nil
}
