package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

type ProductRegistry struct {
	Repo entity.ProductRepositoryInterface
}

func NewProductRegistry(repo entity.ProductRepositoryInterface) *ProductRegistry {
	return &ProductRegistry{Repo: repo}
}

// Resolve devolve entity.ErrProductNotConfigured quando o produto não existe para o
// cliente, está inativo ou foi removido. Qualquer outro erro é de infraestrutura.
func (r *ProductRegistry) Resolve(ctx context.Context, clientID string, platform entity.Platform, externalProductID string) (*entity.Product, error) {
	product, err := r.Repo.FindByExternalID(ctx, clientID, platform, externalProductID)
	if err != nil {
		if errors.Is(err, entity.ErrProductNotFound) {
			return nil, entity.ErrProductNotConfigured
		}
		return nil, fmt.Errorf("busca de produto: %w", err)
	}
	if !product.IsActive || product.DeletedAt != nil {
		return nil, entity.ErrProductNotConfigured
	}
	return product, nil
}
