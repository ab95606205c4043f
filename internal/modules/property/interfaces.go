package property

import (
	"context"

	"rentara/internal/domain"
	"rentara/internal/repository"
)

type PropertyRepository interface {
	Create(ctx context.Context, p *domain.Property) error
	GetByID(ctx context.Context, id int64) (*domain.Property, error)
	Update(ctx context.Context, p *domain.Property) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f repository.PropertyFilter) ([]domain.Property, error)
	SetVerified(ctx context.Context, id int64, verified bool) error
}
