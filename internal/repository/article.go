package repository

import (
	"context"

	"blog-api/internal/domain"
)

// ArticleRepository exposes persistence operations for Article records.
type ArticleRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, article *domain.Article) (int64, error)
	// Update persists the mutable fields (title, body, status) and bumps
	// updated_at. created_at and user_id are never written back.
	Update(ctx context.Context, article *domain.Article) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Article, error)
	List(ctx context.Context) ([]domain.Article, error)
}
