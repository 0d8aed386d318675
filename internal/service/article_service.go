package service

import (
	"context"
	"errors"
	"strings"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

var (
	// ErrArticleNotFound covers both a missing record and one hidden by the
	// visibility rule, so a read never reveals that someone else's draft exists.
	ErrArticleNotFound = errors.New("article not found")
	// ErrNotOwner is returned when an authenticated user tries to mutate an
	// article they do not own.
	ErrNotOwner = errors.New("not the article owner")
)

// ArticleInput is the payload for creating an article. Status and owner are
// not caller-controlled: new articles are always drafts owned by their author.
type ArticleInput struct {
	Title string
	Body  string
}

// ArticleUpdate is a partial update. Nil fields are left untouched. Only
// title, body and status are mutable; timestamps and ownership never are.
type ArticleUpdate struct {
	Title  *string
	Body   *string
	Status *string
}

// ArticleService coordinates article operations and enforces the visibility
// and ownership rules.
type ArticleService interface {
	Create(ctx context.Context, authorID int64, input ArticleInput) (*domain.Article, error)
	// Get and List take a nil viewerID for anonymous readers.
	Get(ctx context.Context, id int64, viewerID *int64) (*domain.Article, error)
	List(ctx context.Context, viewerID *int64) ([]domain.Article, error)
	Update(ctx context.Context, id int64, requesterID int64, input ArticleUpdate) (*domain.Article, error)
	Delete(ctx context.Context, id int64, requesterID int64) error
}

type articleService struct {
	articles repository.ArticleRepository
}

func NewArticleService(articles repository.ArticleRepository) ArticleService {
	return &articleService{articles: articles}
}

func (s *articleService) Create(ctx context.Context, authorID int64, input ArticleInput) (*domain.Article, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, validationErr("Title can't be blank")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, validationErr("Body can't be blank")
	}

	article := &domain.Article{
		Title:  input.Title,
		Body:   input.Body,
		Status: domain.ArticleStatusDraft,
		UserID: &authorID,
	}

	if _, err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

func (s *articleService) Get(ctx context.Context, id int64, viewerID *int64) (*domain.Article, error) {
	article, err := s.articles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	if !article.VisibleTo(viewerID) {
		return nil, ErrArticleNotFound
	}
	return article, nil
}

func (s *articleService) List(ctx context.Context, viewerID *int64) ([]domain.Article, error) {
	all, err := s.articles.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.Article, 0, len(all))
	for _, article := range all {
		if article.VisibleTo(viewerID) {
			visible = append(visible, article)
		}
	}
	return visible, nil
}

func (s *articleService) Update(ctx context.Context, id int64, requesterID int64, input ArticleUpdate) (*domain.Article, error) {
	article, err := s.articles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	if !article.OwnedBy(requesterID) {
		return nil, ErrNotOwner
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, validationErr("Title can't be blank")
		}
		article.Title = *input.Title
	}
	if input.Body != nil {
		if strings.TrimSpace(*input.Body) == "" {
			return nil, validationErr("Body can't be blank")
		}
		article.Body = *input.Body
	}
	if input.Status != nil {
		status := domain.ArticleStatus(*input.Status)
		if !status.Valid() {
			return nil, validationErr("Status is not included in the list")
		}
		article.Status = status
	}

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

func (s *articleService) Delete(ctx context.Context, id int64, requesterID int64) error {
	article, err := s.articles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrArticleNotFound
		}
		return err
	}
	if !article.OwnedBy(requesterID) {
		return ErrNotOwner
	}
	return s.articles.Delete(ctx, article.ID)
}
