package domain

import "time"

type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
)

// Valid reports whether the value is one of the known lifecycle states.
func (s ArticleStatus) Valid() bool {
	return s == ArticleStatusDraft || s == ArticleStatusPublished
}

// Article represents a blog post tracked by the system. UserID is nil for
// orphaned rows that no longer have an owner.
type Article struct {
	ID        int64
	Title     string
	Body      string
	Status    ArticleStatus
	UserID    *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VisibleTo reports whether a reader may see the article. viewerID is nil for
// anonymous readers. Published articles are visible to everyone; drafts only
// to their owner, so an anonymous reader never sees a draft.
func (a Article) VisibleTo(viewerID *int64) bool {
	if a.Status == ArticleStatusPublished {
		return true
	}
	return viewerID != nil && a.OwnedBy(*viewerID)
}

// OwnedBy reports whether the given user owns the article. Orphaned articles
// are owned by nobody.
func (a Article) OwnedBy(userID int64) bool {
	return a.UserID != nil && *a.UserID == userID
}
