package repositories

import (
	"context"
	"strings"

	"github.com/rohits-web03/blogapi/internal/models"
	"gorm.io/gorm"
)

const articleSequenceName = "articles"

// ArticleStore reads and writes articles through db, which may be a transaction.
type ArticleStore struct {
	db *gorm.DB
}

func Articles(db *gorm.DB) ArticleStore {
	return ArticleStore{db: db}
}

// Page bounds a listing. Zero Limit means unbounded.
type Page struct {
	Limit int
	Skip  int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Skip > 0 {
		q = q.Offset(p.Skip)
	}
	return q
}

// ListByOwner returns the owner's articles in ascending article_id order.
func (s ArticleStore) ListByOwner(ctx context.Context, ownerID uint, limit int) ([]models.Article, error) {
	articles := []models.Article{}
	q := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("article_id ASC")
	if err := (Page{Limit: limit}).apply(q).Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (s ArticleStore) FindByArticleID(ctx context.Context, articleID uint) (*models.Article, error) {
	var a models.Article
	if err := s.db.WithContext(ctx).Where("article_id = ?", articleID).First(&a).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// FindOwned does not distinguish a foreign article from a missing one.
func (s ArticleStore) FindOwned(ctx context.Context, articleID, ownerID uint) (*models.Article, error) {
	var a models.Article
	err := s.db.WithContext(ctx).
		Where("article_id = ? AND owner_id = ?", articleID, ownerID).
		First(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// NextArticleID bumps the persisted high-water mark and returns the new value.
// On postgres the UPDATE row lock serializes concurrent creators; must run inside a transaction.
func (s ArticleStore) NextArticleID(ctx context.Context) (uint, error) {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.ArticleSequence{}).
		Where("name = ?", articleSequenceName).
		UpdateColumn("last_value", gorm.Expr("last_value + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		var maxID uint
		if err := db.Model(&models.Article{}).
			Select("COALESCE(MAX(article_id), 0)").
			Scan(&maxID).Error; err != nil {
			return 0, err
		}
		seq := models.ArticleSequence{Name: articleSequenceName, LastValue: maxID + 1}
		if err := db.Create(&seq).Error; err != nil {
			return 0, err
		}
		return seq.LastValue, nil
	}

	var seq models.ArticleSequence
	if err := db.Where("name = ?", articleSequenceName).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.LastValue, nil
}

// Create allocates an article_id and inserts a.
func (s ArticleStore) Create(ctx context.Context, a *models.Article) error {
	id, err := s.NextArticleID(ctx)
	if err != nil {
		return err
	}
	a.ArticleID = id
	return s.db.WithContext(ctx).Create(a).Error
}

func (s ArticleStore) UpdateContent(ctx context.Context, a *models.Article, title, body string) error {
	a.Title = title
	a.Body = body
	return s.db.WithContext(ctx).
		Model(a).
		Updates(map[string]any{"title": title, "body": body}).Error
}

func (s ArticleStore) Delete(ctx context.Context, a *models.Article) error {
	return s.db.WithContext(ctx).Delete(a).Error
}

// DeleteByOwner removes every article of ownerID and reports how many went.
func (s ArticleStore) DeleteByOwner(ctx context.Context, ownerID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&models.Article{})
	return res.RowsAffected, res.Error
}

// ListPublic returns all articles, newest article_id first.
func (s ArticleStore) ListPublic(ctx context.Context, page Page) ([]models.Article, error) {
	articles := []models.Article{}
	q := s.db.WithContext(ctx).Order("article_id DESC")
	if err := page.apply(q).Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// Search requires every word to appear, case-insensitively, in the title or the body.
func (s ArticleStore) Search(ctx context.Context, words []string, page Page) ([]models.Article, error) {
	articles := []models.Article{}
	if len(words) == 0 {
		return articles, nil
	}

	q := s.db.WithContext(ctx).Model(&models.Article{})
	for _, w := range words {
		pattern := "%" + escapeLike(strings.ToLower(w)) + "%"
		q = q.Where(`((LOWER(title) LIKE ? ESCAPE '\') OR (LOWER(body) LIKE ? ESCAPE '\'))`, pattern, pattern)
	}
	q = q.Order("article_id DESC")
	if err := page.apply(q).Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
