package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rohits-web03/blogapi/internal/models"
	"github.com/rohits-web03/blogapi/internal/repositories"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// createAttempts bounds retries when two creators race for the same article_id.
const createAttempts = 3

// Renderer turns a stored markdown body into HTML.
type Renderer interface {
	Render(src string) (string, error)
}

// RenderedArticle is a stored article together with its derived HTML body.
type RenderedArticle struct {
	models.Article
	BodyHTML string
}

type Articles struct {
	db       *gorm.DB
	renderer Renderer
}

func NewArticles(db *gorm.DB, renderer Renderer) *Articles {
	return &Articles{db: db, renderer: renderer}
}

// Page is re-exported so handlers do not import the repositories package.
type Page = repositories.Page

func validateContent(op, title, body string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(body) == "" {
		return fail(op, KindBadRequest, "Title and body must not be empty", nil)
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return fail(op, KindValidation, "Title must be at most 30 characters", nil)
	}
	if utf8.RuneCountInString(body) > models.MaxBodyLength {
		return fail(op, KindValidation, "Body must be at most 1000 characters", nil)
	}
	return nil
}

func (s *Articles) render(op string, a models.Article) (RenderedArticle, error) {
	html, err := s.renderer.Render(a.Body)
	if err != nil {
		return RenderedArticle{}, fail(op, KindInternal, "Could not render article", err)
	}
	return RenderedArticle{Article: a, BodyHTML: html}, nil
}

func (s *Articles) renderAll(op string, articles []models.Article) ([]RenderedArticle, error) {
	out := make([]RenderedArticle, 0, len(articles))
	for _, a := range articles {
		r, err := s.render(op, a)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// List returns the owner's articles in ascending article_id order. Zero limit is unbounded.
func (s *Articles) List(ctx context.Context, owner *models.User, limit int) ([]RenderedArticle, error) {
	const op = "articles.list"
	if limit < 0 {
		return nil, fail(op, KindValidation, "limit must be at least 1", nil)
	}
	articles, err := repositories.Articles(s.db).ListByOwner(ctx, owner.ID, limit)
	if err != nil {
		return nil, storageFailure(op, err)
	}
	return s.renderAll(op, articles)
}

// Get looks an article up by article_id regardless of owner.
func (s *Articles) Get(ctx context.Context, articleID uint) (RenderedArticle, error) {
	const op = "articles.get"
	a, err := repositories.Articles(s.db).FindByArticleID(ctx, articleID)
	if errors.Is(err, repositories.ErrNotFound) {
		return RenderedArticle{}, fail(op, KindNotFound, "Article not found", nil)
	}
	if err != nil {
		return RenderedArticle{}, storageFailure(op, err)
	}
	return s.render(op, *a)
}

func (s *Articles) Create(ctx context.Context, owner *models.User, title, body string) (RenderedArticle, error) {
	const op = "articles.create"
	ctx = context.WithoutCancel(ctx)

	if err := validateContent(op, title, body); err != nil {
		return RenderedArticle{}, err
	}

	var (
		a   models.Article
		err error
	)
	for attempt := 1; attempt <= createAttempts; attempt++ {
		a = models.Article{Title: title, Body: body, OwnerID: owner.ID}
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return repositories.Articles(tx).Create(ctx, &a)
		})
		if err == nil || !retriable(err) {
			break
		}
		log.Warn().Str("op", op).Int("attempt", attempt).Msg("article_id allocation conflict, retrying")
	}
	if err != nil {
		return RenderedArticle{}, storageFailure(op, err)
	}
	return s.render(op, a)
}

func retriable(err error) bool {
	if isDuplicate(err) {
		return true
	}
	return repositories.Classify(err) == repositories.StorageConflict
}

// Update does not distinguish someone else's article from a missing one.
func (s *Articles) Update(ctx context.Context, owner *models.User, articleID uint, title, body string) (RenderedArticle, error) {
	const op = "articles.update"
	ctx = context.WithoutCancel(ctx)

	if err := validateContent(op, title, body); err != nil {
		return RenderedArticle{}, err
	}

	var a *models.Article
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := repositories.Articles(tx)
		found, err := store.FindOwned(ctx, articleID, owner.ID)
		if errors.Is(err, repositories.ErrNotFound) {
			return fail(op, KindNotFound, "Article not found", err)
		}
		if err != nil {
			return err
		}
		a = found
		return store.UpdateContent(ctx, a, title, body)
	})
	if err != nil {
		return RenderedArticle{}, settle(op, err)
	}
	return s.render(op, *a)
}

func (s *Articles) Delete(ctx context.Context, owner *models.User, articleID uint) error {
	const op = "articles.delete"
	ctx = context.WithoutCancel(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := repositories.Articles(tx)
		a, err := store.FindOwned(ctx, articleID, owner.ID)
		if errors.Is(err, repositories.ErrNotFound) {
			return fail(op, KindNotFound, "Article not found", err)
		}
		if err != nil {
			return err
		}
		return store.Delete(ctx, a)
	})
	return settle(op, err)
}

// PublicList returns every article, newest first.
func (s *Articles) PublicList(ctx context.Context, page Page) ([]RenderedArticle, error) {
	const op = "articles.public_list"
	articles, err := repositories.Articles(s.db).ListPublic(ctx, page)
	if err != nil {
		return nil, storageFailure(op, err)
	}
	return s.renderAll(op, articles)
}

// PublicSearch matches articles containing every whitespace separated word of keyword.
func (s *Articles) PublicSearch(ctx context.Context, keyword string, page Page) ([]RenderedArticle, error) {
	const op = "articles.public_search"
	if decoded, err := url.PathUnescape(keyword); err == nil {
		keyword = decoded
	}
	words := strings.Fields(keyword)
	if len(words) == 0 {
		return []RenderedArticle{}, nil
	}

	articles, err := repositories.Articles(s.db).Search(ctx, words, page)
	if err != nil {
		return nil, storageFailure(op, err)
	}
	return s.renderAll(op, articles)
}

func (s *Articles) PublicGet(ctx context.Context, articleID uint) (RenderedArticle, error) {
	return s.Get(ctx, articleID)
}
