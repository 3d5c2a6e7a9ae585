package handlers

import (
	"net/http"

	"github.com/rohits-web03/blogapi/internal/api/middleware"
	"github.com/rohits-web03/blogapi/internal/utils"
)

// ListArticles godoc
// @Summary List own articles
// @Tags Articles
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of articles"
// @Success 200 {array} ArticleView
// @Router /api/v1/articles [get]
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 1)
	if !ok {
		utils.ErrorResponse(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
		return
	}

	list, err := h.articles.List(r.Context(), middleware.CurrentUser(r.Context()), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, articleViews(list))
}

// GetArticle godoc
// @Summary Get an article by article_id
// @Tags Articles
// @Produce json
// @Security BearerAuth
// @Param id path int true "article_id"
// @Success 200 {object} ArticleView
// @Failure 404 {object} utils.Payload
// @Router /api/v1/articles/{id} [get]
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseArticleID(r.PathValue("id"))
	if !ok {
		utils.ErrorResponse(w, http.StatusUnprocessableEntity, "id must be a positive integer")
		return
	}

	a, err := h.articles.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, articleView(a))
}

// CreateArticle godoc
// @Summary Create an article
// @Tags Articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ArticleRequest true "Title and markdown body"
// @Success 201 {object} ArticleView
// @Failure 400 {object} utils.Payload
// @Failure 422 {object} utils.Payload
// @Router /api/v1/articles [post]
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var input ArticleRequest
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, err)
		return
	}

	a, err := h.articles.Create(r.Context(), middleware.CurrentUser(r.Context()), input.Title, input.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusCreated, articleView(a))
}

// UpdateArticle godoc
// @Summary Update an own article
// @Tags Articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param article_id query int true "article_id"
// @Param body body ArticleRequest true "Title and markdown body"
// @Success 202 {object} ArticleView
// @Failure 404 {object} utils.Payload
// @Router /api/v1/articles [put]
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseArticleID(r.URL.Query().Get("article_id"))
	if !ok {
		utils.ErrorResponse(w, http.StatusUnprocessableEntity, "article_id must be a positive integer")
		return
	}
	var input ArticleRequest
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, err)
		return
	}

	a, err := h.articles.Update(r.Context(), middleware.CurrentUser(r.Context()), id, input.Title, input.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusAccepted, articleView(a))
}

// DeleteArticle godoc
// @Summary Delete an own article
// @Tags Articles
// @Security BearerAuth
// @Param article_id query int true "article_id"
// @Success 204
// @Failure 404 {object} utils.Payload
// @Router /api/v1/articles [delete]
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseArticleID(r.URL.Query().Get("article_id"))
	if !ok {
		utils.ErrorResponse(w, http.StatusUnprocessableEntity, "article_id must be a positive integer")
		return
	}

	if err := h.articles.Delete(r.Context(), middleware.CurrentUser(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
