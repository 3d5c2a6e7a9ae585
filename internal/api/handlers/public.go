package handlers

import (
	"net/http"

	"github.com/rohits-web03/blogapi/internal/utils"
)

// PublicArticles godoc
// @Summary List all articles, newest first
// @Tags Public
// @Produce json
// @Param limit query int false "Page size"
// @Param skip query int false "Articles to skip"
// @Success 200 {array} PublicArticleView
// @Router /api/v1/public/articles [get]
func (h *Handler) PublicArticles(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pageFrom(w, r)
	if !ok {
		return
	}
	list, err := h.articles.PublicList(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, publicViews(list))
}

// SearchArticles godoc
// @Summary Search articles containing every word of q
// @Tags Public
// @Produce json
// @Param q query string true "Keywords"
// @Param limit query int false "Page size"
// @Param skip query int false "Articles to skip"
// @Success 200 {array} PublicArticleView
// @Router /api/v1/public/articles/search [get]
func (h *Handler) SearchArticles(w http.ResponseWriter, r *http.Request) {
	page, ok := h.pageFrom(w, r)
	if !ok {
		return
	}
	list, err := h.articles.PublicSearch(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, publicViews(list))
}

// PublicArticle godoc
// @Summary Get a rendered article
// @Tags Public
// @Produce json
// @Param id path int true "article_id"
// @Success 200 {object} PublicArticleView
// @Failure 404 {object} utils.Payload
// @Router /api/v1/public/articles/{id} [get]
func (h *Handler) PublicArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseArticleID(r.PathValue("id"))
	if !ok {
		utils.ErrorResponse(w, http.StatusUnprocessableEntity, "id must be a positive integer")
		return
	}
	a, err := h.articles.PublicGet(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, publicView(a))
}
