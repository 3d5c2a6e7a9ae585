package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rohits-web03/blogapi/internal/api/services"
	"github.com/rohits-web03/blogapi/internal/utils"
)

// Handler binds the HTTP surface to the identity and article services.
type Handler struct {
	identity *services.Identity
	articles *services.Articles
}

func New(identity *services.Identity, articles *services.Articles) *Handler {
	return &Handler{identity: identity, articles: articles}
}

// errBodyShape marks decode failures that are schema violations rather than malformed JSON.
var errBodyShape = errors.New("request body does not match the expected schema")

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errBodyShape
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dest)

	var typeErr *json.UnmarshalTypeError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return errBodyShape
	case errors.As(err, &typeErr), strings.HasPrefix(err.Error(), "json: unknown field"):
		return errBodyShape
	default:
		return err
	}
}

func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyShape) {
		utils.ErrorResponse(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}
	utils.ErrorResponse(w, http.StatusBadRequest, "Malformed JSON body")
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindBadRequest:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindValidation:
		return http.StatusUnprocessableEntity
	case services.KindUnavailable:
		return http.StatusServiceUnavailable
	case services.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a service error. Messages of foreign errors are never exposed.
func writeError(w http.ResponseWriter, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		utils.ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	status := statusFor(se.Kind)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	utils.ErrorResponse(w, status, se.Error())
}

// queryInt reads an optional integer query parameter no smaller than min.
func queryInt(r *http.Request, name string, min int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		return 0, false
	}
	return n, true
}

func parseArticleID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func (h *Handler) pageFrom(w http.ResponseWriter, r *http.Request) (services.Page, bool) {
	limit, ok := queryInt(r, "limit", 1)
	if !ok {
		utils.ErrorResponse(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
		return services.Page{}, false
	}
	skip, ok := queryInt(r, "skip", 0)
	if !ok {
		utils.ErrorResponse(w, http.StatusUnprocessableEntity, "skip must be a non-negative integer")
		return services.Page{}, false
	}
	return services.Page{Limit: limit, Skip: skip}, true
}
