package handlers

import (
	"net/http"

	"github.com/rohits-web03/blogapi/internal/api/middleware"
	"github.com/rohits-web03/blogapi/internal/utils"
)

// Login godoc
// @Summary Exchange email and password for a bearer token
// @Tags Auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Email"
// @Param password formData string true "Password"
// @Success 200 {object} TokenResponse
// @Failure 403 {object} utils.Payload
// @Failure 504 {object} utils.Payload
// @Router /api/v1/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		utils.ErrorResponse(w, http.StatusBadRequest, "Malformed form body")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		utils.ErrorResponse(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	sess, err := h.identity.Authenticate(r.Context(), username, password)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, TokenResponse{
		AccessToken: sess.AccessToken,
		TokenType:   sess.TokenType,
	})
}

// Logout godoc
// @Summary Revoke the presented bearer token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} utils.Payload
// @Router /api/v1/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, claims := middleware.CurrentToken(r.Context())
	h.identity.Logout(token, claims)
	utils.JSONResponse(w, http.StatusOK, MessageResponse{Message: "Successfully logged out"})
}

// ChangePassword godoc
// @Summary Replace the current password
// @Description Knowledge of the current password is the proof of identity; no bearer token is needed.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} ChangePasswordResponse
// @Failure 404 {object} utils.Payload
// @Router /api/v1/change-password [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var input ChangePasswordRequest
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, err)
		return
	}

	res, err := h.identity.ChangePassword(r.Context(), input.Username, input.TempPassword, input.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, ChangePasswordResponse{
		Message:     "Password updated",
		UserID:      res.UserID,
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		EmailSent:   res.EmailSent,
		EmailError:  res.EmailError,
	})
}
