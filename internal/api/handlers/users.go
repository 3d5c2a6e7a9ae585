package handlers

import (
	"net/http"
	"strconv"

	"github.com/rohits-web03/blogapi/internal/api/middleware"
	"github.com/rohits-web03/blogapi/internal/utils"
)

// Register godoc
// @Summary Register a new account
// @Description Opens an email verification window, or creates the account with a temporary password when verification is disabled.
// @Description A supplied password is ignored: every account starts with the temporary password and must change it before login.
// @Tags Users
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Email to register"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} utils.Payload
// @Failure 409 {object} utils.Payload
// @Router /api/v1/user [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var input RegisterRequest
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, err)
		return
	}

	reg, err := h.identity.Register(r.Context(), input.Email, input.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	if reg.Created {
		utils.JSONResponse(w, http.StatusCreated, RegisterResponse{
			Message:           "User created with a temporary password",
			Email:             reg.Email,
			ID:                reg.UserID,
			TemporaryPassword: reg.TemporaryPassword,
		})
		return
	}

	sent := reg.EmailSent
	utils.JSONResponse(w, http.StatusCreated, RegisterResponse{
		Message:    "Verification email sent, check your inbox",
		Email:      reg.Email,
		EmailSent:  &sent,
		EmailError: reg.EmailError,
	})
}

// VerifyEmail godoc
// @Summary Confirm an email address
// @Tags Users
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} VerifyEmailResponse
// @Failure 400 {object} utils.Payload
// @Router /api/v1/verify-email [get]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	conf, err := h.identity.ConfirmEmail(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, VerifyEmailResponse{
		Message:  "Email verified, sign in with the temporary password",
		Email:    conf.Email,
		UserID:   conf.UserID,
		IsActive: conf.IsActive,
	})
}

// ResendVerification godoc
// @Summary Resend the verification email
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ResendRequest true "Own email"
// @Success 200 {object} ResendResponse
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/resend-verification [post]
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var input ResendRequest
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, err)
		return
	}

	res, err := h.identity.ResendVerification(r.Context(), middleware.CurrentUser(r.Context()), input.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, ResendResponse{
		Message:    "Verification email sent",
		EmailSent:  res.EmailSent,
		EmailError: res.EmailError,
	})
}

// GetUser godoc
// @Summary Get own user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param user_id path int true "User id"
// @Success 200 {object} UserView
// @Failure 403 {object} utils.Payload
// @Router /api/v1/user/{user_id} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("user_id"), 10, 0)
	if err != nil {
		utils.ErrorResponse(w, http.StatusUnprocessableEntity, "user_id must be a positive integer")
		return
	}

	user, err := h.identity.Profile(r.Context(), middleware.CurrentUser(r.Context()), uint(id))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, UserView{Email: user.Email, IsActive: user.IsActive})
}

// DeleteAccount godoc
// @Summary Delete own account and every article it owns
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body DeleteAccountRequest true "Credentials"
// @Success 200 {object} DeleteAccountResponse
// @Failure 400 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Router /api/v1/user/delete-account [delete]
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var input DeleteAccountRequest
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, err)
		return
	}

	res, err := h.identity.DeleteAccount(r.Context(), middleware.CurrentUser(r.Context()),
		input.Email, input.Password, input.ConfirmPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, DeleteAccountResponse{
		Message:              "Account deleted",
		DeletedArticlesCount: strconv.FormatInt(res.DeletedArticles, 10),
		Email:                res.Email,
	})
}
