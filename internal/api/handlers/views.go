package handlers

import "github.com/rohits-web03/blogapi/internal/api/services"

// UserView never carries the password hash.
type UserView struct {
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

type ArticleView struct {
	ArticleID uint   `json:"article_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	BodyHTML  string `json:"body_html"`
	UserID    uint   `json:"user_id,omitempty"`
}

type PublicArticleView struct {
	ArticleID uint   `json:"article_id"`
	Title     string `json:"title"`
	BodyHTML  string `json:"body_html"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	// Password is accepted for client compatibility and ignored.
	Password string `json:"password,omitempty" swaggerignore:"true"`
}

type RegisterResponse struct {
	Message           string `json:"message"`
	Email             string `json:"email"`
	ID                uint   `json:"id,omitempty"`
	TemporaryPassword bool   `json:"temporary_password,omitempty"`
	EmailSent         *bool  `json:"email_sent,omitempty"`
	EmailError        string `json:"email_error,omitempty"`
}

type VerifyEmailResponse struct {
	Message  string `json:"message"`
	Email    string `json:"email"`
	UserID   uint   `json:"user_id"`
	IsActive bool   `json:"is_active"`
}

type ResendRequest struct {
	Email string `json:"email"`
}

type ResendResponse struct {
	Message    string `json:"message"`
	EmailSent  bool   `json:"email_sent"`
	EmailError string `json:"email_error,omitempty"`
}

type DeleteAccountRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type DeleteAccountResponse struct {
	Message              string `json:"message"`
	DeletedArticlesCount string `json:"deleted_articles_count"`
	Email                string `json:"email"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ChangePasswordRequest struct {
	Username     string `json:"username"`
	TempPassword string `json:"temp_password"`
	NewPassword  string `json:"new_password"`
}

type ChangePasswordResponse struct {
	Message     string `json:"message"`
	UserID      uint   `json:"user_id"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	EmailSent   bool   `json:"email_sent"`
	EmailError  string `json:"email_error,omitempty"`
}

type ArticleRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func articleView(a services.RenderedArticle) ArticleView {
	return ArticleView{
		ArticleID: a.ArticleID,
		Title:     a.Title,
		Body:      a.Body,
		BodyHTML:  a.BodyHTML,
		UserID:    a.OwnerID,
	}
}

func articleViews(list []services.RenderedArticle) []ArticleView {
	out := make([]ArticleView, 0, len(list))
	for _, a := range list {
		out = append(out, articleView(a))
	}
	return out
}

func publicView(a services.RenderedArticle) PublicArticleView {
	return PublicArticleView{ArticleID: a.ArticleID, Title: a.Title, BodyHTML: a.BodyHTML}
}

func publicViews(list []services.RenderedArticle) []PublicArticleView {
	out := make([]PublicArticleView, 0, len(list))
	for _, a := range list {
		out = append(out, publicView(a))
	}
	return out
}
