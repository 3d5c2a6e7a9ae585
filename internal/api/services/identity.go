package services

import (
	"context"
	"errors"
	"time"

	"github.com/rohits-web03/blogapi/internal/auth"
	"github.com/rohits-web03/blogapi/internal/mailer"
	"github.com/rohits-web03/blogapi/internal/models"
	"github.com/rohits-web03/blogapi/internal/repositories"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TemporaryPassword is assigned to every freshly provisioned account until
// the owner sets a real one through ChangePassword.
const TemporaryPassword = "temp_password_123"

const TokenTypeBearer = "bearer"

// Mailer is the subset of the mail gateway the identity workflow needs.
type Mailer interface {
	SendVerification(ctx context.Context, to, token string) error
	SendRegistrationComplete(ctx context.Context, to string) error
	SendAccountDeletion(ctx context.Context, to string) error
}

type IdentityConfig struct {
	RequireVerification bool
	AccessTTL           time.Duration
	VerificationTTL     time.Duration
	Policy              DomainPolicy
}

type Identity struct {
	db      *gorm.DB
	hasher  auth.Hasher
	tokens  *auth.TokenCodec
	revoked *auth.RevocationSet
	mail    Mailer
	cfg     IdentityConfig
	now     func() time.Time
}

func NewIdentity(db *gorm.DB, hasher auth.Hasher, tokens *auth.TokenCodec, revoked *auth.RevocationSet, mail Mailer, cfg IdentityConfig) *Identity {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = auth.DefaultAccessTTL
	}
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = auth.DefaultEmailVerificationTTL
	}
	return &Identity{
		db:      db,
		hasher:  hasher,
		tokens:  tokens,
		revoked: revoked,
		mail:    mail,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used for verification windows.
func (s *Identity) WithClock(now func() time.Time) *Identity {
	s.now = now
	return s
}

type Registration struct {
	Email             string
	UserID            uint
	Created           bool
	TemporaryPassword bool
	EmailSent         bool
	EmailError        string
}

type Confirmation struct {
	Email    string
	UserID   uint
	IsActive bool
}

type Session struct {
	AccessToken string
	TokenType   string
}

type PasswordChange struct {
	UserID      uint
	Email       string
	AccessToken string
	TokenType   string
	EmailSent   bool
	EmailError  string
}

type Deletion struct {
	Email           string
	DeletedArticles int64
}

func (s *Identity) verifications(db *gorm.DB) *repositories.VerificationStore {
	return repositories.Verifications(db, s.cfg.VerificationTTL).WithClock(s.now)
}

// Register either opens a verification window and mails the link, or, with
// verification disabled, creates the account straight away with the temporary password.
func (s *Identity) Register(ctx context.Context, email, name string) (*Registration, error) {
	const op = "identity.register"
	ctx = context.WithoutCancel(ctx)

	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, fail(op, KindBadRequest, "Email is required", nil)
	}
	if !s.cfg.Policy.Admit(email) {
		return nil, fail(op, KindBadRequest, "Email domain is not allowed", nil)
	}

	var hash string
	if !s.cfg.RequireVerification {
		h, err := s.hasher.Hash(TemporaryPassword)
		if err != nil {
			return nil, fail(op, KindInternal, "Could not hash password", err)
		}
		hash = h
	}

	res := &Registration{Email: email}
	var token string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repositories.Users(tx)
		_, err := users.FindActiveByEmail(ctx, email)
		switch {
		case err == nil:
			return fail(op, KindConflict, "Email already registered", nil)
		case !errors.Is(err, repositories.ErrNotFound):
			return err
		}

		if s.cfg.RequireVerification {
			v, err := s.verifications(tx).Open(ctx, email)
			if errors.Is(err, repositories.ErrAlreadyVerified) {
				return fail(op, KindConflict, "Email already verified", err)
			}
			if isDuplicate(err) {
				return fail(op, KindConflict, "Email already registered", err)
			}
			if err != nil {
				return err
			}
			token = v.Token
			return nil
		}

		user := models.User{Email: email, Name: name, PasswordHash: hash, IsActive: true}
		if err := users.Create(ctx, &user); err != nil {
			if isDuplicate(err) {
				return fail(op, KindConflict, "Email already registered", err)
			}
			return err
		}
		res.UserID = user.ID
		res.Created = true
		res.TemporaryPassword = true
		return nil
	})
	if err != nil {
		return nil, settle(op, err)
	}

	if s.cfg.RequireVerification {
		res.EmailSent, res.EmailError = s.notify(op, func() error {
			return s.mail.SendVerification(ctx, email, token)
		})
	}
	log.Info().Str("op", op).Bool("created", res.Created).Msg("registration accepted")
	return res, nil
}

// ConfirmEmail consumes a verification token and provisions the account.
func (s *Identity) ConfirmEmail(ctx context.Context, token string) (*Confirmation, error) {
	const op = "identity.confirm_email"
	ctx = context.WithoutCancel(ctx)

	if len(token) < 10 {
		return nil, fail(op, KindBadRequest, "Invalid verification token", nil)
	}

	hash, err := s.hasher.Hash(TemporaryPassword)
	if err != nil {
		return nil, fail(op, KindInternal, "Could not hash password", err)
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		email, err := s.verifications(tx).Consume(ctx, token)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return fail(op, KindBadRequest, "Invalid verification token", err)
		case errors.Is(err, repositories.ErrAlreadyVerified):
			return fail(op, KindBadRequest, "Email already verified", err)
		case errors.Is(err, repositories.ErrExpired):
			return fail(op, KindBadRequest, "Verification token has expired", err)
		case err != nil:
			return err
		}

		user = models.User{
			Email:        email,
			Name:         models.LocalPart(email),
			PasswordHash: hash,
			IsActive:     true,
		}
		if err := repositories.Users(tx).Create(ctx, &user); err != nil {
			if isDuplicate(err) {
				return fail(op, KindConflict, "Email already registered", err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, settle(op, err)
	}

	log.Info().Str("op", op).Uint("user_id", user.ID).Msg("email confirmed")
	return &Confirmation{Email: user.Email, UserID: user.ID, IsActive: user.IsActive}, nil
}

// Authenticate never reveals whether the address or the password was wrong.
func (s *Identity) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	const op = "identity.authenticate"

	if !s.cfg.Policy.Admit(email) {
		return nil, fail(op, KindForbidden, "Email domain is not allowed", nil)
	}

	user, err := repositories.Users(s.db).FindActiveByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fail(op, KindForbidden, "Incorrect email or password", nil)
	}
	if err != nil {
		return nil, storageFailure(op, err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, fail(op, KindForbidden, "Incorrect email or password", nil)
	}

	token, err := s.issueAccess(op, user)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, TokenType: TokenTypeBearer}, nil
}

func (s *Identity) issueAccess(op string, user *models.User) (string, error) {
	token, err := s.tokens.Issue(user.Email, user.ID, auth.TokenAccess, s.cfg.AccessTTL)
	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, auth.ErrTokenIssue):
		return "", fail(op, KindTimeout, "Could not issue access token, please retry", err)
	default:
		return "", fail(op, KindInternal, "Token signing is not configured", err)
	}
}

// ChangePassword treats knowledge of the current password as proof of identity.
// Unknown users and wrong passwords are both reported as not found.
func (s *Identity) ChangePassword(ctx context.Context, email, current, next string) (*PasswordChange, error) {
	const op = "identity.change_password"
	ctx = context.WithoutCancel(ctx)

	if next == "" {
		return nil, fail(op, KindBadRequest, "New password is required", nil)
	}
	if len(next) > auth.MaxPasswordBytes {
		return nil, fail(op, KindValidation, "New password must be at most 72 bytes", nil)
	}

	user, err := repositories.Users(s.db).FindActiveByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fail(op, KindNotFound, "User not found or password incorrect", nil)
	}
	if err != nil {
		return nil, storageFailure(op, err)
	}
	if !s.hasher.Verify(current, user.PasswordHash) {
		return nil, fail(op, KindNotFound, "User not found or password incorrect", nil)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return nil, fail(op, KindInternal, "Could not hash password", err)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repositories.Users(tx).UpdatePasswordHash(ctx, user.ID, hash)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fail(op, KindNotFound, "User not found or password incorrect", err)
	}
	if err != nil {
		return nil, storageFailure(op, err)
	}

	token, err := s.issueAccess(op, user)
	if err != nil {
		return nil, err
	}

	res := &PasswordChange{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: token,
		TokenType:   TokenTypeBearer,
	}
	res.EmailSent, res.EmailError = s.notify(op, func() error {
		return s.mail.SendRegistrationComplete(ctx, user.Email)
	})
	return res, nil
}

// DeleteAccount removes the subject, their articles and their verification rows in one unit.
func (s *Identity) DeleteAccount(ctx context.Context, subject *models.User, email, password, confirm string) (*Deletion, error) {
	const op = "identity.delete_account"
	ctx = context.WithoutCancel(ctx)

	if password != confirm {
		return nil, fail(op, KindBadRequest, "Passwords do not match", nil)
	}
	email = models.NormalizeEmail(email)
	if subject == nil || subject.Email != email {
		return nil, fail(op, KindForbidden, "You can only delete your own account", nil)
	}

	user, err := repositories.Users(s.db).FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fail(op, KindNotFound, "User not found", nil)
	}
	if err != nil {
		return nil, storageFailure(op, err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, fail(op, KindUnauthorized, "Incorrect password", nil)
	}

	var deleted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := repositories.Articles(tx).DeleteByOwner(ctx, user.ID)
		if err != nil {
			return err
		}
		deleted = n
		if err := s.verifications(tx).Purge(ctx, user.Email); err != nil {
			return err
		}
		return repositories.Users(tx).Delete(ctx, user.ID)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fail(op, KindNotFound, "User not found", err)
	}
	if err != nil {
		return nil, storageFailure(op, err)
	}

	s.notify(op, func() error {
		return s.mail.SendAccountDeletion(ctx, user.Email)
	})
	log.Info().Str("op", op).Uint("user_id", user.ID).Int64("articles", deleted).Msg("account deleted")
	return &Deletion{Email: user.Email, DeletedArticles: deleted}, nil
}

// ResendVerification rotates the token of a pending verification and mails it again.
func (s *Identity) ResendVerification(ctx context.Context, subject *models.User, email string) (*Registration, error) {
	const op = "identity.resend_verification"
	ctx = context.WithoutCancel(ctx)

	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, fail(op, KindBadRequest, "Email is required", nil)
	}
	if subject == nil || subject.Email != email {
		return nil, fail(op, KindForbidden, "You can only resend your own verification", nil)
	}

	var token string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.verifications(tx)
		if _, err := store.Pending(ctx, email); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fail(op, KindNotFound, "No pending verification for this email", err)
			}
			return err
		}
		v, err := store.Open(ctx, email)
		if errors.Is(err, repositories.ErrAlreadyVerified) {
			return fail(op, KindConflict, "Email already verified", err)
		}
		if err != nil {
			return err
		}
		token = v.Token
		return nil
	})
	if err != nil {
		return nil, settle(op, err)
	}

	res := &Registration{Email: email}
	res.EmailSent, res.EmailError = s.notify(op, func() error {
		return s.mail.SendVerification(ctx, email, token)
	})
	return res, nil
}

// Resolve turns a raw bearer token into the user it was issued for.
func (s *Identity) Resolve(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	const op = "identity.resolve"

	claims, err := s.tokens.Verify(token, auth.TokenAccess)
	if errors.Is(err, auth.ErrTokenExpired) {
		return nil, nil, fail(op, KindUnauthorized, "Token has expired", nil)
	}
	if err != nil {
		return nil, nil, fail(op, KindUnauthorized, "Could not validate credentials", nil)
	}
	if s.revoked.IsRevoked(token) {
		return nil, nil, fail(op, KindUnauthorized, "Token has been revoked", nil)
	}

	user, err := repositories.Users(s.db).FindByID(ctx, claims.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, fail(op, KindNotFound, "User not found", nil)
	}
	if err != nil {
		return nil, nil, storageFailure(op, err)
	}
	return user, claims, nil
}

// Profile returns the user identified by userID, visible to that user only.
func (s *Identity) Profile(ctx context.Context, subject *models.User, userID uint) (*models.User, error) {
	const op = "identity.profile"

	if subject == nil || subject.ID != userID {
		return nil, fail(op, KindForbidden, "Not allowed to view this user", nil)
	}
	user, err := repositories.Users(s.db).FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fail(op, KindNotFound, "User not found", nil)
	}
	if err != nil {
		return nil, storageFailure(op, err)
	}
	return user, nil
}

// Logout revokes token until its natural expiry. Repeating it is harmless.
func (s *Identity) Logout(token string, claims *auth.Claims) {
	exp := s.now().Add(s.cfg.AccessTTL)
	if claims != nil && claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	s.revoked.Revoke(token, exp)
	log.Info().Str("op", "identity.logout").Msg("token revoked")
}

// notify runs a mail send whose failure must not undo the committed change.
func (s *Identity) notify(op string, send func() error) (bool, string) {
	if err := send(); err != nil {
		kind := mailer.KindOf(err)
		log.Warn().Str("op", op).Str("reason", string(kind)).Msg("notification not sent")
		return false, string(kind)
	}
	return true, ""
}
