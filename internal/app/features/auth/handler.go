// internal/app/features/auth/handler.go
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/kanbanhub/internal/app/features/shared"
	userstore "github.com/dalemusser/kanbanhub/internal/app/store/users"
	"github.com/dalemusser/kanbanhub/internal/app/system/apperr"
	sysauth "github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/inputval"
	"github.com/dalemusser/kanbanhub/internal/app/system/mailer"
	"github.com/dalemusser/kanbanhub/internal/app/system/normalize"
	"github.com/dalemusser/kanbanhub/internal/app/system/respond"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// WelcomeSender queues the registration email. *mailer.Mailer implements it.
type WelcomeSender interface {
	SendAsync(e mailer.Email)
}

// Handler serves registration, login, and the current-user lookup.
type Handler struct {
	Users    *userstore.Store
	Tokens   *sysauth.TokenIssuer
	Mail     WelcomeSender
	SiteName string
	AppURL   string
	Log      *zap.Logger
}

// NewHandler constructs an auth Handler. mail may be nil.
func NewHandler(db *mongo.Database, tokens *sysauth.TokenIssuer, mail WelcomeSender, siteName, appURL string, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Tokens:   tokens,
		Mail:     mail,
		SiteName: siteName,
		AppURL:   appURL,
		Log:      logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string         `json:"message"`
	Token   string         `json:"token"`
	User    models.Profile `json:"user"`
}

// HandleRegister handles POST /api/auth/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	email := normalize.Email(req.Email)
	name := normalize.Name(req.Name)
	switch {
	case !inputval.IsValidEmail(email):
		respond.Error(w, r, h.Log, apperr.Validation("Please provide a valid email"))
		return
	case !inputval.IsValidPassword(req.Password):
		respond.Error(w, r, h.Log, apperr.Validation("Password must be at least 6 characters"))
		return
	case name == "":
		respond.Error(w, r, h.Log, apperr.Validation("Name is required"))
		return
	}

	hash, err := sysauth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}

	ctx, cancel := shared.MutationContext(r, timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{Email: email, Name: name, PasswordHash: hash})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		respond.Error(w, r, h.Log, apperr.Conflict("User already exists with this email"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}

	token, err := h.Tokens.Issue(u.ID.Hex(), u.Email)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}

	if h.Mail != nil {
		e := mailer.BuildWelcomeEmail(mailer.WelcomeEmailData{SiteName: h.SiteName, Name: u.Name, AppURL: h.AppURL})
		e.To, e.ToName = u.Email, u.Name
		h.Mail.SendAsync(e)
	}

	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()))
	respond.Created(w, authResponse{Message: "User registered successfully", Token: token, User: u.Profile()})
}

// HandleLogin handles POST /api/auth/login. Unknown email and wrong
// password produce the same response.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !inputval.IsValidEmail(normalize.Email(req.Email)) || req.Password == "" {
		respond.Error(w, r, h.Log, apperr.Validation("Email and password are required"))
		return
	}

	ctx, cancel := shared.MutationContext(r, timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	if err != nil || !sysauth.CheckPassword(u.PasswordHash, req.Password) {
		respond.Error(w, r, h.Log, apperr.Unauthorized("Invalid credentials"))
		return
	}

	token, err := h.Tokens.Issue(u.ID.Hex(), u.Email)
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	respond.OK(w, authResponse{Message: "Login successful", Token: token, User: u.Profile()})
}

// ServeMe handles GET /api/auth/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.Caller(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Users.Profile(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Internal(err))
		return
	}
	respond.OK(w, map[string]any{"user": p})
}
