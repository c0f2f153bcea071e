package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/cobunny/internal/application"
)

type authSession interface {
	SignIn(ctx context.Context, email, password string) (application.Outcome, error)
	SignUp(ctx context.Context, input application.SignUpInput) (application.Outcome, error)
	SignOut(ctx context.Context) error
	IsAuthenticated() bool
	CurrentUser(ctx context.Context) (application.Profile, bool, error)
}

type AuthHandler struct {
	session   authSession
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(session authSession, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{session: session, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool                 `json:"authenticated"`
	User          *application.Profile `json:"user"`
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.session == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	var req signInRequest
	if !h.responder.decode(ctx, w, r, &req) {
		return
	}

	logger := h.log(ctx, "SignIn", "email", req.Email)
	outcome, err := h.session.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		logger.ErrorContext(ctx, "sign in failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	if !outcome.Success {
		logger.InfoContext(ctx, "sign in rejected", "error_kind", application.ErrorKind(outcome.Err))
		h.responder.writeFailure(ctx, w, http.StatusUnauthorized, outcome.Message)
		return
	}
	h.responder.writeSuccess(ctx, w, http.StatusOK, outcome.Message, outcome.User)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.session == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	var req application.SignUpInput
	if !h.responder.decode(ctx, w, r, &req) {
		return
	}

	logger := h.log(ctx, "SignUp", "email", req.Email)
	outcome, err := h.session.SignUp(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "sign up failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	if !outcome.Success {
		logger.InfoContext(ctx, "sign up rejected", "error_kind", application.ErrorKind(outcome.Err))
		h.responder.writeFailure(ctx, w, http.StatusConflict, outcome.Message)
		return
	}
	h.responder.writeSuccess(ctx, w, http.StatusCreated, outcome.Message, outcome.User)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.session == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	if err := h.session.SignOut(ctx); err != nil {
		h.log(ctx, "SignOut").ErrorContext(ctx, "sign out failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	h.responder.writeSuccess(ctx, w, http.StatusOK, "Signed out", nil)
}

func (h *AuthHandler) Current(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.session == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	resp := sessionResponse{Authenticated: h.session.IsAuthenticated()}
	if resp.Authenticated {
		profile, ok, err := h.session.CurrentUser(ctx)
		if err != nil {
			h.log(ctx, "Current").ErrorContext(ctx, "failed to load current user", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
			return
		}
		if ok {
			resp.User = &profile
		}
		resp.Authenticated = ok
	}
	h.responder.writeSuccess(ctx, w, http.StatusOK, "", resp)
}
