package http

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/example/cobunny/internal/application"
)

type favoriteSession interface {
	IsFavorite(ctx context.Context, spaceID int) (bool, error)
	ToggleFavorite(ctx context.Context, spaceID int) (application.Profile, bool, error)
}

type FavoriteHandler struct {
	session   favoriteSession
	responder responder
	logger    *slog.Logger
}

func NewFavoriteHandler(session favoriteSession, logger *slog.Logger) *FavoriteHandler {
	base := defaultLogger(logger)
	return &FavoriteHandler{session: session, responder: newResponder(base), logger: base}
}

type favoriteResponse struct {
	SpaceID   int   `json:"spaceId"`
	Favorite  bool  `json:"favorite"`
	Favorites []int `json:"favorites,omitempty"`
}

func (h *FavoriteHandler) Check(w http.ResponseWriter, r *http.Request, rawSpaceID string) {
	if h == nil || h.session == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	spaceID, err := strconv.Atoi(rawSpaceID)
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidSpaceID)
		return
	}

	favorite, err := h.session.IsFavorite(ctx, spaceID)
	if err != nil {
		handlerLogger(ctx, h.logger, "FavoriteHandler", "Check", "space_id", spaceID).
			ErrorContext(ctx, "failed to check favorite", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	h.responder.writeSuccess(ctx, w, http.StatusOK, "", favoriteResponse{SpaceID: spaceID, Favorite: favorite})
}

func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request, rawSpaceID string) {
	if h == nil || h.session == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	spaceID, err := strconv.Atoi(rawSpaceID)
	if err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidSpaceID)
		return
	}

	logger := handlerLogger(ctx, h.logger, "FavoriteHandler", "Toggle", "space_id", spaceID)
	profile, ok, err := h.session.ToggleFavorite(ctx, spaceID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to toggle favorite", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		h.responder.writeFailure(ctx, w, http.StatusUnauthorized, errNotSignedIn.Error())
		return
	}

	resp := favoriteResponse{
		SpaceID:   spaceID,
		Favorite:  slices.Contains(profile.Favorites, spaceID),
		Favorites: profile.Favorites,
	}
	logger.InfoContext(ctx, "favorite toggled", "favorite", resp.Favorite)
	h.responder.writeSuccess(ctx, w, http.StatusOK, "", resp)
}
