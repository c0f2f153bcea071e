package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/cobunny/internal/application"
)

type bookingLedger interface {
	Add(ctx context.Context, input application.BookingInput) (application.Booking, error)
	ListForUser(userID int) []application.Booking
	GetByID(id int) (application.Booking, bool)
	Update(ctx context.Context, id int, patch application.BookingPatch) (application.Booking, bool, error)
	SetStatus(ctx context.Context, id int, status string) (application.Booking, bool, error)
	Cancel(ctx context.Context, id int) (application.Booking, bool, error)
	Remove(ctx context.Context, id int) (bool, error)
	Stats() application.BookingStats
}

type BookingHandler struct {
	ledger    bookingLedger
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(ledger bookingLedger, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{ledger: ledger, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.ledger == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	profile, ok := ProfileFromContext(ctx)
	if !ok {
		h.responder.writeFailure(ctx, w, http.StatusUnauthorized, errNotSignedIn.Error())
		return
	}
	h.responder.writeSuccess(ctx, w, http.StatusOK, "", h.ledger.ListForUser(profile.ID))
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	profile, ok := ProfileFromContext(ctx)
	if !ok {
		h.responder.writeFailure(ctx, w, http.StatusUnauthorized, errNotSignedIn.Error())
		return
	}

	var input application.BookingInput
	if !h.responder.decode(ctx, w, r, &input) {
		return
	}
	input.UserID = profile.ID

	booking, err := h.ledger.Add(ctx, input)
	if err != nil {
		h.log(ctx, "Create", "user_id", profile.ID).
			ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	h.responder.writeSuccess(ctx, w, http.StatusCreated, "Booking confirmed", booking)
}

func (h *BookingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "", h.ledger.Stats())
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request, rawID string) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	id, ok := h.parseID(ctx, w, rawID)
	if !ok {
		return
	}
	booking, found := h.ledger.GetByID(id)
	if !found {
		h.responder.writeFailure(ctx, w, http.StatusNotFound, errBookingNotFound.Error())
		return
	}
	h.responder.writeSuccess(ctx, w, http.StatusOK, "", booking)
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, rawID string) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	id, ok := h.parseID(ctx, w, rawID)
	if !ok {
		return
	}
	var patch application.BookingPatch
	if !h.responder.decode(ctx, w, r, &patch) {
		return
	}

	booking, found, err := h.ledger.Update(ctx, id, patch)
	if err != nil {
		h.log(ctx, "Update", "booking_id", id).
			ErrorContext(ctx, "failed to update booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		h.responder.writeFailure(ctx, w, http.StatusNotFound, errBookingNotFound.Error())
		return
	}
	h.responder.writeSuccess(ctx, w, http.StatusOK, "Booking updated", booking)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, rawID string) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	id, ok := h.parseID(ctx, w, rawID)
	if !ok {
		return
	}
	booking, found, err := h.ledger.Cancel(ctx, id)
	h.writeMutation(ctx, w, "Cancel", id, found, err, "Booking cancelled", booking)
}

func (h *BookingHandler) SetStatus(w http.ResponseWriter, r *http.Request, rawID string) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	id, ok := h.parseID(ctx, w, rawID)
	if !ok {
		return
	}
	var req statusRequest
	if !h.responder.decode(ctx, w, r, &req) {
		return
	}
	booking, found, err := h.ledger.SetStatus(ctx, id, req.Status)
	h.writeMutation(ctx, w, "SetStatus", id, found, err, "Booking status updated", booking)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, rawID string) {
	if !h.ready(w) {
		return
	}
	ctx := r.Context()

	id, ok := h.parseID(ctx, w, rawID)
	if !ok {
		return
	}
	found, err := h.ledger.Remove(ctx, id)
	h.writeMutation(ctx, w, "Delete", id, found, err, "Booking removed", nil)
}

// writeMutation renders cancel, status and delete results. A missing booking
// is reported in the envelope without an error status.
func (h *BookingHandler) writeMutation(ctx context.Context, w http.ResponseWriter, operation string, id int, found bool, err error, message string, data any) {
	if err != nil {
		h.log(ctx, operation, "booking_id", id).
			ErrorContext(ctx, "booking mutation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		h.responder.writeFailure(ctx, w, http.StatusOK, errBookingNotFound.Error())
		return
	}
	h.responder.writeSuccess(ctx, w, http.StatusOK, message, data)
}

func (h *BookingHandler) parseID(ctx context.Context, w http.ResponseWriter, raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidBookingID)
		return 0, false
	}
	return id, true
}
