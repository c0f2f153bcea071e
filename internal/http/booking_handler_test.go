package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/cobunny/internal/application"
	httpapi "github.com/example/cobunny/internal/http"
	"github.com/example/cobunny/internal/testfixtures"
)

// staleLedger answers lookups with a record that differs from what the
// mutators return, as if another request had changed it in between.
type staleLedger struct {
	mutated application.Booking
	stale   application.Booking
}

func (l staleLedger) Add(context.Context, application.BookingInput) (application.Booking, error) {
	return l.mutated, nil
}
func (l staleLedger) ListForUser(int) []application.Booking { return nil }
func (l staleLedger) GetByID(int) (application.Booking, bool) {
	return l.stale, true
}
func (l staleLedger) Update(context.Context, int, application.BookingPatch) (application.Booking, bool, error) {
	return l.mutated, true, nil
}
func (l staleLedger) SetStatus(context.Context, int, string) (application.Booking, bool, error) {
	return l.mutated, true, nil
}
func (l staleLedger) Cancel(context.Context, int) (application.Booking, bool, error) {
	return l.mutated, true, nil
}
func (l staleLedger) Remove(context.Context, int) (bool, error) { return true, nil }
func (l staleLedger) Stats() application.BookingStats        { return application.BookingStats{} }

func TestBookingHandler_MutationsRenderTheMutatedRecord(t *testing.T) {
	ledger := staleLedger{
		mutated: application.Booking{ID: 5, Status: application.StatusCancelled},
		stale:   application.Booking{ID: 5, Status: "rebooked"},
	}
	handler := httpapi.NewBookingHandler(ledger, testfixtures.DiscardLogger())

	cases := []struct {
		name string
		call func(w http.ResponseWriter, r *http.Request)
		body string
	}{
		{name: "cancel", call: func(w http.ResponseWriter, r *http.Request) { handler.Cancel(w, r, "5") }},
		{name: "status", call: func(w http.ResponseWriter, r *http.Request) { handler.SetStatus(w, r, "5") }, body: `{"status":"cancelled"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.call(rec, httptest.NewRequest(http.MethodPost, "/bookings/5", bytes.NewBufferString(tc.body)))
			require.Equal(t, http.StatusOK, rec.Code)

			var env struct {
				Success bool                `json:"success"`
				Data    application.Booking `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.True(t, env.Success)
			assert.Equal(t, application.StatusCancelled, env.Data.Status)
		})
	}
}
