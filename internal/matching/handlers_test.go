package matching

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func markRequest(t *testing.T, method, path, body string, matchID string) *http.Request {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	r := httptest.NewRequest(method, path, reader)
	return mux.SetURLVars(r, map[string]string{"id": matchID})
}

func TestMarkViewedHandlerStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		matchID    string
		serviceErr error
		wantStatus int
	}{
		{"success", uuid.NewString(), nil, http.StatusNoContent},
		{"invalid id", "not-a-uuid", nil, http.StatusBadRequest},
		{"data unavailable", uuid.NewString(), fmt.Errorf("%w: mark viewed: timeout", ErrDataUnavailable), http.StatusBadGateway},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newFakeEngineService()
			svc.markErr = tt.serviceErr
			handler := NewHandler(svc)

			w := httptest.NewRecorder()
			handler.MarkViewed(w, markRequest(t, "POST", "/daily/"+tt.matchID+"/viewed", "", tt.matchID))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestMarkLikedHandlerStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		matchID    string
		body       string
		serviceErr error
		wantStatus int
	}{
		{"success", uuid.NewString(), `{"liked":true}`, nil, http.StatusNoContent},
		{"missing liked field", uuid.NewString(), `{}`, nil, http.StatusBadRequest},
		{"invalid id", "not-a-uuid", `{"liked":true}`, nil, http.StatusBadRequest},
		{"data unavailable", uuid.NewString(), `{"liked":false}`, fmt.Errorf("%w: mark liked: timeout", ErrDataUnavailable), http.StatusBadGateway},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newFakeEngineService()
			svc.markErr = tt.serviceErr
			handler := NewHandler(svc)

			w := httptest.NewRecorder()
			handler.MarkLiked(w, markRequest(t, "POST", "/daily/"+tt.matchID+"/liked", tt.body, tt.matchID))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetCurrentDailyMatchHandlerStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"exhausted batch", nil, http.StatusOK},
		{"setup incomplete", ErrNoPreferenceSet, http.StatusOK},
		{"data unavailable", fmt.Errorf("%w: query candidates: timeout", ErrDataUnavailable), http.StatusBadGateway},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newFakeEngineService()
			svc.dailyErr = tt.serviceErr
			handler := NewHandler(svc)

			r := httptest.NewRequest("GET", "/daily", nil)
			r = r.WithContext(context.WithValue(r.Context(), "userID", int64(1)))

			w := httptest.NewRecorder()
			handler.GetCurrentDailyMatch(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestGetCurrentDailyMatchHandlerUnauthorized(t *testing.T) {
	t.Parallel()

	handler := NewHandler(newFakeEngineService())

	w := httptest.NewRecorder()
	handler.GetCurrentDailyMatch(w, httptest.NewRequest("GET", "/daily", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
