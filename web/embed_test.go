package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSPAHandler(t *testing.T) {
	t.Parallel()

	h := SPAHandler()
	tests := []struct {
		path       string
		wantStatus int
		wantPage   bool
	}{
		{"/", http.StatusOK, true},
		{"/results/123", http.StatusOK, true},
		{"/api/nope", http.StatusNotFound, false},
		{"/ws/other", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != tt.wantStatus {
			t.Fatalf("%s: status %d, want %d", tt.path, w.Code, tt.wantStatus)
		}
		if got := strings.Contains(w.Body.String(), "/ws/chat"); got != tt.wantPage {
			t.Fatalf("%s: page served = %v, want %v", tt.path, got, tt.wantPage)
		}
	}
}
