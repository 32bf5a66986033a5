package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philjnicholls/sendtokindle/internal/api/domain"
)

func TestHTTPPageChecker(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "ok", status: http.StatusOK},
		{name: "redirect target ok", status: http.StatusNoContent},
		{name: "not found", status: http.StatusNotFound, wantErr: domain.ErrPageNotFound},
		{name: "gone", status: http.StatusGone, wantErr: domain.ErrPageNotFound},
		{name: "server error", status: http.StatusInternalServerError, wantErr: domain.ErrPageUnreachable},
		{name: "forbidden", status: http.StatusForbidden, wantErr: domain.ErrPageUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			checker := NewHTTPPageChecker(5 * time.Second)
			err := checker.Check(context.Background(), srv.URL)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHTTPPageChecker_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	checker := NewHTTPPageChecker(time.Second)
	err := checker.Check(context.Background(), url)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPageUnreachable)
}
