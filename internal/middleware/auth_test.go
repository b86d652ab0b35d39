package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BOOKWORM_BACK-END/internal/apperr"
	"BOOKWORM_BACK-END/internal/dto"
	"BOOKWORM_BACK-END/internal/logging"
	"BOOKWORM_BACK-END/internal/models"
)

type stubUsers map[uuid.UUID]models.User

func (s stubUsers) GetByID(_ context.Context, id uuid.UUID) (models.User, error) {
	if id == uuid.Nil {
		return models.User{}, errors.New("connection refused")
	}
	u, ok := s[id]
	if !ok {
		return models.User{}, apperr.ErrNotFound
	}
	return u, nil
}

func TestRequireAuth(t *testing.T) {
	tokens, _ := newTestTokens(t, "gate-secret")
	other, _ := newTestTokens(t, "another-secret")

	known := models.User{ID: uuid.New(), Username: "reader", Email: "reader@example.com"}
	users := stubUsers{known.ID: known}

	good, err := tokens.Issue(known.ID)
	require.NoError(t, err)
	ghost, err := tokens.Issue(uuid.New())
	require.NoError(t, err)
	forged, err := other.Issue(known.ID)
	require.NoError(t, err)
	broken, err := tokens.Issue(uuid.Nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantLog  string
	}{
		{name: "valid", header: "Bearer " + good, wantCode: http.StatusOK},
		{name: "missing header", header: "", wantCode: http.StatusUnauthorized, wantLog: "missing credential"},
		{name: "bearer only", header: "Bearer ", wantCode: http.StatusUnauthorized, wantLog: "missing credential"},
		{name: "bad signature", header: "Bearer " + forged, wantCode: http.StatusUnauthorized, wantLog: "token signature invalid"},
		{name: "garbage", header: "Bearer abc", wantCode: http.StatusUnauthorized, wantLog: "token malformed"},
		{name: "unknown user", header: "Bearer " + ghost, wantCode: http.StatusUnauthorized, wantLog: "token user not found"},
		{name: "lookup failure", header: "Bearer " + broken, wantCode: http.StatusUnauthorized, wantLog: "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			gate := NewAuthenticator(tokens, users, logging.New(&logs, "text", "debug"))

			called := false
			h := gate.RequireAuth(func(w http.ResponseWriter, r *http.Request, user models.User) {
				called = true
				assert.Equal(t, known.ID, user.ID)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.True(t, called)
				return
			}

			assert.False(t, called)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, dto.ErrorResponse{Error: "Unauthorized", Message: "Token is not valid"}, body)
			assert.Contains(t, logs.String(), tt.wantLog)
		})
	}
}

func TestAuthenticate_WrapsUnauthorized(t *testing.T) {
	tokens, _ := newTestTokens(t, "gate-secret")
	gate := NewAuthenticator(tokens, stubUsers{}, logging.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := gate.Authenticate(req)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	req.Header.Set("Authorization", "Bearer not-a-token")
	_, err = gate.Authenticate(req)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.ErrorIs(t, err, apperr.ErrTokenMalformed)
}
