package session

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ugc-tracker/internal/gate"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

type resolverFunc func(r *http.Request) middlewarectx.Outcome

func (f resolverFunc) Resolve(r *http.Request) middlewarectx.Outcome { return f(r) }

func TestSessionHandler(t *testing.T) {
	tests := []struct {
		name    string
		outcome middlewarectx.Outcome
		want    Report
	}{
		{
			name: "authorized",
			outcome: middlewarectx.Outcome{
				State:   gate.Authorized,
				View:    gate.ViewChildren,
				Session: &models.Session{UserID: "u1", Email: "a@b.c", Role: models.RoleUser},
			},
			want: Report{
				State:   "authorized",
				View:    "children",
				Session: &models.Session{UserID: "u1", Email: "a@b.c", Role: models.RoleUser},
			},
		},
		{
			name: "unauthorized",
			outcome: middlewarectx.Outcome{
				State:    gate.Unauthorized,
				View:     gate.ViewNothing,
				Notice:   gate.NoticeSignIn,
				Redirect: "/login",
			},
			want: Report{State: "unauthorized", View: "nothing", Notice: gate.NoticeSignIn, Redirect: "/login"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), resolverFunc(func(*http.Request) middlewarectx.Outcome {
				return tt.outcome
			}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			var resp struct {
				Status string `json:"status"`
				Data   Report `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Data)
		})
	}
}
