package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/transitwatch/internal/common"
	"github.com/dmitrijs2005/transitwatch/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuth struct {
	id int64
	ok bool
}

func (a staticAuth) Authenticate(r *http.Request) (int64, bool) {
	return a.id, a.ok
}

func TestWithLogging_AssignsRequestID(t *testing.T) {
	mw := NewMiddleware(discardLogger(), staticAuth{})

	var seen string
	h := mw.WithLogging(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/x", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	got := w.Header().Get(common.RequestIDHeaderName)
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
	assert.Equal(t, got, seen)
}

func TestWithLogging_HandlerLogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(logging.Options{Output: &buf})
	require.NoError(t, err)
	mw := NewMiddleware(log, staticAuth{})

	h := mw.WithLogging(func(w http.ResponseWriter, r *http.Request) {
		log.Info(r.Context(), "file delivered")
	})

	id := uuid.NewString()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set(common.RequestIDHeaderName, id)
	h(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		assert.Equal(t, id, rec["request_id"], line)
	}
}

func TestWithLogging_KeepsIncomingRequestID(t *testing.T) {
	mw := NewMiddleware(discardLogger(), staticAuth{})
	h := mw.WithLogging(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	id := uuid.NewString()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set(common.RequestIDHeaderName, id)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, id, w.Header().Get(common.RequestIDHeaderName))
	assert.Equal(t, "ok", w.Body.String())
}

func TestWithLogging_ReplacesGarbageRequestID(t *testing.T) {
	mw := NewMiddleware(discardLogger(), staticAuth{})
	h := mw.WithLogging(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set(common.RequestIDHeaderName, "<script>")
	w := httptest.NewRecorder()
	h(w, req)

	assert.NotEqual(t, "<script>", w.Header().Get(common.RequestIDHeaderName))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSession(t *testing.T) {
	t.Run("rejects anonymous caller", func(t *testing.T) {
		called := false
		mw := NewMiddleware(discardLogger(), staticAuth{})
		h := mw.RequireSession(func(w http.ResponseWriter, r *http.Request) { called = true })

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/x", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called)
	})

	t.Run("passes user id on", func(t *testing.T) {
		var got int64
		mw := NewMiddleware(discardLogger(), staticAuth{id: 42, ok: true})
		h := mw.RequireSession(func(w http.ResponseWriter, r *http.Request) {
			got, _ = UserIDFromContext(r.Context())
		})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/x", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(42), got)
	})
}
