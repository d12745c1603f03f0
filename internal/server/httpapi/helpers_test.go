package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/transitwatch/internal/common"
	"github.com/dmitrijs2005/transitwatch/internal/logging"
	"github.com/dmitrijs2005/transitwatch/internal/server/auth"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
	"github.com/dmitrijs2005/transitwatch/internal/server/services"
	"github.com/dmitrijs2005/transitwatch/internal/server/storage"
	"github.com/dmitrijs2005/transitwatch/internal/server/tokens"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type memStore struct {
	files map[string][]byte
}

func (m *memStore) Open(ctx context.Context, name string) (*storage.Object, error) {
	b, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", name, common.ErrorNotFound)
	}
	return &storage.Object{Body: io.NopCloser(bytes.NewReader(b)), Size: int64(len(b))}, nil
}

// fakeResolver replays fixed answers and remembers what it was asked.
type fakeResolver struct {
	mu sync.Mutex

	delivery    models.Delivery
	deliveryErr error
	lastToken   string
	lastType    string

	outcome   models.SubmissionOutcome
	submitErr error
	submitted []models.Submission
}

func (f *fakeResolver) ResolveFileForDelivery(ctx context.Context, userID int64, token, fileType string) (models.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken, f.lastType = token, fileType
	if f.deliveryErr != nil {
		return models.Delivery{}, f.deliveryErr
	}
	d := f.delivery
	d.FileName = services.FileName(fileType, d.FileID, "csv.zlib")
	return d, nil
}

func (f *fakeResolver) ResolveSubmission(ctx context.Context, sub models.Submission) (models.SubmissionOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, sub)
	return f.outcome, f.submitErr
}

type fakeAccounts struct {
	users   map[string]*models.User
	nextID  int64
	profile *models.ProfileResponse
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{users: map[string]*models.User{}, nextID: 1}
}

func (f *fakeAccounts) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, ok := f.users[req.UserName]; ok {
		return nil, fmt.Errorf("username or email: %w", common.ErrorAlreadyExists)
	}
	u := &models.User{ID: f.nextID, UserName: req.UserName, PasswordHash: req.Password}
	f.nextID++
	f.users[u.UserName] = u
	return u, nil
}

func (f *fakeAccounts) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	u, ok := f.users[req.UserName]
	if !ok || u.PasswordHash != req.Password {
		return nil, common.ErrorUnauthorized
	}
	return u, nil
}

func (f *fakeAccounts) Profile(ctx context.Context, userID int64) (*models.ProfileResponse, error) {
	if f.profile == nil {
		return nil, fmt.Errorf("user %d: %w", userID, common.ErrorNotFound)
	}
	return f.profile, nil
}

type testEnv struct {
	mux      *http.ServeMux
	resolver *fakeResolver
	accounts *fakeAccounts
	store    *memStore
	sessions *auth.SessionAuthenticator
	codec    *tokens.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := discardLogger()
	env := &testEnv{
		resolver: &fakeResolver{},
		accounts: newFakeAccounts(),
		store:    &memStore{files: map[string][]byte{}},
		sessions: auth.NewSessionAuthenticator(testSecret, time.Hour, false),
		codec:    tokens.NewCodec(testSecret, time.Minute),
	}

	h := Handlers{
		Files:       NewFileHandler(env.resolver, env.store, log),
		Submissions: NewSubmissionHandler(env.resolver, env.codec, env.sessions, log),
		Accounts:    NewAccountHandler(env.accounts, env.sessions, log),
		Tutorial:    NewTutorialHandler(services.NewTutorialFiles(10, "csv.zlib", env.codec), env.store, log),
	}
	env.mux = NewRouter(h, NewMiddleware(log, env.sessions))
	return env
}

// do sends a request, authenticated as userID when it is positive.
func (e *testEnv) do(t *testing.T, method, target, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		tok, err := auth.GenerateToken(userID, testSecret, time.Hour)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: tok})
	}

	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			return c
		}
	}
	return nil
}
