package admin

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/transitwatch/internal/common"
	"github.com/dmitrijs2005/transitwatch/internal/dbx"
	"github.com/dmitrijs2005/transitwatch/internal/logging"
	"github.com/dmitrijs2005/transitwatch/internal/server/config"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/posts"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/users"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/views"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type store struct {
	mu       sync.Mutex
	users    []*models.User
	views    []models.UserView
	posts    []models.Post
	migrated bool

	createErr error
}

func (s *store) addUsers(n int) {
	for i := 0; i < n; i++ {
		s.users = append(s.users, &models.User{ID: int64(len(s.users) + 1)})
	}
}

type usersRepo struct{ s *store }

func (r usersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createErr != nil {
		return nil, r.s.createErr
	}
	for _, existing := range r.s.users {
		if existing.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	u.ID = int64(len(r.s.users) + 1)
	cp := *u
	r.s.users = append(r.s.users, &cp)
	return u, nil
}

func (r usersRepo) GetByUserName(ctx context.Context, name string) (*models.User, error) {
	return nil, common.ErrorNotFound
}

func (r usersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return nil, common.ErrorNotFound
}

func (r usersRepo) GetProgressForUpdate(ctx context.Context, id int64) (*models.Progress, error) {
	return nil, common.ErrorNotFound
}

func (r usersRepo) AdvanceProgress(ctx context.Context, id int64, viewIndex int) error {
	return common.ErrorNotFound
}

func (r usersRepo) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	return nil, nil
}

func (r usersRepo) ListIDs(ctx context.Context) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]int64, 0, len(r.s.users))
	for _, u := range r.s.users {
		ids = append(ids, u.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type viewsRepo struct{ s *store }

func (r viewsRepo) GetFileID(ctx context.Context, userID int64, viewOrder int) (int, error) {
	return 0, common.ErrorNotFound
}

func (r viewsRepo) CreateBatch(ctx context.Context, v []models.UserView) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.views = append(r.s.views, v...)
	return nil
}

func (r viewsRepo) CountForUser(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

func (r viewsRepo) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.views = nil
	return nil
}

type postsRepo struct{ s *store }

func (r postsRepo) Create(ctx context.Context, p *models.Post) error {
	r.s.posts = append(r.s.posts, *p)
	return nil
}

func (r postsRepo) Each(ctx context.Context, fn func(models.Post) error) error {
	for _, p := range r.s.posts {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

type repoManager struct{ s *store }

func (m repoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	m.s.migrated = true
	return nil
}
func (m repoManager) Users(db dbx.DBTX) users.Repository { return usersRepo{m.s} }
func (m repoManager) Views(db dbx.DBTX) views.Repository { return viewsRepo{m.s} }
func (m repoManager) Posts(db dbx.DBTX) posts.Repository { return postsRepo{m.s} }

type fakeUploader struct {
	files map[string][]byte
	err   error
}

func (u *fakeUploader) Put(ctx context.Context, name string, body io.Reader, size int64) error {
	if u.err != nil {
		return u.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if u.files == nil {
		u.files = map[string][]byte{}
	}
	u.files[name] = b
	return nil
}

// newRuntime returns a runtime over an in-memory store and a sqlmock
// database for the transactions.
func newRuntime(t *testing.T, cfg *config.Config) (*Runtime, *store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if cfg == nil {
		cfg = &config.Config{}
		cfg.LoadDefaults()
	}

	s := &store{}
	up := &fakeUploader{}
	return &Runtime{
		Config: cfg,
		DB:     db,
		Repos:  repoManager{s},
		Log:    discardLogger(),
		NewUploader: func(ctx context.Context, prefix string) (Uploader, error) {
			return up, nil
		},
		Out: &bytes.Buffer{},
	}, s, mock
}
