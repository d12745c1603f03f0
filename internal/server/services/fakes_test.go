package services

import (
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
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/posts"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/users"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/views"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type viewKey struct {
	userID    int64
	viewOrder int
}

// fakeStore backs all three fake repositories with in-memory state.
type fakeStore struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	views  map[viewKey]int
	posts  []models.Post
	nextID int64

	progressErr error
	viewErr     error
	postErr     error
	advanceErr  error
	createErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[int64]*models.User{}, views: map[viewKey]int{}}
}

func (s *fakeStore) addUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
	if u.ID > s.nextID {
		s.nextID = u.ID
	}
}

func (s *fakeStore) assign(userID int64, fileIDs ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range fileIDs {
		s.views[viewKey{userID, i + 1}] = f
	}
}

func (s *fakeStore) user(id int64) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

type fakeUsersRepo struct{ s *fakeStore }

func (r fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
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
	r.s.nextID++
	u.ID = r.s.nextID
	u.ViewIndex = 1
	cp := *u
	r.s.users[u.ID] = &cp
	return u, nil
}

func (r fakeUsersRepo) GetByUserName(ctx context.Context, name string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.UserName == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.progressErr != nil {
		return nil, r.s.progressErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r fakeUsersRepo) GetProgressForUpdate(ctx context.Context, id int64) (*models.Progress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.progressErr != nil {
		return nil, r.s.progressErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &models.Progress{UserID: id, ViewIndex: u.ViewIndex, ClassifiedFileCount: u.ClassifiedFileCount}, nil
}

func (r fakeUsersRepo) AdvanceProgress(ctx context.Context, id int64, viewIndex int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.advanceErr != nil {
		return r.s.advanceErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.ViewIndex = viewIndex
	u.ClassifiedFileCount++
	return nil
}

func (r fakeUsersRepo) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.LeaderboardEntry, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, models.LeaderboardEntry{UserName: u.UserName, ClassifiedFileCount: u.ClassifiedFileCount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassifiedFileCount > out[j].ClassifiedFileCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeUsersRepo) ListIDs(ctx context.Context) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]int64, 0, len(r.s.users))
	for id := range r.s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type fakeViewsRepo struct{ s *fakeStore }

func (r fakeViewsRepo) GetFileID(ctx context.Context, userID int64, viewOrder int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.viewErr != nil {
		return 0, r.s.viewErr
	}
	f, ok := r.s.views[viewKey{userID, viewOrder}]
	if !ok {
		return 0, common.ErrorNotFound
	}
	return f, nil
}

func (r fakeViewsRepo) CreateBatch(ctx context.Context, vs []models.UserView) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range vs {
		r.s.views[viewKey{v.UserID, v.ViewOrder}] = v.FileID
	}
	return nil
}

func (r fakeViewsRepo) CountForUser(ctx context.Context, userID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for k := range r.s.views {
		if k.userID == userID {
			n++
		}
	}
	return n, nil
}

func (r fakeViewsRepo) DeleteAll(ctx context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.views = map[viewKey]int{}
	return nil
}

type fakePostsRepo struct{ s *fakeStore }

func (r fakePostsRepo) Create(ctx context.Context, p *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.postErr != nil {
		return r.s.postErr
	}
	p.ID = int64(len(r.s.posts) + 1)
	r.s.posts = append(r.s.posts, *p)
	return nil
}

func (r fakePostsRepo) Each(ctx context.Context, fn func(models.Post) error) error {
	r.s.mu.Lock()
	cp := append([]models.Post(nil), r.s.posts...)
	r.s.mu.Unlock()
	for _, p := range cp {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

type fakeRepoManager struct{ s *fakeStore }

func (m fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return fakeUsersRepo{m.s} }
func (m fakeRepoManager) Views(db dbx.DBTX) views.Repository           { return fakeViewsRepo{m.s} }
func (m fakeRepoManager) Posts(db dbx.DBTX) posts.Repository           { return fakePostsRepo{m.s} }
