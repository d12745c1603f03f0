// Package server wires the classification server together: database,
// migrations, file storage, the view resolver and the HTTP surface. It also
// handles graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/transitwatch/internal/logging"
	"github.com/dmitrijs2005/transitwatch/internal/server/auth"
	"github.com/dmitrijs2005/transitwatch/internal/server/config"
	"github.com/dmitrijs2005/transitwatch/internal/server/httpapi"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/transitwatch/internal/server/services"
	"github.com/dmitrijs2005/transitwatch/internal/server/storage"
	"github.com/dmitrijs2005/transitwatch/internal/server/tokens"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

// openDB is a seam for tests.
var openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{
		Backend: c.LogBackend,
		Format:  c.LogFormat,
		Level:   c.LogLevel,
		Output:  os.Stdout,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	dataStore, tutorialStore, err := newFileStores(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	handler := newHandler(c, db, repos, dataStore, tutorialStore, logger)
	srv := httpapi.NewServer(c.HTTPAddr, handler, c.ShutdownTimeout, logger)

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

// newHandler builds the services and the router on top of db.
func newHandler(c *config.Config, db *sql.DB, repos repomanager.RepositoryManager,
	dataStore, tutorialStore storage.FileStore, logger logging.Logger) http.Handler {
	secret := []byte(c.SecretKey)
	codec := tokens.NewCodec(secret, c.ContinuationTokenTTL)
	sessions := auth.NewSessionAuthenticator(secret, c.SessionTokenTTL, c.SecureCookies)

	partition := services.Partition{NrUsers: c.NrUsers, MaxFileID: c.MaxFileID}
	resolver := services.NewViewResolver(db, repos, partition, codec, c.FileExtension, logger)
	accounts := services.NewAccountService(db, repos, logger)
	tutorial := services.NewTutorialFiles(c.TutorialFiles, c.FileExtension, codec)

	h := httpapi.Handlers{
		Files:       httpapi.NewFileHandler(resolver, dataStore, logger),
		Submissions: httpapi.NewSubmissionHandler(resolver, codec, sessions, logger),
		Accounts:    httpapi.NewAccountHandler(accounts, sessions, logger),
		Tutorial:    httpapi.NewTutorialHandler(tutorial, tutorialStore, logger),
	}
	return httpapi.NewRouter(h, httpapi.NewMiddleware(logger, sessions))
}

// newFileStores returns the stores for assigned files and tutorial files.
func newFileStores(ctx context.Context, c *config.Config) (storage.FileStore, storage.FileStore, error) {
	switch c.StorageBackend {
	case config.StorageS3:
		client, err := storage.NewS3Client(ctx, storage.S3Settings{
			User:         c.S3RootUser,
			Password:     c.S3RootPassword,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		return storage.NewS3Store(client, c.S3Bucket, c.S3Prefix),
			storage.NewS3Store(client, c.S3Bucket, c.S3TutorialPrefix()), nil
	default:
		return storage.NewLocalStore(c.DataDir),
			storage.NewLocalStore(storage.ResolveDir(c.TutorialDir, c.DataDir)), nil
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
