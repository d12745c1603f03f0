package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/transitwatch/internal/common"
	"github.com/dmitrijs2005/transitwatch/internal/cryptox"
	"github.com/dmitrijs2005/transitwatch/internal/logging"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/repomanager"
)

const leaderboardSize = 10

// dummyHash is compared against when the user does not exist, so unknown
// and known usernames take about the same time to reject.
var dummyHash = sync.OnceValue(func() string {
	h, _ := cryptox.HashPassword("transitwatch-dummy-password")
	return h
})

type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *AccountService {
	return &AccountService{db: db, repomanager: m, log: log.With("module", "accounts")}
}

func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		UserName:     req.UserName,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("username or email: %w", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByUserName(ctx, req.UserName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.CheckPassword(dummyHash(), req.Password)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !cryptox.CheckPassword(user.PasswordHash, req.Password) {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

// Profile returns the user's own progress plus the leaderboard.
func (s *AccountService) Profile(ctx context.Context, userID int64) (*models.ProfileResponse, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	top, err := repo.Top(ctx, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	return &models.ProfileResponse{
		UserName:            user.UserName,
		ClassifiedFileCount: user.ClassifiedFileCount,
		ViewIndex:           user.ViewIndex,
		TopUsers:            top,
	}, nil
}
