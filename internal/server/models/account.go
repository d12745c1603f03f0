package models

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/transitwatch/internal/common"
)

const MinPasswordLength = 6

type RegisterRequest struct {
	UserName string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	r.UserName = strings.TrimSpace(r.UserName)
	r.Email = strings.TrimSpace(r.Email)

	if r.UserName == "" {
		return fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if len(r.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			return fmt.Errorf("%w: invalid email", common.ErrorValidation)
		}
	}
	return nil
}

type LoginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.UserName) == "" || r.Password == "" {
		return fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	}
	return nil
}

type AuthResponse struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}

type ProfileResponse struct {
	UserName            string             `json:"username"`
	ClassifiedFileCount int64              `json:"classified_file_count"`
	ViewIndex           int                `json:"view_index"`
	TopUsers            []LeaderboardEntry `json:"top_users"`
}
