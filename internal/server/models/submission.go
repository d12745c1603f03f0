package models

import (
	"fmt"

	"github.com/dmitrijs2005/transitwatch/internal/common"
)

const (
	MinCertainty = 0
	MaxCertainty = 2
)

// Submission is a validated classification as handed to the resolver.
type Submission struct {
	UserID           int64
	ClaimedViewIndex int
	ClaimedFileID    int
	Marks            []float64
	Certainty        int
}

// SubmissionOutcome reports what the resolver did with a Submission.
//
// Stale submissions changed nothing; ViewIndex then holds the user's actual
// cursor. Complete means the user exhausted the batch and was reset to 1.
type SubmissionOutcome struct {
	ViewIndex int
	Stale     bool
	Complete  bool
	Records   int
}

// File types served to clients.
const (
	FileTypeData   = "file"
	FileTypeModels = "models"
)

// Delivery identifies a file to stream back to a client. Source tells
// whether the view index came from a continuation token or the user record.
type Delivery struct {
	FileID    int
	ViewIndex int
	FileName  string
	Source    string
}

// SubmitRequest is the body of POST /post. Pointers distinguish missing
// fields and null marks from zero values.
type SubmitRequest struct {
	Time          *[]*float64 `json:"time"`
	Certainty     *int        `json:"certainty"`
	FileIDUser    *int        `json:"file_id_user"`
	ViewIndexUser *int        `json:"view_index_user"`
}

// Validate checks presence and ranges and converts the request into a
// Submission for userID. Errors wrap common.ErrorValidation.
func (r *SubmitRequest) Validate(userID int64) (Submission, error) {
	switch {
	case r.Time == nil:
		return Submission{}, fmt.Errorf("%w: time is required", common.ErrorValidation)
	case r.Certainty == nil:
		return Submission{}, fmt.Errorf("%w: certainty is required", common.ErrorValidation)
	case r.FileIDUser == nil:
		return Submission{}, fmt.Errorf("%w: file_id_user is required", common.ErrorValidation)
	case r.ViewIndexUser == nil:
		return Submission{}, fmt.Errorf("%w: view_index_user is required", common.ErrorValidation)
	}

	if c := *r.Certainty; c < MinCertainty || c > MaxCertainty {
		return Submission{}, fmt.Errorf("%w: certainty must be between %d and %d, got %d",
			common.ErrorValidation, MinCertainty, MaxCertainty, c)
	}
	if *r.FileIDUser < 1 {
		return Submission{}, fmt.Errorf("%w: file_id_user must be positive", common.ErrorValidation)
	}
	if *r.ViewIndexUser < 1 {
		return Submission{}, fmt.Errorf("%w: view_index_user must be positive", common.ErrorValidation)
	}

	marks := make([]float64, len(*r.Time))
	for i, m := range *r.Time {
		if m == nil {
			return Submission{}, fmt.Errorf("%w: time[%d] must be a number", common.ErrorValidation, i)
		}
		marks[i] = *m
	}

	return Submission{
		UserID:           userID,
		ClaimedViewIndex: *r.ViewIndexUser,
		ClaimedFileID:    *r.FileIDUser,
		Marks:            marks,
		Certainty:        *r.Certainty,
	}, nil
}

type SubmitResponse struct {
	Message       string `json:"message"`
	DownloadToken string `json:"downloadToken"`
}

type LogoutResponse struct {
	Logout bool `json:"logout"`
}

// TutorialDelivery identifies a tutorial file. NextToken unlocks the
// following tutorial index.
type TutorialDelivery struct {
	FileID    int
	FileType  string
	FileName  string
	NextToken string
}
