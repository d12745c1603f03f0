package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/transitwatch/internal/common"
	"github.com/dmitrijs2005/transitwatch/internal/dbx"
	"github.com/dmitrijs2005/transitwatch/internal/logging"
	"github.com/dmitrijs2005/transitwatch/internal/server/metrics"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/transitwatch/internal/server/tokens"
)

// ViewDecoder reads the view index out of a continuation token.
type ViewDecoder interface {
	Decode(purpose tokens.Purpose, token string) (int, bool)
}

// ViewResolver maps users onto their assigned files and moves their cursor
// forward as classifications come in.
type ViewResolver struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	partition   Partition
	decoder     ViewDecoder
	fileExt     string
	log         logging.Logger
}

func NewViewResolver(db *sql.DB, m repomanager.RepositoryManager, p Partition, d ViewDecoder, fileExt string, log logging.Logger) *ViewResolver {
	return &ViewResolver{
		db:          db,
		repomanager: m,
		partition:   p,
		decoder:     d,
		fileExt:     fileExt,
		log:         log.With("module", "resolver"),
	}
}

// ResolveSubmission records sub and advances the user's cursor.
//
// The user row is locked for the whole read-modify-write, so two concurrent
// submissions for the same user are applied one after the other and the
// second one sees the advanced cursor and is reported as stale.
func (s *ViewResolver) ResolveSubmission(ctx context.Context, sub models.Submission) (models.SubmissionOutcome, error) {
	var out models.SubmissionOutcome

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		progress, err := users.GetProgressForUpdate(ctx, sub.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("user %d: %w", sub.UserID, common.ErrorNotFound)
			}
			return fmt.Errorf("load progress: %w", err)
		}

		if progress.ViewIndex != sub.ClaimedViewIndex {
			out = models.SubmissionOutcome{ViewIndex: progress.ViewIndex, Stale: true}
			return nil
		}

		fileID, err := s.repomanager.Views(tx).GetFileID(ctx, sub.UserID, progress.ViewIndex)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("view %d of user %d: %w", progress.ViewIndex, sub.UserID, common.ErrorNotFound)
			}
			return fmt.Errorf("resolve view: %w", err)
		}
		if fileID != sub.ClaimedFileID {
			return fmt.Errorf("%w: user %d view %d is file %d, client claimed %d",
				common.ErrorIntegrityMismatch, sub.UserID, progress.ViewIndex, fileID, sub.ClaimedFileID)
		}

		records := ledgerRecords(fileID, sub)
		postsRepo := s.repomanager.Posts(tx)
		for i := range records {
			if err := postsRepo.Create(ctx, &records[i]); err != nil {
				return fmt.Errorf("append ledger: %w", err)
			}
		}

		next := progress.ViewIndex + 1
		complete := next == s.partition.BatchSize(sub.UserID)+1
		if complete {
			next = 1
		}

		if err := users.AdvanceProgress(ctx, sub.UserID, next); err != nil {
			return fmt.Errorf("advance progress: %w", err)
		}

		out = models.SubmissionOutcome{ViewIndex: next, Complete: complete, Records: len(records)}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorIntegrityMismatch):
			s.log.Warn(ctx, "submission rejected", "user_id", sub.UserID, "view_index", sub.ClaimedViewIndex, "error", err)
		case errors.Is(err, common.ErrorNotFound):
			s.log.Info(ctx, "submission for unknown user or view", "user_id", sub.UserID, "view_index", sub.ClaimedViewIndex, "error", err)
		default:
			s.log.Error(ctx, "submission failed", "user_id", sub.UserID, "view_index", sub.ClaimedViewIndex, "error", err)
		}
		return models.SubmissionOutcome{}, err
	}

	if out.Stale {
		s.log.Info(ctx, "stale submission ignored", "user_id", sub.UserID,
			"claimed_view_index", sub.ClaimedViewIndex, "view_index", out.ViewIndex)
		return out, nil
	}

	metrics.LedgerRecordsTotal.Add(float64(out.Records))
	s.log.Debug(ctx, "submission recorded", "user_id", sub.UserID, "records", out.Records,
		"view_index", out.ViewIndex, "complete", out.Complete)
	return out, nil
}

// ledgerRecords expands a submission into one record per mark, or a single
// NULL-time record when nothing was marked.
func ledgerRecords(fileID int, sub models.Submission) []models.Post {
	if len(sub.Marks) == 0 {
		return []models.Post{{FileID: fileID, UserID: sub.UserID, Certainty: sub.Certainty}}
	}

	records := make([]models.Post, len(sub.Marks))
	for i, t := range sub.Marks {
		records[i] = models.Post{
			FileID:    fileID,
			UserID:    sub.UserID,
			Time:      sql.NullFloat64{Float64: t, Valid: true},
			Certainty: sub.Certainty,
		}
	}
	return records
}

// ResolveFileForDelivery picks the file of type fileType the user should see.
// A valid continuation token wins over the stored cursor, since the cursor
// may already have moved past the view the token unlocked.
func (s *ViewResolver) ResolveFileForDelivery(ctx context.Context, userID int64, token, fileType string) (models.Delivery, error) {
	if fileType != models.FileTypeData && fileType != models.FileTypeModels {
		return models.Delivery{}, fmt.Errorf("%w: unknown file type %q", common.ErrorValidation, fileType)
	}

	viewIndex, ok := s.decoder.Decode(tokens.PurposeView, token)
	source := metrics.SourceToken
	if !ok {
		source = metrics.SourceSession
		user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return models.Delivery{}, fmt.Errorf("user %d: %w", userID, common.ErrorNotFound)
			}
			return models.Delivery{}, fmt.Errorf("load user: %w", err)
		}
		viewIndex = user.ViewIndex
	}

	fileID, err := s.repomanager.Views(s.db).GetFileID(ctx, userID, viewIndex)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.Delivery{}, fmt.Errorf("view %d of user %d: %w", viewIndex, userID, common.ErrorNotFound)
		}
		return models.Delivery{}, fmt.Errorf("resolve view: %w", err)
	}

	return models.Delivery{
		FileID:    fileID,
		ViewIndex: viewIndex,
		FileName:  FileName(fileType, fileID, s.fileExt),
		Source:    source,
	}, nil
}

// FileName builds "<type>_<id>.<ext>".
func FileName(fileType string, id int, ext string) string {
	return fmt.Sprintf("%s_%d.%s", fileType, id, ext)
}
