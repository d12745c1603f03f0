package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/transitwatch/internal/logging"
	"github.com/dmitrijs2005/transitwatch/internal/server/metrics"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
	"github.com/dmitrijs2005/transitwatch/internal/server/tokens"
)

const (
	msgSubmissionCreated = "Dataset created successfully"
	msgSubmissionStale   = "View already classified"
)

type SubmissionResolver interface {
	ResolveSubmission(ctx context.Context, sub models.Submission) (models.SubmissionOutcome, error)
}

// ViewEncoder mints continuation tokens.
type ViewEncoder interface {
	Encode(purpose tokens.Purpose, value int) (string, error)
}

// SessionClearer ends the caller's session.
type SessionClearer interface {
	Clear(w http.ResponseWriter)
}

// SubmissionHandler accepts classifications and hands back the token for the
// next view.
type SubmissionHandler struct {
	resolver SubmissionResolver
	encoder  ViewEncoder
	sessions SessionClearer
	log      logging.Logger
}

func NewSubmissionHandler(resolver SubmissionResolver, encoder ViewEncoder, sessions SessionClearer, log logging.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		resolver: resolver,
		encoder:  encoder,
		sessions: sessions,
		log:      log.With("module", "submissions"),
	}
}

// Submit handles POST /post.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		ErrorResponse(w, http.StatusUnauthorized, "login required")
		return
	}

	var req models.SubmitRequest
	if err := ParseJSONBody(w, r, &req); err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		WriteError(ctx, w, h.log, err)
		return
	}

	sub, err := req.Validate(userID)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		WriteError(ctx, w, h.log, err)
		return
	}

	out, err := h.resolver.ResolveSubmission(ctx, sub)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		WriteError(ctx, w, h.log, err)
		return
	}

	if out.Complete {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeComplete).Inc()
		h.sessions.Clear(w)
		JSONResponse(w, http.StatusOK, models.LogoutResponse{Logout: true})
		return
	}

	token, err := h.encoder.Encode(tokens.PurposeView, out.ViewIndex)
	if err != nil {
		WriteError(ctx, w, h.log, err)
		return
	}

	resp := models.SubmitResponse{Message: msgSubmissionCreated, DownloadToken: token}
	if out.Stale {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeStale).Inc()
		resp.Message = msgSubmissionStale
	} else {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	}

	JSONResponse(w, http.StatusCreated, resp)
}
