package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/transitwatch/internal/common"
	"github.com/dmitrijs2005/transitwatch/internal/logging"
	"github.com/dmitrijs2005/transitwatch/internal/server/metrics"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
	"github.com/dmitrijs2005/transitwatch/internal/server/storage"
)

type TutorialResolver interface {
	Resolve(fileType, rawIndex, token string) (models.TutorialDelivery, error)
}

// TutorialHandler serves practice files. No session is needed.
type TutorialHandler struct {
	tutorial TutorialResolver
	store    storage.FileStore
	log      logging.Logger
}

func NewTutorialHandler(tutorial TutorialResolver, store storage.FileStore, log logging.Logger) *TutorialHandler {
	return &TutorialHandler{tutorial: tutorial, store: store, log: log.With("module", "tutorial")}
}

// Get handles GET /tutorial/{fileType}/{fileIndex}.
func (h *TutorialHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := h.tutorial.Resolve(r.PathValue("fileType"), r.PathValue("fileIndex"), r.URL.Query().Get("token"))
	if err != nil {
		WriteError(ctx, w, h.log, err)
		return
	}

	obj, err := h.store.Open(ctx, d.FileName)
	if err != nil {
		WriteError(ctx, w, h.log, err)
		return
	}
	defer obj.Body.Close()

	w.Header().Set(common.FileIDHeaderName, strconv.Itoa(d.FileID))
	w.Header().Set(common.NextTokenHeaderName, d.NextToken)
	streamFile(ctx, w, h.log, obj, d.FileName)

	metrics.DeliveriesTotal.WithLabelValues(d.FileType, metrics.SourceTutorial).Inc()
}
