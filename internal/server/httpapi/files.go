package httpapi

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/transitwatch/internal/common"
	"github.com/dmitrijs2005/transitwatch/internal/logging"
	"github.com/dmitrijs2005/transitwatch/internal/server/metrics"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
	"github.com/dmitrijs2005/transitwatch/internal/server/storage"
)

// DeliveryResolver picks the file a user should see next.
type DeliveryResolver interface {
	ResolveFileForDelivery(ctx context.Context, userID int64, token, fileType string) (models.Delivery, error)
}

// FileHandler streams light curves and their model fits.
type FileHandler struct {
	resolver DeliveryResolver
	store    storage.FileStore
	log      logging.Logger
}

func NewFileHandler(resolver DeliveryResolver, store storage.FileStore, log logging.Logger) *FileHandler {
	return &FileHandler{resolver: resolver, store: store, log: log.With("module", "files")}
}

// GetData handles GET /get_data[/{token}].
func (h *FileHandler) GetData(w http.ResponseWriter, r *http.Request) {
	h.deliver(w, r, models.FileTypeData)
}

// GetModels handles GET /get_models[/{token}].
func (h *FileHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	h.deliver(w, r, models.FileTypeModels)
}

func (h *FileHandler) deliver(w http.ResponseWriter, r *http.Request, fileType string) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		ErrorResponse(w, http.StatusUnauthorized, "login required")
		return
	}

	d, err := h.resolver.ResolveFileForDelivery(ctx, userID, r.PathValue("token"), fileType)
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
	w.Header().Set(common.ViewIndexHeaderName, strconv.Itoa(d.ViewIndex))
	streamFile(ctx, w, h.log, obj, d.FileName)

	metrics.DeliveriesTotal.WithLabelValues(fileType, d.Source).Inc()
}

// streamFile copies obj to w as an octet stream.
func streamFile(ctx context.Context, w http.ResponseWriter, log logging.Logger, obj *storage.Object, name string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	if obj.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		log.Warn(ctx, "file stream interrupted", "file", name, "error", err)
	}
}
