package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/dcma/pkg/formatting"
	"github.com/JaimeStill/dcma/pkg/handlers"
	"github.com/JaimeStill/dcma/pkg/routes"
)

// Handler provides HTTP endpoints for batch upload and lifecycle.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, and upload size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "ingest"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for batch lifecycle endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/batches",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			{Method: "POST", Pattern: "/{id}/backup/{stage}", Handler: h.BackUp},
			{Method: "GET", Pattern: "/{id}/checkpoints", Handler: h.Checkpoints},
		},
	}
}

// Upload ingests a multipart PDF upload into a new batch instance.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		limit := formatting.FormatBytes(h.maxUploadSize, 0)
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: limit %s", ErrFileTooLarge, limit))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	cmd := Command{
		BatchClassID: r.FormValue("batch_class_id"),
		BatchName:    r.FormValue("batch_name"),
		Filename:     header.Filename,
		Data:         data,
	}

	b, err := h.sys.Ingest(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, b)
}

// Delete removes a batch instance and its archived checkpoints.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.locked(w, id, func() {
		if err := h.sys.Delete(r.Context(), id); err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// BackUp snapshots the persisted batch under a pipeline stage name.
func (h *Handler) BackUp(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.locked(w, id, func() {
		if err := h.sys.BackUp(r.Context(), id, r.PathValue("stage")); err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// Checkpoints lists the stages a batch has been checkpointed at.
func (h *Handler) Checkpoints(w http.ResponseWriter, r *http.Request) {
	stages, err := h.sys.Checkpoints(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, stages)
}

func (h *Handler) locked(w http.ResponseWriter, id string, fn func()) {
	release, err := h.sys.Lock(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer func() {
		if err := release(); err != nil {
			h.logger.Error("batch lock not released", "batch_id", id, "error", err)
		}
	}()
	fn()
}
