package documents

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/pkg/handlers"
	"github.com/JaimeStill/dcma/pkg/routes"
)

// Handler provides HTTP endpoints for batch document and page edits.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "documents"),
	}
}

// Routes returns the route group definition for batch edit endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/batches/{id}",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Find},
			{Method: "GET", Pattern: "/flags", Handler: h.Flags},
			{Method: "GET", Pattern: "/files/{name}", Handler: h.File},
			{Method: "POST", Pattern: "/merge", Handler: h.Merge},
			{Method: "POST", Pattern: "/swap", Handler: h.Swap},
			{Method: "POST", Pattern: "/move", Handler: h.Move},
		},
		Children: []routes.Group{
			{
				Prefix: "/documents/{doc}",
				Routes: []routes.Route{
					{Method: "PUT", Pattern: "/order", Handler: h.Reorder},
					{Method: "PUT", Pattern: "/type", Handler: h.UpdateType},
					{Method: "POST", Pattern: "/export", Handler: h.Export},
				},
				Children: []routes.Group{
					{
						Prefix: "/pages/{page}",
						Routes: []routes.Route{
							{Method: "POST", Pattern: "/split", Handler: h.Split},
							{Method: "POST", Pattern: "/duplicate", Handler: h.Duplicate},
							{Method: "DELETE", Pattern: "", Handler: h.RemovePage},
							{Method: "GET", Pattern: "/thumbnail", Handler: h.Thumbnail},
							{Method: "GET", Pattern: "/display", Handler: h.Display},
							{Method: "POST", Pattern: "/render", Handler: h.Render},
						},
					},
				},
			},
		},
	}
}

// Find returns the batch tree.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	b, err := h.sys.Find(r.Context(), r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, b)
}

// Flags returns the review and validation state of the batch. The
// check_review_flag query parameter defaults to true.
func (h *Handler) Flags(w http.ResponseWriter, r *http.Request) {
	check := true
	if v := r.URL.Query().Get("check_review_flag"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("check_review_flag: %q is not a boolean", v))
			return
		}
		check = b
	}

	f, err := h.sys.Flags(r.Context(), r.PathValue("id"), check)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, f)
}

// Merge appends one document's pages to another.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	var cmd MergeCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.locked(w, r, func(id string) (*batch.Batch, error) {
		return h.sys.Merge(r.Context(), id, cmd.Target, cmd.Source)
	})
}

// Swap exchanges two pages, within one document or across two.
func (h *Handler) Swap(w http.ResponseWriter, r *http.Request) {
	var cmd SwapCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.locked(w, r, func(id string) (*batch.Batch, error) {
		if cmd.A.Document == cmd.B.Document {
			return h.sys.SwapPagesWithin(r.Context(), id, cmd.A.Document, cmd.A.Page, cmd.B.Page)
		}
		return h.sys.SwapPages(r.Context(), id, cmd.A.Document, cmd.A.Page, cmd.B.Document, cmd.B.Page)
	})
}

// Move relocates a page before or after a target page.
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	var cmd MoveCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.locked(w, r, func(id string) (*batch.Batch, error) {
		return h.sys.MovePage(r.Context(), id, cmd.From.Document, cmd.From.Page, cmd.To.Document, cmd.To.Page, cmd.After)
	})
}

// Reorder replaces the page order of a document.
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	var cmd ReorderCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.locked(w, r, func(id string) (*batch.Batch, error) {
		return h.sys.Reorder(r.Context(), id, r.PathValue("doc"), cmd.Pages)
	})
}

// UpdateType replaces the type and document-level fields of a document.
func (h *Handler) UpdateType(w http.ResponseWriter, r *http.Request) {
	var cmd TypeCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	h.locked(w, r, func(id string) (*batch.Batch, error) {
		return h.sys.UpdateDocType(r.Context(), id, r.PathValue("doc"), cmd.Type, cmd.Fields)
	})
}

// Split moves a page and every page after it into a new document.
func (h *Handler) Split(w http.ResponseWriter, r *http.Request) {
	h.locked(w, r, func(id string) (*batch.Batch, error) {
		return h.sys.Split(r.Context(), id, r.PathValue("doc"), r.PathValue("page"))
	})
}

// Duplicate copies a page and its artifacts.
func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	h.locked(w, r, func(id string) (*batch.Batch, error) {
		return h.sys.Duplicate(r.Context(), id, r.PathValue("doc"), r.PathValue("page"))
	})
}

// RemovePage deletes a page and its artifacts.
func (h *Handler) RemovePage(w http.ResponseWriter, r *http.Request) {
	h.locked(w, r, func(id string) (*batch.Batch, error) {
		return h.sys.RemovePage(r.Context(), id, r.PathValue("doc"), r.PathValue("page"))
	})
}

// Render regenerates the thumbnail and display images of a page.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	h.locked(w, r, func(id string) (*batch.Batch, error) {
		return h.sys.RenderImages(r.Context(), id, r.PathValue("doc"), r.PathValue("page"))
	})
}

// Thumbnail serves the thumbnail image of a page.
func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	path, err := h.sys.ThumbnailPath(r.Context(), r.PathValue("id"), r.PathValue("doc"), r.PathValue("page"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	http.ServeFile(w, r, path)
}

// Display serves the display image of a page.
func (h *Handler) Display(w http.ResponseWriter, r *http.Request) {
	path, err := h.sys.DisplayImagePath(r.Context(), r.PathValue("id"), r.PathValue("doc"), r.PathValue("page"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	http.ServeFile(w, r, path)
}

// File streams a file of the batch folder.
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rc, err := h.sys.OpenFile(r.Context(), r.PathValue("id"), name)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("file stream interrupted", "batch_id", r.PathValue("id"), "file", name, "error", err)
	}
}

// Export writes the document's pages to a PDF in the export folder.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	release, err := h.sys.Lock(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer h.release(id, release)

	path, err := h.sys.Export(r.Context(), id, r.PathValue("doc"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, map[string]string{"path": path})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := handlers.DecodeJSON(r, v); err != nil {
		err = batch.Invalid("decode request", r.PathValue("id"), err.Error())
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return false
	}
	return true
}

// locked runs an edit while holding the batch lock and writes the refreshed batch.
func (h *Handler) locked(w http.ResponseWriter, r *http.Request, edit func(id string) (*batch.Batch, error)) {
	id := r.PathValue("id")

	release, err := h.sys.Lock(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer h.release(id, release)

	b, err := edit(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, b)
}

func (h *Handler) release(id string, release func() error) {
	if err := release(); err != nil {
		h.logger.Error("batch lock not released", "batch_id", id, "error", err)
	}
}
