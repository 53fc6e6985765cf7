package hocr

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/dcma/pkg/handlers"
	"github.com/JaimeStill/dcma/pkg/routes"
)

// Handler provides HTTP endpoints for OCR generation.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "hocr"),
	}
}

// Routes returns the route group definition for HOCR endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/batches/{id}/hocr",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.GenerateBatch},
		},
		Children: []routes.Group{
			{
				Prefix: "/pages/{page}",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.Get},
					{Method: "POST", Pattern: "", Handler: h.GeneratePage},
					{Method: "POST", Pattern: "/recognize", Handler: h.Recognize},
				},
			},
		},
	}
}

// GenerateBatch generates the HOCR documents of every page in the batch.
func (h *Handler) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.lock(w, id, func() {
		report, err := h.sys.GenerateBatch(r.Context(), id)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, report)
	})
}

// GeneratePage generates the HOCR document of one page from its hOCR markup.
func (h *Handler) GeneratePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.lock(w, id, func() {
		page, err := h.sys.GeneratePage(r.Context(), id, r.PathValue("page"))
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, page)
	})
}

// Get returns the stored HOCR document of a page.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	pages, err := h.sys.Get(r.Context(), r.PathValue("id"), r.PathValue("page"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, pages)
}

// Recognize runs an OCR engine over a page image. The engine query parameter
// selects a registered engine; the configured engine is used when absent.
func (h *Handler) Recognize(w http.ResponseWriter, r *http.Request) {
	var (
		engine Engine
		err    error
	)
	if name := r.URL.Query().Get("engine"); name != "" {
		engine, err = Lookup(name)
	} else {
		engine, err = h.sys.Engine()
	}
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	id := r.PathValue("id")
	h.lock(w, id, func() {
		page, err := h.sys.Recognize(r.Context(), id, r.PathValue("page"), engine)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, page)
	})
}

func (h *Handler) lock(w http.ResponseWriter, id string, fn func()) {
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
