package api

import (
	"github.com/JaimeStill/dcma/internal/documents"
	"github.com/JaimeStill/dcma/internal/history"
	"github.com/JaimeStill/dcma/internal/hocr"
	"github.com/JaimeStill/dcma/internal/ingest"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
	HOCR      hocr.System
	Ingest    ingest.System
	History   history.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	return &Domain{
		Documents: documents.New(
			runtime.Store,
			runtime.Paths,
			runtime.Imaging,
			runtime.Logger,
		),
		HOCR: hocr.New(
			runtime.Store,
			runtime.Paths,
			runtime.HOCR,
			runtime.Logger,
		),
		Ingest: ingest.New(
			runtime.Store,
			runtime.Paths,
			runtime.Imaging,
			nil,
			runtime.Logger,
		),
		History: history.New(
			runtime.Database.Connection(),
			runtime.Logger,
			runtime.Pagination,
		),
	}
}
