package pagination

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/dcma/pkg/query"
)

var (
	ErrInvalidPage = errors.New("invalid page parameter")
	ErrInvalidSort = errors.New("invalid sort field")
)

// SortFields decodes from a "name,-created" string, a list of such terms,
// or a list of query.SortField objects.
type SortFields []query.SortField

func (s *SortFields) UnmarshalJSON(data []byte) error {
	var expr string
	if err := json.Unmarshal(data, &expr); err == nil {
		*s = query.ParseSortFields(expr)
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("sort: %w", err)
	}
	fields := make(SortFields, 0, len(raw))
	for _, r := range raw {
		if err := json.Unmarshal(r, &expr); err == nil {
			fields = append(fields, query.ParseSortFields(expr)...)
			continue
		}
		var f query.SortField
		if err := json.Unmarshal(r, &f); err != nil {
			return fmt.Errorf("sort: %w", err)
		}
		fields = append(fields, f)
	}
	*s = fields
	return nil
}

// PageRequest selects one page of a listing. Page is 1-based.
type PageRequest struct {
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Search   *string    `json:"search,omitempty"`
	Sort     SortFields `json:"sort,omitempty"`
}

// Normalize moves Page to at least 1 and clamps PageSize into
// [1, MaxPageSize], using DefaultPageSize when unset.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	r.PageSize = min(r.PageSize, cfg.MaxPageSize)
}

// CheckSort rejects sort fields that known does not accept.
func (r *PageRequest) CheckSort(known func(field string) bool) error {
	for _, f := range r.Sort {
		if !known(f.Field) {
			return fmt.Errorf("%w: %q", ErrInvalidSort, f.Field)
		}
	}
	return nil
}

// PageRequestFromQuery reads page, page_size, search and sort from values
// and normalizes the result. Non-numeric page values are rejected.
func PageRequestFromQuery(values url.Values, cfg Config) (PageRequest, error) {
	var req PageRequest
	for name, dst := range map[string]*int{"page": &req.Page, "page_size": &req.PageSize} {
		v := strings.TrimSpace(values.Get(name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return PageRequest{}, fmt.Errorf("%w: %s=%q", ErrInvalidPage, name, v)
		}
		*dst = n
	}
	if s := strings.TrimSpace(values.Get("search")); s != "" {
		req.Search = &s
	}
	req.Sort = query.ParseSortFields(values.Get("sort"))

	req.Normalize(cfg)
	return req, nil
}

// PageResult is one page of T with the totals a client needs to navigate.
type PageResult[T any] struct {
	Data       []T  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPageResult wraps data. An empty listing still reports one page.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	if data == nil {
		data = []T{}
	}
	pages := 1
	if pageSize > 0 && total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}
