package pagination_test

import (
	"encoding/json"
	"errors"
	"net/url"
	"slices"
	"testing"

	"github.com/JaimeStill/dcma/pkg/pagination"
	"github.com/JaimeStill/dcma/pkg/query"
)

var cfg = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("DCMA_TEST_PAGE_SIZE", "50")

	tests := []struct {
		name    string
		cfg     pagination.Config
		env     *pagination.ConfigEnv
		want    pagination.Config
		wantErr bool
	}{
		{"defaults", pagination.Config{}, nil, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}, false},
		{"env", pagination.Config{}, &pagination.ConfigEnv{DefaultPageSize: "DCMA_TEST_PAGE_SIZE"}, pagination.Config{DefaultPageSize: 50, MaxPageSize: 100}, false},
		{"default above max", pagination.Config{DefaultPageSize: 200, MaxPageSize: 100}, nil, pagination.Config{}, true},
		{"env above max", pagination.Config{MaxPageSize: 30}, &pagination.ConfigEnv{DefaultPageSize: "DCMA_TEST_PAGE_SIZE"}, pagination.Config{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cfg
			err := c.Finalize(tt.env)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("accepted %+v", c)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if c != tt.want {
				t.Errorf("got %+v, want %+v", c, tt.want)
			}
		})
	}
}

func TestConfigFinalizeMalformedEnv(t *testing.T) {
	t.Setenv("DCMA_TEST_MAX_PAGE", "lots")

	var c pagination.Config
	if err := c.Finalize(&pagination.ConfigEnv{MaxPageSize: "DCMA_TEST_MAX_PAGE"}); err == nil {
		t.Error("malformed max page size accepted")
	}
}

func TestConfigMerge(t *testing.T) {
	c := cfg
	c.Merge(&pagination.Config{MaxPageSize: 500, DefaultPageSize: -1})
	if c.DefaultPageSize != 20 || c.MaxPageSize != 500 {
		t.Errorf("got %+v", c)
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		page    int
		size    int
		search  string
		sort    []query.SortField
		wantErr bool
	}{
		{"empty", url.Values{}, 1, 20, "", nil, false},
		{"explicit", url.Values{"page": {"3"}, "page_size": {"15"}}, 3, 15, "", nil, false},
		{"clamped", url.Values{"page": {"-2"}, "page_size": {"1000"}}, 1, 100, "", nil, false},
		{"search trimmed", url.Values{"search": {"  carol "}}, 1, 20, "carol", nil, false},
		{"blank search", url.Values{"search": {"   "}}, 1, 20, "", nil, false},
		{
			"sort", url.Values{"sort": {"UserName,-StartTime"}}, 1, 20, "",
			[]query.SortField{{Field: "UserName"}, {Field: "StartTime", Descending: true}}, false,
		},
		{"non numeric page", url.Values{"page": {"two"}}, 0, 0, "", nil, true},
		{"non numeric size", url.Values{"page_size": {"1e2"}}, 0, 0, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := pagination.PageRequestFromQuery(tt.values, cfg)
			if tt.wantErr {
				if !errors.Is(err, pagination.ErrInvalidPage) {
					t.Fatalf("got %v, want ErrInvalidPage", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if req.Page != tt.page || req.PageSize != tt.size {
				t.Errorf("page %d size %d, want %d and %d", req.Page, req.PageSize, tt.page, tt.size)
			}
			var search string
			if req.Search != nil {
				search = *req.Search
			}
			if search != tt.search {
				t.Errorf("search: got %q, want %q", search, tt.search)
			}
			if !slices.Equal(req.Sort, tt.sort) {
				t.Errorf("sort: got %v, want %v", req.Sort, tt.sort)
			}
		})
	}
}

func TestCheckSort(t *testing.T) {
	known := func(f string) bool { return f == "UserName" || f == "StartTime" }

	ok := pagination.PageRequest{Sort: pagination.SortFields{{Field: "UserName"}, {Field: "StartTime", Descending: true}}}
	if err := ok.CheckSort(known); err != nil {
		t.Errorf("known fields rejected: %v", err)
	}

	bad := pagination.PageRequest{Sort: pagination.SortFields{{Field: "UserName"}, {Field: "1; DROP TABLE x"}}}
	if err := bad.CheckSort(known); !errors.Is(err, pagination.ErrInvalidSort) {
		t.Errorf("got %v, want ErrInvalidSort", err)
	}
}

func TestSortFieldsUnmarshal(t *testing.T) {
	want := pagination.SortFields{{Field: "UserName"}, {Field: "StartTime", Descending: true}}

	for _, input := range []string{
		`"UserName,-StartTime"`,
		`["UserName", "-StartTime"]`,
		`[{"Field":"UserName"},{"Field":"StartTime","Descending":true}]`,
		`["UserName", {"Field":"StartTime","Descending":true}]`,
	} {
		var got pagination.SortFields
		if err := json.Unmarshal([]byte(input), &got); err != nil {
			t.Errorf("%s: %v", input, err)
			continue
		}
		if !slices.Equal(got, want) {
			t.Errorf("%s: got %v", input, got)
		}
	}

	var got pagination.SortFields
	if err := json.Unmarshal([]byte(`[1]`), &got); err == nil {
		t.Error("numeric sort term accepted")
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		page      int
		wantPages int
		wantNext  bool
	}{
		{"empty", 0, 1, 1, false},
		{"partial", 5, 1, 1, false},
		{"exact", 100, 1, 5, true},
		{"remainder last page", 101, 6, 6, false},
		{"middle", 101, 3, 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := pagination.NewPageResult[string](nil, tt.total, tt.page, 20)
			if r.TotalPages != tt.wantPages || r.HasNext != tt.wantNext {
				t.Errorf("pages %d next %t, want %d and %t", r.TotalPages, r.HasNext, tt.wantPages, tt.wantNext)
			}
			if r.Data == nil {
				t.Error("nil data should encode as []")
			}
		})
	}
}
