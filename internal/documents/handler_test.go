package documents_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/JaimeStill/dcma/internal/batch"
	"github.com/JaimeStill/dcma/internal/documents"
	"github.com/JaimeStill/dcma/pkg/routes"
)

func newMux(f *fixture) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, f.sys.Handler().Routes())
	return mux
}

func TestHandlerMerge(t *testing.T) {
	f := newFixture(t, scenario())
	mux := newMux(f)

	req := httptest.NewRequest(http.MethodPost, "/batches/B1/merge", strings.NewReader(`{"target":"D1","source":"D2"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}

	var b batch.Batch
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(b.Documents) != 1 || !slices.Equal(b.Documents[0].PageIDs(), []string{"P1", "P2", "P3"}) {
		t.Errorf("unexpected batch: %+v", b.Documents)
	}
}

func TestHandlerStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing batch", http.MethodGet, "/batches/B9", "", http.StatusNotFound},
		{"missing page", http.MethodPost, "/batches/B1/documents/D1/pages/P9/split", "", http.StatusNotFound},
		{"self merge", http.MethodPost, "/batches/B1/merge", `{"target":"D1","source":"D1"}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/batches/B1/move", `{"from":`, http.StatusBadRequest},
		{"unknown field", http.MethodPut, "/batches/B1/documents/D1/order", `{"order":["P1"]}`, http.StatusBadRequest},
		{"bad permutation", http.MethodPut, "/batches/B1/documents/D1/order", `{"pages":["P1"]}`, http.StatusBadRequest},
		{"no display image", http.MethodGet, "/batches/B1/documents/D1/pages/P1/display", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, scenario())
			mux := newMux(f)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestHandlerLockedBatch(t *testing.T) {
	f := newFixture(t, scenario())
	mux := newMux(f)

	release, err := f.sys.Lock("B1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	req := httptest.NewRequest(http.MethodPost, "/batches/B1/documents/D1/pages/P2/duplicate", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want 409", rec.Code)
	}
}

func TestHandlerReleasesLock(t *testing.T) {
	f := newFixture(t, scenario())
	mux := newMux(f)

	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/batches/B1/swap",
			strings.NewReader(`{"a":{"document":"D1","page":"P1"},"b":{"document":"D1","page":"P2"}}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
		}
	}

	if got := pagesOf(t, f.reload(t, "B1"), "D1"); !slices.Equal(got, []string{"P1", "P2"}) {
		t.Errorf("two swaps should restore order, got %v", got)
	}
}

func TestHandlerThumbnail(t *testing.T) {
	f := newFixture(t, scenario())
	mux := newMux(f)

	req := httptest.NewRequest(http.MethodGet, "/batches/B1/documents/D1/pages/P1/thumbnail", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "content of B1_P1_thumb.png" {
		t.Errorf("body: got %q", got)
	}
}

func TestHandlerFlags(t *testing.T) {
	seed := scenario()
	seed.Documents[0].Reviewed = true
	seed.Documents[1].Reviewed = true
	seed.Documents[1].Type = batch.UnknownType

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantReview bool
	}{
		{"default checks flag", "", http.StatusOK, false},
		{"explicit flag", "?check_review_flag=true", http.StatusOK, false},
		{"by type", "?check_review_flag=false", http.StatusOK, true},
		{"malformed", "?check_review_flag=maybe", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, seed)
			mux := newMux(f)

			req := httptest.NewRequest(http.MethodGet, "/batches/B1/flags"+tt.query, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var flags documents.Flags
			if err := json.NewDecoder(rec.Body).Decode(&flags); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if flags.ReviewRequired != tt.wantReview {
				t.Errorf("review required: got %v, want %v", flags.ReviewRequired, tt.wantReview)
			}
		})
	}
}

func TestHandlerFile(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantType   string
		wantBody   string
	}{
		{"image", "/batches/B1/files/B1_P1.png", http.StatusOK, "image/png", "content of B1_P1.png"},
		{"missing", "/batches/B1/files/B1_P9.png", http.StatusNotFound, "", ""},
		{"bad name", "/batches/B1/files/a%5Cb.png", http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, scenario())
			mux := newMux(f)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if got := rec.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("content type: got %q", got)
			}
			if got := rec.Body.String(); got != tt.wantBody {
				t.Errorf("body: got %q", got)
			}
		})
	}
}
