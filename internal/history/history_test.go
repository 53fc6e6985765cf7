package history_test

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"slices"
	"testing"

	"github.com/JaimeStill/dcma/internal/history"
	"github.com/JaimeStill/dcma/pkg/pagination"
)

func TestAddDuration(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
		want int64
	}{
		{"zero", 0, 0, 0},
		{"sum", 1500, 2500, 4000},
		{"at ceiling", math.MaxInt64 - 10, 10, math.MaxInt64},
		{"past ceiling", math.MaxInt64 - 10, 11, math.MaxInt64},
		{"both huge", math.MaxInt64, math.MaxInt64, math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := history.AddDuration(tt.a, tt.b); got != tt.want {
				t.Errorf("AddDuration(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{history.ErrNotFound, http.StatusNotFound},
		{history.ErrDuplicate, http.StatusConflict},
		{history.ErrInvalidKey, http.StatusBadRequest},
		{history.ErrNegativeDuration, http.StatusBadRequest},
		{pagination.ErrInvalidSort, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := history.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFiltersFromQuery(t *testing.T) {
	tests := []struct {
		name     string
		values   url.Values
		id       string
		statuses []string
		user     string
	}{
		{
			name:   "empty",
			values: url.Values{},
		},
		{
			name:   "batch and user",
			values: url.Values{"batch_instance_id": {"BI1"}, "user_name": {"eph"}},
			id:     "BI1",
			user:   "eph",
		},
		{
			name:     "repeated status",
			values:   url.Values{"batch_instance_status": {"READY_FOR_REVIEW", "READY_FOR_VALIDATION"}},
			statuses: []string{"READY_FOR_REVIEW", "READY_FOR_VALIDATION"},
		},
		{
			name:     "comma separated status",
			values:   url.Values{"batch_instance_status": {"READY_FOR_REVIEW, ,READY_FOR_VALIDATION"}},
			statuses: []string{"READY_FOR_REVIEW", "READY_FOR_VALIDATION"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := history.FiltersFromQuery(tt.values)

			if got := deref(f.BatchInstanceID); got != tt.id {
				t.Errorf("batch instance id: got %q, want %q", got, tt.id)
			}
			if got := deref(f.UserName); got != tt.user {
				t.Errorf("user name: got %q, want %q", got, tt.user)
			}
			if !slices.Equal(f.Statuses, tt.statuses) {
				t.Errorf("statuses: got %v, want %v", f.Statuses, tt.statuses)
			}
		})
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func TestKeyFromQuery(t *testing.T) {
	k := history.KeyFromQuery(url.Values{
		"batch_instance_id":     {"BI1"},
		"batch_instance_status": {"READY_FOR_REVIEW"},
		"user_name":             {"ephesoft"},
	})
	want := history.Key{BatchInstanceID: "BI1", BatchInstanceStatus: "READY_FOR_REVIEW", UserName: "ephesoft"}
	if k != want {
		t.Errorf("got %+v, want %+v", k, want)
	}
}
