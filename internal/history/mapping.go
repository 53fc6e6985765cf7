package history

import (
	"net/url"
	"strings"

	"github.com/JaimeStill/dcma/pkg/query"
	"github.com/JaimeStill/dcma/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "manual_step_history", "h").
	Project("id", "ID").
	Project("batch_instance_id", "BatchInstanceID").
	Project("batch_instance_status", "BatchInstanceStatus").
	Project("user_name", "UserName").
	Project("start_time", "StartTime").
	Project("end_time", "EndTime").
	Project("duration_ms", "DurationMs").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "StartTime",
	Descending: true,
}

// Filters narrows history queries. Zero fields are ignored.
type Filters struct {
	BatchInstanceID *string `json:"batch_instance_id,omitempty"`
	// Statuses matches any of the listed batch instance statuses.
	Statuses []string `json:"statuses,omitempty"`
	// UserName matches case-insensitively anywhere in the user name.
	UserName *string `json:"user_name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	statuses := make([]any, len(f.Statuses))
	for i, s := range f.Statuses {
		statuses[i] = s
	}
	return b.
		WhereEquals("BatchInstanceID", f.BatchInstanceID).
		WhereIn("BatchInstanceStatus", statuses).
		WhereContains("UserName", f.UserName)
}

// FiltersFromQuery extracts filter values from URL query parameters. The
// batch_instance_status parameter may repeat or carry a comma separated list.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if v := values.Get("batch_instance_id"); v != "" {
		f.BatchInstanceID = &v
	}
	for _, v := range values["batch_instance_status"] {
		for s := range strings.SplitSeq(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Statuses = append(f.Statuses, s)
			}
		}
	}
	if v := values.Get("user_name"); v != "" {
		f.UserName = &v
	}
	return f
}

// KeyFromQuery reads a step key from URL query parameters.
func KeyFromQuery(values url.Values) Key {
	return Key{
		BatchInstanceID:     values.Get("batch_instance_id"),
		BatchInstanceStatus: values.Get("batch_instance_status"),
		UserName:            values.Get("user_name"),
	}
}

func scanStep(s repository.Scanner) (Step, error) {
	var h Step
	err := s.Scan(
		&h.ID,
		&h.BatchInstanceID,
		&h.BatchInstanceStatus,
		&h.UserName,
		&h.StartTime,
		&h.EndTime,
		&h.DurationMs,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	return h, err
}
