package query

import (
	"reflect"
	"strconv"
	"strings"
)

// SortField is one ORDER BY term, named by logical field.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields reads a comma separated sort expression such as
// "userName,-startTime"; a leading "-" sorts descending.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		name, desc := strings.CutPrefix(part, "-")
		if name == "" {
			continue
		}
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// binder numbers positional parameters in the order they are bound.
type binder struct {
	args []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

type predicate func(*binder) string

// Builder accumulates conditions and ordering over a projection and renders
// them as SQL with numbered parameters. Conditions are joined with AND; a
// condition whose value is absent is skipped, so optional filters can be
// chained unconditionally.
type Builder struct {
	projection *ProjectionMap
	where      []predicate
	sort       []SortField
	fallback   []SortField
	lock       bool
}

// NewBuilder creates a builder over projection. defaultSort applies when
// OrderByFields is not called.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{projection: projection, fallback: defaultSort}
}

// WhereEquals matches field = value. Nil values are skipped.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	col := b.projection.Column(field)
	return b.add(func(p *binder) string { return col + " = " + p.bind(deref(value)) })
}

// WhereIn matches field against any of values. An empty list is skipped.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}
	col := b.projection.Column(field)
	return b.add(func(p *binder) string {
		params := make([]string, len(values))
		for i, v := range values {
			params[i] = p.bind(v)
		}
		return col + " IN (" + strings.Join(params, ", ") + ")"
	})
}

// WhereContains matches field case-insensitively against a substring. Nil or
// empty values are skipped.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	col := b.projection.Column(field)
	pattern := "%" + *value + "%"
	return b.add(func(p *binder) string { return col + " ILIKE " + p.bind(pattern) })
}

// WhereNullable matches field = value, or field IS NULL when value is nil.
func (b *Builder) WhereNullable(field string, value any) *Builder {
	col := b.projection.Column(field)
	if isNil(value) {
		return b.add(func(*binder) string { return col + " IS NULL" })
	}
	return b.add(func(p *binder) string { return col + " = " + p.bind(deref(value)) })
}

// WhereSearch matches search as a substring of any of fields.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}
	pattern := "%" + *search + "%"
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = b.projection.Column(f)
	}
	return b.add(func(p *binder) string {
		terms := make([]string, len(cols))
		for i, c := range cols {
			terms[i] = c + " ILIKE " + p.bind(pattern)
		}
		return "(" + strings.Join(terms, " OR ") + ")"
	})
}

// OrderByFields replaces the default ordering.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// ForUpdate locks the selected rows for the rest of the transaction. It
// applies to Build, BuildSingle and BuildSingleOrNull.
func (b *Builder) ForUpdate() *Builder {
	b.lock = true
	return b
}

func (b *Builder) add(p predicate) *Builder {
	b.where = append(b.where, p)
	return b
}

// Build renders an ordered SELECT of every matching row.
func (b *Builder) Build() (string, []any) {
	var sb strings.Builder
	p := b.selectFrom(&sb)
	sb.WriteString(b.orderBy())
	b.locking(&sb)
	return sb.String(), p.args
}

// BuildCount renders SELECT COUNT(*) over the matching rows.
func (b *Builder) BuildCount() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM ")
	sb.WriteString(b.projection.From())
	p := &binder{}
	sb.WriteString(b.whereClause(p))
	return sb.String(), p.args
}

// BuildPage renders one page (1-based) of the ordered SELECT.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	var sb strings.Builder
	p := b.selectFrom(&sb)
	sb.WriteString(b.orderBy())
	sb.WriteString(" LIMIT " + strconv.Itoa(pageSize))
	sb.WriteString(" OFFSET " + strconv.Itoa((page-1)*pageSize))
	return sb.String(), p.args
}

// BuildSingle renders a SELECT of the row whose field equals id. Conditions
// added to the builder are ignored.
func (b *Builder) BuildSingle(field string, id any) (string, []any) {
	p := &binder{}
	var sb strings.Builder
	sb.WriteString("SELECT " + b.projection.Columns() + " FROM " + b.projection.From())
	sb.WriteString(" WHERE " + b.projection.Column(field) + " = " + p.bind(id))
	b.locking(&sb)
	return sb.String(), p.args
}

// BuildSingleOrNull renders a SELECT of at most one matching row.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	var sb strings.Builder
	p := b.selectFrom(&sb)
	sb.WriteString(" LIMIT 1")
	b.locking(&sb)
	return sb.String(), p.args
}

// BuildDelete renders a DELETE of the matching rows. A builder with no
// conditions renders a DELETE of the whole table.
func (b *Builder) BuildDelete() (string, []any) {
	p := &binder{}
	return "DELETE FROM " + b.projection.From() + b.whereClause(p), p.args
}

func (b *Builder) selectFrom(sb *strings.Builder) *binder {
	p := &binder{}
	sb.WriteString("SELECT " + b.projection.Columns() + " FROM " + b.projection.From())
	sb.WriteString(b.whereClause(p))
	return p
}

func (b *Builder) whereClause(p *binder) string {
	if len(b.where) == 0 {
		return ""
	}
	terms := make([]string, len(b.where))
	for i, w := range b.where {
		terms[i] = w(p)
	}
	return " WHERE " + strings.Join(terms, " AND ")
}

func (b *Builder) orderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.fallback
	}
	if len(fields) == 0 {
		return ""
	}

	terms := make([]string, len(fields))
	for i, f := range fields {
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		terms[i] = b.projection.Column(f.Field) + dir
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

func (b *Builder) locking(sb *strings.Builder) {
	if b.lock {
		sb.WriteString(" FOR UPDATE")
	}
}

// isNil reports whether v is nil or a nil pointer, map, slice or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// deref binds the pointed-to value of a non-nil pointer.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return rv.Elem().Interface()
	}
	return v
}
