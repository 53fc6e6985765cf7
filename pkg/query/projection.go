// Package query builds the parameterized statements used by the postgres
// repositories. Callers name fields by their logical (Go side) names; a
// ProjectionMap resolves them to qualified columns.
package query

import "strings"

type column struct {
	name      string
	qualified string
}

// ProjectionMap binds logical field names to the columns of one aliased table.
type ProjectionMap struct {
	source  string
	alias   string
	byField map[string]string
	columns []column
}

// NewProjectionMap creates a projection over schema.table referenced as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		source:  schema + "." + table + " " + alias,
		alias:   alias,
		byField: map[string]string{},
	}
}

// Project maps field to column. Columns are selected in the order projected.
func (p *ProjectionMap) Project(col, field string) *ProjectionMap {
	q := p.alias + "." + col
	p.byField[field] = q
	p.columns = append(p.columns, column{name: col, qualified: q})
	return p
}

// Column resolves a field to its qualified column. Unknown fields are
// returned as given so callers can pass raw expressions.
func (p *ProjectionMap) Column(field string) string {
	if q, ok := p.byField[field]; ok {
		return q
	}
	return field
}

// Has reports whether field was projected.
func (p *ProjectionMap) Has(field string) bool {
	_, ok := p.byField[field]
	return ok
}

// Columns is the SELECT list of the projection.
func (p *ProjectionMap) Columns() string {
	return p.join(func(c column) string { return c.qualified })
}

// From is the aliased table reference.
func (p *ProjectionMap) From() string {
	return p.source
}

// Returning is a RETURNING clause that yields rows in the same column order as
// Columns, for INSERT and UPDATE statements that share a scan function with
// SELECT queries.
func (p *ProjectionMap) Returning() string {
	return "RETURNING " + p.join(func(c column) string { return c.name })
}

func (p *ProjectionMap) join(f func(column) string) string {
	parts := make([]string, len(p.columns))
	for i, c := range p.columns {
		parts[i] = f(c)
	}
	return strings.Join(parts, ", ")
}
