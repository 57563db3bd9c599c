package schema

import (
	"log/slog"
)

// TypeLookup resolves the type of one column. ok is false when the
// catalog has no row for the column.
type TypeLookup func(table, column string) (ct ColumnType, ok bool, err error)

// Builder assembles the table model of a single schema from raw catalog rows.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a builder. A nil logger uses slog.Default().
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// Build runs the seed, constraint and type passes in that order.
// Only errors returned by lookup fail the build; missing constraint
// targets and missing types are logged and skipped.
func (b *Builder) Build(schemaName string, columns []ColumnRow, constraints []ConstraintRow, lookup TypeLookup) (*Model, error) {
	m := NewModel()

	b.seed(m, schemaName, columns)
	b.applyConstraints(m, schemaName, constraints)

	if err := b.resolveTypes(m, lookup); err != nil {
		return nil, err
	}

	return m, nil
}

func (b *Builder) seed(m *Model, schemaName string, columns []ColumnRow) {
	for _, row := range columns {
		m.addTable(schemaName, row.Table).addColumn(row.Column)
	}
}

func (b *Builder) applyConstraints(m *Model, schemaName string, constraints []ConstraintRow) {
	for _, row := range constraints {
		col, ok := b.lookupColumn(m, schemaName, row.Table, row.Column)
		if !ok {
			b.logger.Debug("skipping constraint on unknown column",
				"schema", schemaName,
				"table", row.Table,
				"column", row.Column,
				"constraint_type", row.ConstraintType)
			continue
		}
		applyConstraint(col, schemaName, row)
	}
}

func (b *Builder) lookupColumn(m *Model, schemaName, table, column string) (*Column, bool) {
	t, ok := m.Table(QualifiedName(schemaName, table))
	if !ok {
		return nil, false
	}
	return t.Column(column)
}

// applyConstraint is idempotent: applying the same row twice leaves the
// column in the same state as applying it once.
func applyConstraint(col *Column, schemaName string, row ConstraintRow) {
	switch row.ConstraintType {
	case ConstraintPrimaryKey:
		col.IsPrimary = true
	case ConstraintForeignKey:
		table, column := deref(row.ForeignTable), deref(row.ForeignColumn)
		if table == "" || column == "" {
			return
		}
		foreignSchema := deref(row.ForeignSchema)
		if foreignSchema == "" {
			foreignSchema = schemaName
		}
		col.IsForeign = true
		col.References = &Reference{
			Table:  QualifiedName(foreignSchema, table),
			Column: column,
		}
	}
}

func (b *Builder) resolveTypes(m *Model, lookup TypeLookup) error {
	for _, t := range m.Tables() {
		for _, col := range t.Columns() {
			ct, ok, err := lookup(t.Name, col.Name)
			if err != nil {
				return err
			}
			if !ok {
				b.logger.Warn("column type not found",
					"schema", t.Schema,
					"table", t.Name,
					"column", col.Name)
				continue
			}
			col.Type = ct.DataType
			col.Nullable = ct.Nullable
			col.Resolved = true
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
