package schema

// Constraint types as reported by the catalog. Anything else is ignored.
const (
	ConstraintPrimaryKey = "PRIMARY KEY"
	ConstraintForeignKey = "FOREIGN KEY"
)

// Model is the set of tables extracted from one or more schemas, keyed by
// qualified name ("schema.table") in first-seen order.
type Model struct {
	tables *orderedMap[*Table]
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{tables: newOrderedMap[*Table]()}
}

// Tables returns the tables in first-seen order.
func (m *Model) Tables() []*Table {
	return m.tables.values()
}

// Table looks up a table by qualified name.
func (m *Model) Table(qualifiedName string) (*Table, bool) {
	return m.tables.get(qualifiedName)
}

// Len returns the number of tables.
func (m *Model) Len() int {
	return m.tables.len()
}

// Merge adds every table of other to m. A table whose qualified name
// already exists in m is replaced and keeps its original position.
func (m *Model) Merge(other *Model) {
	for _, t := range other.Tables() {
		m.tables.set(t.QualifiedName(), t)
	}
}

func (m *Model) addTable(schemaName, name string) *Table {
	qualifiedName := QualifiedName(schemaName, name)
	if t, ok := m.tables.get(qualifiedName); ok {
		return t
	}
	t := &Table{Schema: schemaName, Name: name, columns: newOrderedMap[*Column]()}
	m.tables.set(qualifiedName, t)
	return t
}

// Table represents a database table or view
type Table struct {
	Schema  string
	Name    string
	columns *orderedMap[*Column]
}

// QualifiedName returns "schema.table", the key and diagram identifier of the table.
func (t *Table) QualifiedName() string {
	return QualifiedName(t.Schema, t.Name)
}

// Columns returns the columns in catalog order.
func (t *Table) Columns() []*Column {
	return t.columns.values()
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	return t.columns.get(name)
}

func (t *Table) addColumn(name string) *Column {
	if c, ok := t.columns.get(name); ok {
		return c
	}
	c := &Column{Name: name}
	t.columns.set(name, c)
	return c
}

// Column represents a table column
type Column struct {
	Name string
	// Type is empty until the type pass resolves it.
	Type     string
	Nullable bool
	// Resolved reports whether the type pass found a catalog row.
	Resolved   bool
	IsPrimary  bool
	IsForeign  bool
	References *Reference
}

// Reference is the target of a foreign key column
type Reference struct {
	Table  string // qualified name
	Column string
}

// QualifiedName joins a schema and table name.
func QualifiedName(schemaName, table string) string {
	return schemaName + "." + table
}

// ColumnRow is one (table, column) pair from column enumeration.
type ColumnRow struct {
	Table  string
	Column string
}

// ConstraintRow is one (constraint, participating column) pair.
// The foreign fields are nil unless the constraint is a foreign key
// with a resolvable referenced column.
type ConstraintRow struct {
	Table          string
	Column         string
	ConstraintType string
	ForeignSchema  *string
	ForeignTable   *string
	ForeignColumn  *string
}

// ColumnType is the resolved type metadata of a column.
type ColumnType struct {
	DataType string
	Nullable bool
}

// ColumnKey identifies a column within a schema.
type ColumnKey struct {
	Table  string
	Column string
}
