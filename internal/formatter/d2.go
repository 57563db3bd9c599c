package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/d2schema/internal/schema"
)

// Identifiers that D2 treats as keywords inside a sql_table shape.
var reservedKeywords = map[string]bool{
	"direction": true,
	"shape":     true,
	"table":     true,
}

// D2Formatter formats the model as a D2 diagram of sql_table shapes
type D2Formatter struct {
	writer io.Writer
}

// NewD2Formatter creates a new D2 formatter
func NewD2Formatter(w io.Writer) *D2Formatter {
	return &D2Formatter{writer: w}
}

// Format writes one block per table followed by the relationship lines
func (f *D2Formatter) Format(m *schema.Model) error {
	_, err := io.WriteString(f.writer, Serialize(m))
	return err
}

// Serialize renders the model as D2 text. Output order follows model
// order; relationship lines are neither sorted nor deduplicated.
func Serialize(m *schema.Model) string {
	var b strings.Builder
	var relationships []string

	for _, table := range m.Tables() {
		tableName := table.QualifiedName()
		fmt.Fprintf(&b, "%s: {\n  shape: sql_table\n", tableName)

		for _, col := range table.Columns() {
			column := EscapeIdentifier(col.Name)
			b.WriteString(formatD2Column(column, col))
			b.WriteString("\n")

			if rel, ok := relationship(tableName, column, col); ok {
				relationships = append(relationships, rel)
			}
		}

		b.WriteString("}\n\n")
	}

	for _, rel := range relationships {
		b.WriteString(rel)
		b.WriteString("\n")
	}

	return b.String()
}

// EscapeIdentifier wraps reserved D2 keywords in backticks.
func EscapeIdentifier(name string) string {
	if reservedKeywords[name] {
		return "`" + name + "`"
	}
	return name
}

func formatD2Column(escapedName string, col *schema.Column) string {
	line := fmt.Sprintf("  %s: %s", escapedName, col.Type)

	var constraints []string
	if col.IsPrimary {
		constraints = append(constraints, "primary_key")
	}
	if col.IsForeign {
		constraints = append(constraints, "foreign_key")
	}
	if len(constraints) > 0 {
		line += fmt.Sprintf(" {constraint: %s}", strings.Join(constraints, ", "))
	}

	return line
}

func relationship(tableName, escapedColumn string, col *schema.Column) (string, bool) {
	if !col.IsForeign || col.References == nil {
		return "", false
	}
	ref := col.References
	if ref.Table == "" || ref.Column == "" {
		return "", false
	}
	return fmt.Sprintf("%s.%s -> %s.%s", tableName, escapedColumn, ref.Table, EscapeIdentifier(ref.Column)), true
}
