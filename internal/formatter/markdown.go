package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/d2schema/internal/schema"
)

// MarkdownFormatter formats the model as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the model in markdown format
func (f *MarkdownFormatter) Format(m *schema.Model) error {
	var b strings.Builder

	b.WriteString("# Database Schema\n\n")
	for _, table := range m.Tables() {
		formatMarkdownTable(&b, table)
	}

	_, err := io.WriteString(f.writer, b.String())
	return err
}

func formatMarkdownTable(b *strings.Builder, table *schema.Table) {
	fmt.Fprintf(b, "## %s\n\n", table.QualifiedName())

	b.WriteString("### Columns\n\n")

	var references []string
	for _, col := range table.Columns() {
		constraintStr := formatMarkdownConstraints(col)
		if constraintStr != "" {
			fmt.Fprintf(b, "- **%s:** %s, %s\n", col.Name, col.Type, constraintStr)
		} else {
			fmt.Fprintf(b, "- **%s:** %s\n", col.Name, col.Type)
		}

		if col.IsForeign && col.References != nil {
			references = append(references, fmt.Sprintf("- %s → %s.%s\n",
				col.Name,
				col.References.Table,
				col.References.Column))
		}
	}
	b.WriteString("\n")

	if len(references) > 0 {
		b.WriteString("### References\n\n")
		for _, ref := range references {
			b.WriteString(ref)
		}
		b.WriteString("\n")
	}
}

func formatMarkdownConstraints(col *schema.Column) string {
	var constraints []string

	if col.IsPrimary {
		constraints = append(constraints, "PK")
	}

	if col.IsForeign {
		constraints = append(constraints, "FK")
	}

	// Nullability is unknown for columns whose type was never resolved.
	if col.Resolved && !col.Nullable {
		constraints = append(constraints, "NOT NULL")
	}

	return strings.Join(constraints, ", ")
}
