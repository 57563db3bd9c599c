package schema

// FilterTables returns a model holding the tables of m that are not on the
// exclude list, in the same order. Entries match either the bare table name
// or the qualified "schema.table" name. m itself is left unchanged.
func FilterTables(m *Model, excludeTables []string) *Model {
	excludeSet := make(map[string]bool)
	for _, name := range excludeTables {
		excludeSet[name] = true
	}

	filtered := NewModel()
	for _, t := range m.Tables() {
		if excludeSet[t.Name] || excludeSet[t.QualifiedName()] {
			continue
		}
		filtered.tables.set(t.QualifiedName(), t)
	}
	return filtered
}
