package schema

// orderedMap keeps values keyed by name in first-insertion order.
// Re-setting an existing key replaces its value in place.
type orderedMap[V any] struct {
	keys  []string
	index map[string]V
}

func newOrderedMap[V any]() *orderedMap[V] {
	return &orderedMap[V]{index: make(map[string]V)}
}

func (m *orderedMap[V]) get(key string) (V, bool) {
	v, ok := m.index[key]
	return v, ok
}

func (m *orderedMap[V]) set(key string, v V) {
	if _, ok := m.index[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.index[key] = v
}

func (m *orderedMap[V]) len() int {
	return len(m.keys)
}

// values returns the values in insertion order.
func (m *orderedMap[V]) values() []V {
	out := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.index[k])
	}
	return out
}
