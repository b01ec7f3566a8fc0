package models

// Table is a write-once result mapping that remembers insertion order, so
// exporters can emit one row per key in a stable order.
type Table[K comparable, V any] struct {
	Keys []K
	Rows map[K]V
}

func NewTable[K comparable, V any](capacity int) *Table[K, V] {
	return &Table[K, V]{
		Keys: make([]K, 0, capacity),
		Rows: make(map[K]V, capacity),
	}
}

// Put stores v under k. Re-putting an existing key replaces the value but
// keeps its original position.
func (t *Table[K, V]) Put(k K, v V) {
	if _, ok := t.Rows[k]; !ok {
		t.Keys = append(t.Keys, k)
	}
	t.Rows[k] = v
}

func (t *Table[K, V]) Get(k K) (V, bool) {
	v, ok := t.Rows[k]
	return v, ok
}

func (t *Table[K, V]) Len() int { return len(t.Keys) }

// Values returns the rows in key order.
func (t *Table[K, V]) Values() []V {
	out := make([]V, 0, len(t.Keys))
	for _, k := range t.Keys {
		out = append(out, t.Rows[k])
	}
	return out
}

// GroupByMonth indexes a cohort-keyed table by month once, preserving key order
// within each month.
func GroupByMonth[V any](t *Table[CohortKey, V]) map[Month][]V {
	out := make(map[Month][]V)
	for _, k := range t.Keys {
		out[k.Month] = append(out[k.Month], t.Rows[k])
	}
	return out
}
