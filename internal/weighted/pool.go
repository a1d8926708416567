package weighted

// Pool is a cumulative-weight sampler. Entries keep the order they were
// added in and their cumulative bounds are strictly increasing.
type Pool[T any] struct {
	entries []entry[T]
	total   float64
}

type entry[T any] struct {
	item       T
	cumulative float64
}

// NewPool creates an empty pool.
func NewPool[T any]() *Pool[T] {
	return &Pool[T]{}
}

// Add appends item with the given weight. Non-positive weights are ignored.
func (p *Pool[T]) Add(item T, weight float64) {
	if weight <= 0 {
		return
	}
	p.total += weight
	p.entries = append(p.entries, entry[T]{item: item, cumulative: p.total})
}

// Sample returns the item whose cumulative interval contains frac*Total.
// The first matching entry wins. An empty pool returns ok == false.
func (p *Pool[T]) Sample(frac float64) (T, bool) {
	var zero T
	if p == nil || len(p.entries) == 0 {
		return zero, false
	}

	target := frac * p.total
	for _, e := range p.entries {
		if target < e.cumulative {
			return e.item, true
		}
	}

	// frac at (or rounding past) 1.0 lands on the last entry
	return p.entries[len(p.entries)-1].item, true
}

// Draw samples the pool with a fresh fraction from r.
func (p *Pool[T]) Draw(r Rand) (T, bool) {
	return p.Sample(r.Float64())
}

// Len returns the number of entries with a positive weight.
func (p *Pool[T]) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Total returns the sum of all accepted weights.
func (p *Pool[T]) Total() float64 {
	if p == nil {
		return 0
	}
	return p.total
}

// Items returns the items in insertion order.
func (p *Pool[T]) Items() []T {
	if p == nil {
		return nil
	}
	items := make([]T, len(p.entries))
	for i, e := range p.entries {
		items[i] = e.item
	}
	return items
}

// Weight returns the individual weight of the i-th entry.
func (p *Pool[T]) Weight(i int) float64 {
	if i < 0 || i >= len(p.entries) {
		return 0
	}
	if i == 0 {
		return p.entries[0].cumulative
	}
	return p.entries[i].cumulative - p.entries[i-1].cumulative
}
