package weighted

import (
	"math"
	"slices"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestPool_Sample(t *testing.T) {
	tests := map[string]struct {
		weights map[string]float64
		order   []string
		frac    float64
		expItem string
		expOk   bool
	}{
		"empty pool": {
			frac:  0.5,
			expOk: false,
		},
		"single item": {
			weights: map[string]float64{"stone": 1},
			order:   []string{"stone"},
			frac:    0.99,
			expItem: "stone",
			expOk:   true,
		},
		"first interval": {
			weights: map[string]float64{"stone": 9, "dirt": 1},
			order:   []string{"stone", "dirt"},
			frac:    0.0,
			expItem: "stone",
			expOk:   true,
		},
		"boundary belongs to next interval": {
			weights: map[string]float64{"stone": 9, "dirt": 1},
			order:   []string{"stone", "dirt"},
			frac:    0.9,
			expItem: "dirt",
			expOk:   true,
		},
		"just below boundary": {
			weights: map[string]float64{"stone": 9, "dirt": 1},
			order:   []string{"stone", "dirt"},
			frac:    0.8999,
			expItem: "stone",
			expOk:   true,
		},
		"fraction of one lands on last": {
			weights: map[string]float64{"stone": 9, "dirt": 1},
			order:   []string{"stone", "dirt"},
			frac:    1.0,
			expItem: "dirt",
			expOk:   true,
		},
		"non-positive weights ignored": {
			weights: map[string]float64{"air": 0, "void": -3, "stone": 2},
			order:   []string{"air", "void", "stone"},
			frac:    0.1,
			expItem: "stone",
			expOk:   true,
		},
		"only non-positive weights": {
			weights: map[string]float64{"air": 0, "void": -1},
			order:   []string{"air", "void"},
			frac:    0.1,
			expOk:   false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := NewPool[string]()
			for _, k := range tt.order {
				p.Add(k, tt.weights[k])
			}

			got, ok := p.Sample(tt.frac)
			testutil.AssertEqual(t, "ok", ok, tt.expOk)
			testutil.AssertEqual(t, "item", got, tt.expItem)
		})
	}
}

func TestPool_NilPool(t *testing.T) {
	var p *Pool[int]

	got, ok := p.Sample(0.3)
	testutil.AssertEqual(t, "ok", ok, false)
	testutil.AssertEqual(t, "item", got, 0)
	testutil.AssertEqual(t, "len", p.Len(), 0)
	testutil.AssertEqual(t, "total", p.Total(), 0.0)
}

func TestPool_Totals(t *testing.T) {
	p := NewPool[string]()
	p.Add("a", 2)
	p.Add("b", 0)
	p.Add("c", 3.5)

	testutil.AssertEqual(t, "len", p.Len(), 2)
	testutil.AssertEqual(t, "total", p.Total(), 5.5)
	testutil.AssertEqual(t, "weight a", p.Weight(0), 2.0)
	testutil.AssertEqual(t, "weight c", p.Weight(1), 3.5)
	testutil.AssertEqual(t, "weight out of range", p.Weight(2), 0.0)
	if !slices.Equal(p.Items(), []string{"a", "c"}) {
		t.Errorf("items %v, expected [a c]", p.Items())
	}
}

// Evenly spaced fractions hit each interval in exact proportion to its weight.
func TestPool_StratifiedFrequencies(t *testing.T) {
	p := NewPool[string]()
	p.Add("stone", 9)
	p.Add("dirt", 1)

	const n = 10000
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		item, ok := p.Sample((float64(i) + 0.5) / n)
		if !ok {
			t.Fatal("unexpected empty sample")
		}
		counts[item]++
	}

	testutil.AssertEqual(t, "stone", counts["stone"], 9000)
	testutil.AssertEqual(t, "dirt", counts["dirt"], 1000)
}

func TestPool_RandomFrequenciesConverge(t *testing.T) {
	weights := []float64{5, 3, 1.5, 0.5}
	p := NewPool[int]()
	for i, w := range weights {
		p.Add(i, w)
	}

	r := NewRand(42)
	const n = 200000
	counts := make([]int, len(weights))
	for i := 0; i < n; i++ {
		item, _ := p.Draw(r)
		counts[item]++
	}

	for i, w := range weights {
		exp := w / p.Total()
		got := float64(counts[i]) / n
		if math.Abs(got-exp) > 0.01 {
			t.Errorf("item %d: frequency %.4f, expected %.4f", i, got, exp)
		}
	}
}

func TestPool_ReusableAcrossDraws(t *testing.T) {
	p := NewPool[string]()
	p.Add("a", 1)
	p.Add("b", 1)

	for i := 0; i < 3; i++ {
		got, _ := p.Sample(0.75)
		testutil.AssertEqual(t, "repeat draw", got, "b")
	}
}

func TestBetween(t *testing.T) {
	r := NewRand(7)
	for i := 0; i < 1000; i++ {
		v := Between(r, 2, 5)
		if v < 2 || v > 5 {
			t.Fatalf("value %d out of [2,5]", v)
		}
	}
	testutil.AssertEqual(t, "equal bounds", Between(r, 3, 3), 3)
	testutil.AssertEqual(t, "inverted bounds", Between(r, 4, 1), 4)
}

func TestShuffle(t *testing.T) {
	s := []int{0, 1, 2, 3, 4, 5, 6, 7}
	Shuffle(NewRand(1), s)

	seen := map[int]bool{}
	for _, v := range s {
		seen[v] = true
	}
	testutil.AssertEqual(t, "permutation keeps elements", len(seen), 8)
}
