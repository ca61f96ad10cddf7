package stats

import (
	"math"
	"sort"
	"sync"
)

// DefaultWindow is the number of samples a Distribution keeps when none is given.
const DefaultWindow = 100

var percentiles = []struct {
	p     float64
	label string
}{
	{50, "median"},
	{95, "95th"},
	{99, "99th"},
	{100, "100th"},
}

// Distribution keeps the most recent samples of a measurement and renders them
// as percentile entries: <name>.median, .95th, .99th, .100th and, once a sample
// exists, .mean.
type Distribution struct {
	name string

	mu      sync.Mutex
	samples []float64
	next    int
	full    bool
}

func newDistribution(name string, window int) *Distribution {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Distribution{
		name:    truncateName(name),
		samples: make([]float64, window),
	}
}

func (d *Distribution) Name() string { return d.name }

// Record adds a sample, evicting the oldest once the window is full.
func (d *Distribution) Record(v float64) {
	d.mu.Lock()
	d.samples[d.next] = v
	d.next++
	if d.next == len(d.samples) {
		d.next = 0
		d.full = true
	}
	d.mu.Unlock()
}

// Samples returns a copy of the retained samples, oldest first.
func (d *Distribution) Samples() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.full {
		return append([]float64(nil), d.samples[:d.next]...)
	}
	out := make([]float64, 0, len(d.samples))
	out = append(out, d.samples[d.next:]...)
	return append(out, d.samples[:d.next]...)
}

func (d *Distribution) appendEntries(dst []Entry) []Entry {
	vals := d.Samples()
	sort.Float64s(vals)

	n := len(vals)
	for _, pc := range percentiles {
		var v float64
		if n > 0 {
			idx := int(math.Floor(float64(n)*pc.p*0.01)) - 1
			if idx < 0 {
				idx = 0
			}
			v = vals[idx]
		}
		dst = append(dst, Entry{Name: d.name + "." + pc.label, Value: Float(v)})
	}
	if n > 0 {
		var sum float64
		for _, v := range vals {
			sum += v
		}
		dst = append(dst, Entry{Name: d.name + ".mean", Value: Float(sum / float64(n))})
	}
	return dst
}
