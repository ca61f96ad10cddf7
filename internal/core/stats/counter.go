package stats

import (
	"math"
	"sync/atomic"
	"unicode/utf8"
)

// MaxNameLen bounds counter names in bytes; longer names are truncated.
const MaxNameLen = 256

// Counter is a named numeric value owned by a Registry.
// Handles returned by Registry.CreateCounter stay valid for the life of the registry.
type Counter struct {
	name string
	kind Kind

	// exactly one of these is used, depending on kind
	ival atomic.Int64
	fval floatBits
}

// floatBits stores a float64 as its IEEE bits so loads and stores are atomic.
type floatBits struct {
	atomic.Uint64
}

func (b *floatBits) load() float64 { return math.Float64frombits(b.Load()) }

func (b *floatBits) store(v float64) { b.Store(math.Float64bits(v)) }

// add retries until no other writer moved the bits in between.
func (b *floatBits) add(delta float64) float64 {
	for {
		cur := b.Load()
		next := math.Float64frombits(cur) + delta
		if b.CompareAndSwap(cur, math.Float64bits(next)) {
			return next
		}
	}
}

func newCounter(name string, kind Kind) *Counter {
	return &Counter{name: truncateName(name), kind: kind}
}

func (c *Counter) Name() string { return c.name }

func (c *Counter) Kind() Kind { return c.kind }

// Increment adds one using the counter's own arithmetic.
func (c *Counter) Increment() {
	if c.kind == KindFloat {
		c.fval.add(1)
		return
	}
	c.ival.Add(1)
}

// IncrementBy adds v. A value of the other kind is rejected and the counter is unchanged.
func (c *Counter) IncrementBy(v Value) error {
	if err := c.check(v); err != nil {
		return err
	}
	if c.kind == KindFloat {
		c.fval.add(v.f)
	} else {
		c.ival.Add(v.i)
	}
	return nil
}

// Set overwrites the value. Same kind contract as IncrementBy.
func (c *Counter) Set(v Value) error {
	if err := c.check(v); err != nil {
		return err
	}
	if c.kind == KindFloat {
		c.fval.store(v.f)
	} else {
		c.ival.Store(v.i)
	}
	return nil
}

func (c *Counter) AddInt(n int64) error { return c.IncrementBy(Int(n)) }

func (c *Counter) AddFloat(n float64) error { return c.IncrementBy(Float(n)) }

func (c *Counter) SetInt(n int64) error { return c.Set(Int(n)) }

func (c *Counter) SetFloat(n float64) error { return c.Set(Float(n)) }

// Load returns the current value atomically.
func (c *Counter) Load() Value {
	if c.kind == KindFloat {
		return Float(c.fval.load())
	}
	return Int(c.ival.Load())
}

func (c *Counter) check(v Value) error {
	if v.kind != c.kind {
		return &KindError{Name: c.name, Want: c.kind, Got: v.kind}
	}
	return nil
}

func (c *Counter) appendEntries(dst []Entry) []Entry {
	return append(dst, Entry{Name: c.name, Value: c.Load()})
}

// truncateName cuts name to MaxNameLen bytes without splitting a rune.
func truncateName(name string) string {
	if len(name) <= MaxNameLen {
		return name
	}
	cut := MaxNameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
