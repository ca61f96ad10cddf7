package stats

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounter_Integer(t *testing.T) {
	reg := NewRegistry()
	c, err := reg.CreateCounter("my.tocks", KindInteger)
	require.NoError(t, err)
	require.Equal(t, Int(0), c.Load())

	for i := 0; i < 10; i++ {
		require.NoError(t, c.IncrementBy(Int(2)))
	}
	c.Increment()
	require.Equal(t, Int(21), c.Load())

	require.NoError(t, c.Set(Int(-7)))
	require.Equal(t, Int(-7), c.Load())

	require.NoError(t, c.AddInt(3))
	require.NoError(t, c.SetInt(100))
	require.Equal(t, "100", c.Load().String())
}

func TestCounter_Float(t *testing.T) {
	reg := NewRegistry()
	c, err := reg.CreateCounter("my.ticks", KindFloat)
	require.NoError(t, err)
	require.Equal(t, "0.000000", c.Load().String())

	c.Increment()
	require.Equal(t, "1.000000", c.Load().String())

	require.NoError(t, c.AddFloat(0.5))
	require.Equal(t, Float(1.5), c.Load())

	require.NoError(t, c.SetFloat(3.25))
	require.Equal(t, Float(3.25), c.Load())
}

func TestCounter_KindMismatch(t *testing.T) {
	reg := NewRegistry()
	ints, _ := reg.CreateCounter("ints", KindInteger)
	floats, _ := reg.CreateCounter("floats", KindFloat)

	require.NoError(t, ints.Set(Int(5)))
	require.NoError(t, floats.Set(Float(5)))

	tests := []struct {
		name string
		op   func() error
	}{
		{"int counter add float", func() error { return ints.IncrementBy(Float(1)) }},
		{"int counter set float", func() error { return ints.Set(Float(1)) }},
		{"float counter add int", func() error { return floats.AddInt(1) }},
		{"float counter set int", func() error { return floats.SetInt(1) }},
		{"zero value", func() error { return ints.IncrementBy(Value{}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			require.ErrorIs(t, err, ErrKindMismatch)

			var ke *KindError
			require.True(t, errors.As(err, &ke))
		})
	}

	require.Equal(t, Int(5), ints.Load())
	require.Equal(t, Float(5), floats.Load())
}

func TestCounter_NameTruncation(t *testing.T) {
	reg := NewRegistry()

	long := strings.Repeat("a", MaxNameLen+10)
	c, err := reg.CreateCounter(long, KindInteger)
	require.NoError(t, err)
	require.Len(t, c.Name(), MaxNameLen)

	// a multi-byte rune straddling the limit is dropped whole
	straddle := strings.Repeat("b", MaxNameLen-1) + "é"
	c, err = reg.CreateCounter(straddle, KindInteger)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("b", MaxNameLen-1), c.Name())
}

func TestCounter_ConcurrentIncrements(t *testing.T) {
	reg := NewRegistry()
	ints, _ := reg.CreateCounter("ints", KindInteger)
	floats, _ := reg.CreateCounter("floats", KindFloat)

	const workers, perWorker = 8, 1000
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ints.Increment()
				floats.Increment()
				_ = reg.Snapshot()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, Int(workers*perWorker), ints.Load())
	require.Equal(t, Float(workers*perWorker), floats.Load())
}

func TestFloatBits(t *testing.T) {
	var f floatBits
	require.Zero(t, f.load())
	require.Equal(t, 2.5, f.add(2.5))
	f.store(-1)
	require.Equal(t, -1.0, f.load())
}
