/*
Package stats holds the in-process counter registry.

A Registry owns an ordered, append-only set of named counters. Each Counter has
a fixed Kind (integer or float) chosen at creation; mutations carrying a Value
of the other kind are rejected with ErrKindMismatch and leave the counter
untouched.

	reg := stats.NewRegistry()
	ticks, _ := reg.CreateCounter("my.ticks", stats.KindFloat)
	tocks, _ := reg.CreateCounter("my.tocks", stats.KindInteger)

	ticks.Increment()
	for i := 0; i < 10; i++ {
		_ = tocks.IncrementBy(stats.Int(2))
	}
	tocks.Increment()

	fmt.Print(reg.Snapshot().String())
	// my.ticks: 1.000000
	// my.tocks: 21

# Consistency

Every counter is stored in a single atomic word, so a read never observes a
half-written value. Registration takes the registry write lock; Snapshot holds
the read lock only long enough to copy the counter list and then loads each
counter on its own. A snapshot is therefore weakly consistent: counters
mutated while it is being taken may be seen before or after the mutation.

# Wire format

Snapshot.AppendText renders one "<name>: <value>\n" line per entry in
registration order. Integers use plain decimal, floats use six fractional
digits ("%f").
*/
package stats
