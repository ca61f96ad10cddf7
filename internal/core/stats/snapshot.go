package stats

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zeusync/statpipe/pkg/encoding"
)

// Entry is one rendered line of a snapshot.
type Entry struct {
	Name  string
	Value Value
}

// Snapshot is a point-in-time copy of a registry, in registration order.
type Snapshot struct {
	Entries []Entry
}

var (
	_ encoding.Serializable = (*Snapshot)(nil)
	_ encoding.TextAppender = Snapshot{}
	_ encoding.TextAppender = Value{}
)

// AppendText appends "<name>: <value>\n" for every entry.
func (s Snapshot) AppendText(dst []byte) []byte {
	for _, e := range s.Entries {
		dst = append(dst, e.Name...)
		dst = append(dst, ':', ' ')
		dst = e.Value.AppendText(dst)
		dst = append(dst, '\n')
	}
	return dst
}

func (s Snapshot) String() string {
	return string(s.AppendText(nil))
}

func (s *Snapshot) Serialize() ([]byte, error) {
	return s.AppendText(nil), nil
}

func (s *Snapshot) Deserialize(data []byte) error {
	parsed, err := ParseSnapshot(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Get returns the value of the first entry called name.
func (s Snapshot) Get(name string) (Value, bool) {
	for _, e := range s.Entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Sum merges other into s by name. Order follows first appearance; integer
// plus integer stays integer, anything involving a float becomes a float.
func (s Snapshot) Sum(other Snapshot) Snapshot {
	out := Snapshot{Entries: make([]Entry, 0, len(s.Entries)+len(other.Entries))}
	index := make(map[string]int, len(s.Entries)+len(other.Entries))

	for _, src := range [2][]Entry{s.Entries, other.Entries} {
		for _, e := range src {
			if i, ok := index[e.Name]; ok {
				out.Entries[i].Value = out.Entries[i].Value.add(e.Value)
				continue
			}
			index[e.Name] = len(out.Entries)
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// ParseSnapshot reads the text form written by AppendText. Blank lines are ignored.
func ParseSnapshot(r io.Reader) (Snapshot, error) {
	var s Snapshot

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e, err := parseLine(line)
		if err != nil {
			return Snapshot{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
		s.Entries = append(s.Entries, e)
	}
	if err := sc.Err(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func parseLine(line string) (Entry, error) {
	// names may contain ':' themselves, the value never does
	i := strings.LastIndexByte(line, ':')
	if i < 0 {
		return Entry{}, fmt.Errorf("%w: no separator in %q", ErrMalformedLine, line)
	}
	name := strings.TrimSpace(line[:i])
	raw := strings.TrimSpace(line[i+1:])
	if name == "" || raw == "" {
		return Entry{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Entry{Name: name, Value: Int(n)}, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: bad value %q", ErrMalformedLine, raw)
	}
	return Entry{Name: name, Value: Float(f)}, nil
}
