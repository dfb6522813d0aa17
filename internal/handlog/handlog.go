// Package handlog archives finished hands as a stream of msgpack records,
// one file per table.
package handlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lox/dealerschoice/internal/fileutil"
	"github.com/lox/dealerschoice/internal/game"
	"github.com/vmihailenco/msgpack/v5"
)

// Record is one finished hand. Diffs are stored unredacted.
type Record struct {
	ID            string          `msgpack:"id"`
	Table         string          `msgpack:"table"`
	Number        int             `msgpack:"number"`
	Variant       string          `msgpack:"variant"`
	SpecialGroups []string        `msgpack:"special_groups,omitempty"`
	Rules         game.TableRules `msgpack:"rules"`
	Roster        []string        `msgpack:"roster"`
	Deltas        []int           `msgpack:"deltas"`
	Diffs         []game.Diff     `msgpack:"diffs"`
	Finished      time.Time       `msgpack:"finished"`
}

// Name returns the player who held role in this hand.
func (r *Record) Name(role game.Role) string {
	if role < 0 || int(role) >= len(r.Roster) {
		return role.String()
	}
	return r.Roster[role]
}

// Lines renders the hand's log for humans.
func (r *Record) Lines() []string {
	lines := make([]string, len(r.Diffs))
	for i, d := range r.Diffs {
		lines[i] = d.Describe(r.Name)
	}
	return lines
}

// Path is where a table's archive lives inside dir.
func Path(dir, table string) string {
	return filepath.Join(dir, table+".msgpack")
}

// Writer appends records to one archive file.
type Writer struct {
	mu   sync.Mutex
	file *os.File
}

// Create opens the table's archive in dir for appending, creating both as
// needed.
func Create(dir, table string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	f, err := os.OpenFile(Path(dir, table), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Writer{file: f}, nil
}

// Append writes rec in a single write so a crash never splits a record.
func (w *Writer) Append(rec Record) error {
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("encode hand %d: %w", rec.Number, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return os.ErrClosed
	}
	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("append hand %d: %w", rec.Number, err)
	}
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Read calls fn for every record in r, in order, stopping at the first error.
func Read(r io.Reader, fn func(Record) error) error {
	dec := msgpack.NewDecoder(r)
	for n := 0; ; n++ {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("record %d: %w", n, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// ReadFile reads every record of an archive file.
func ReadFile(path string, fn func(Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Read(f, fn)
}

// WriteFile replaces path with an archive holding exactly records.
func WriteFile(path string, records []Record) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		enc := msgpack.NewEncoder(w)
		for i := range records {
			if err := enc.Encode(&records[i]); err != nil {
				return fmt.Errorf("encode hand %d: %w", records[i].Number, err)
			}
		}
		return nil
	})
}
