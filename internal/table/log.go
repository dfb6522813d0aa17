package table

import (
	"slices"

	"github.com/lox/dealerschoice/internal/game"
)

// HandLog is the diff log of one hand. Roster maps roles to player ids so the
// log can be redacted for whoever reads it later. Start is the flat offset of
// the first diff across every hand the table has dealt.
type HandLog struct {
	Number        int
	ID            string
	Roster        []string
	Variant       string
	SpecialGroups []string
	Rules         game.TableRules
	Start         int
	Diffs         []game.Diff
	Deltas        []int
	Aborted       bool
}

func (l *HandLog) role(id string) game.Role {
	if id == "" {
		return game.NoRole
	}
	if i := slices.Index(l.Roster, id); i >= 0 {
		return game.Role(i)
	}
	return game.NoRole
}

// LogUpdate is a run of one hand's diffs starting at offset Start.
type LogUpdate struct {
	Hand   int         `msgpack:"hand"`
	Roster []string    `msgpack:"roster"`
	Start  int         `msgpack:"start"`
	Diffs  []game.Diff `msgpack:"diffs"`
}

// Record appends a batch of diffs to the current hand's log.
func (t *Table) Record(diffs []game.Diff) int {
	t.mu.Lock()
	l := &t.logs[len(t.logs)-1]
	offset := t.logEnd
	l.Diffs = append(l.Diffs, diffs...)
	t.logEnd += len(diffs)
	end := t.logEnd
	t.mu.Unlock()

	t.logFeed.Send(end)
	return offset
}

// LogSince returns every diff from offset on, redacted for viewer (a player
// id, or "" for spectators), and the offset to ask from next time.
func (t *Table) LogSince(viewer string, offset int) ([]LogUpdate, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	offset = max(offset, 0)
	// Later hands start later; skip straight to the first one still needed.
	first, _ := slices.BinarySearchFunc(t.logs, offset, func(l HandLog, off int) int {
		return l.Start + len(l.Diffs) - 1 - off
	})

	var out []LogUpdate
	for i := first; i < len(t.logs); i++ {
		l := &t.logs[i]
		from := max(offset-l.Start, 0)
		if from >= len(l.Diffs) {
			continue
		}
		out = append(out, LogUpdate{
			Hand:   l.Number,
			Roster: slices.Clone(l.Roster),
			Start:  l.Start + from,
			Diffs:  game.RedactAll(l.Diffs[from:], l.role(viewer)),
		})
	}
	return out, t.logEnd
}

// LogEnd is the offset the next diff will be logged at.
func (t *Table) LogEnd() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.logEnd
}

// Hands returns a copy of every hand log, finished or not.
func (t *Table) Hands() []HandLog {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]HandLog, len(t.logs))
	for i, l := range t.logs {
		l.Roster = slices.Clone(l.Roster)
		l.Diffs = slices.Clone(l.Diffs)
		l.Deltas = slices.Clone(l.Deltas)
		out[i] = l
	}
	return out
}
