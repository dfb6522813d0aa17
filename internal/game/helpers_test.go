package game

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/lox/dealerschoice/poker"
)

type betCall struct {
	call, min int
}

// scriptedPlayer answers requests from a script and calls or checks once
// the script runs out.
type scriptedPlayer struct {
	mu       sync.Mutex
	bets     []BetResp
	replaces [][]int
	choice   DealersChoiceResp

	betCalls     []betCall
	replaceCalls []int
	updates      []ViewUpdate
}

func (s *scriptedPlayer) Bet(_ context.Context, callAmount, minBet int) BetResp {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.betCalls = append(s.betCalls, betCall{callAmount, minBet})
	if len(s.bets) == 0 {
		return BetChips(callAmount)
	}
	resp := s.bets[0]
	s.bets = s.bets[1:]
	return resp
}

func (s *scriptedPlayer) Replace(_ context.Context, maxReplace int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceCalls = append(s.replaceCalls, maxReplace)
	if len(s.replaces) == 0 {
		return nil
	}
	resp := s.replaces[0]
	s.replaces = s.replaces[1:]
	return resp
}

func (s *scriptedPlayer) DealersChoice(context.Context, []string, []string) DealersChoiceResp {
	return s.choice
}

func (s *scriptedPlayer) Update(u ViewUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, u)
}

type memoryRecorder struct {
	diffs []Diff
}

func (m *memoryRecorder) Record(diffs []Diff) int {
	offset := len(m.diffs)
	m.diffs = append(m.diffs, diffs...)
	return offset
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// stacked deals p0's and p1's hole cards alternately, then the rest in order.
func stacked(cards string) *poker.Deck {
	return poker.NewStackedDeck(poker.MustParseCards(cards)...)
}

func seatsFor(chips int, players ...*scriptedPlayer) []Seat {
	seats := make([]Seat, len(players))
	for i, p := range players {
		seats[i] = Seat{Player: p, Chips: chips}
	}
	return seats
}

func countKind(diffs []Diff, kind DiffKind) int {
	n := 0
	for _, d := range diffs {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
