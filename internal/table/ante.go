package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/lox/dealerschoice/internal/game"
)

// AnteChange says how an ante schedule grows.
type AnteChange int

const (
	Constant AnteChange = iota
	MulEveryNRounds
	MulEveryNSeconds
)

func (c AnteChange) String() string {
	switch c {
	case MulEveryNRounds:
		return "rounds"
	case MulEveryNSeconds:
		return "seconds"
	default:
		return "constant"
	}
}

// ParseAnteChange reads the names String returns.
func ParseAnteChange(s string) (AnteChange, error) {
	switch strings.ToLower(s) {
	case "", "constant":
		return Constant, nil
	case "rounds":
		return MulEveryNRounds, nil
	case "seconds":
		return MulEveryNSeconds, nil
	}
	return Constant, fmt.Errorf("unknown ante change %q", s)
}

// AnteSchedule produces the table rules for each hand. Start is multiplied
// by Mul once every Rounds hands or every Every of play, depending on Change.
type AnteSchedule struct {
	Start  game.AnteRule
	Name   string
	MinBet int
	Change AnteChange
	Mul    int
	Rounds int
	Every  time.Duration
}

// Validate checks the schedule can produce rules.
func (s AnteSchedule) Validate() error {
	if err := (game.TableRules{Ante: s.Start, MinBet: 1}).Validate(); err != nil {
		return err
	}
	if s.Change == Constant {
		return nil
	}
	if s.Mul < 1 {
		return fmt.Errorf("ante multiplier must be at least 1, got %d", s.Mul)
	}
	if s.Change == MulEveryNRounds && s.Rounds < 1 {
		return fmt.Errorf("ante rounds must be at least 1, got %d", s.Rounds)
	}
	if s.Change == MulEveryNSeconds && s.Every <= 0 {
		return fmt.Errorf("ante interval must be positive, got %s", s.Every)
	}
	return nil
}

// steps is how many times the ante has been multiplied by hand number and
// time played.
func (s AnteSchedule) steps(hand int, elapsed time.Duration) int {
	switch s.Change {
	case MulEveryNRounds:
		return hand / s.Rounds
	case MulEveryNSeconds:
		return int(elapsed / s.Every)
	}
	return 0
}

// maxFactor keeps runaway schedules from overflowing.
const maxFactor = 1 << 30

// Rules returns the rules for hand number hand, elapsed into the game.
func (s AnteSchedule) Rules(hand int, elapsed time.Duration) game.TableRules {
	factor := 1
	if s.Mul > 1 {
		for range s.steps(hand, elapsed) {
			if factor > maxFactor/s.Mul {
				factor = maxFactor
				break
			}
			factor *= s.Mul
		}
	}
	ante := s.Start.Scale(factor)

	minBet := s.MinBet * factor
	if s.MinBet <= 0 {
		minBet = ante.Ante
		for _, b := range ante.Blinds {
			minBet = max(minBet, b)
		}
	}
	return game.TableRules{Ante: ante, AnteName: s.Name, MinBet: max(minBet, 1)}
}

// Describe renders the schedule for humans.
func (s AnteSchedule) Describe() string {
	base := s.Start.String()
	switch s.Change {
	case MulEveryNRounds:
		return fmt.Sprintf("%s, x%d every %d hands", base, s.Mul, s.Rounds)
	case MulEveryNSeconds:
		return fmt.Sprintf("%s, x%d every %s", base, s.Mul, s.Every.Round(time.Second))
	}
	return base
}
