// Package game runs single hands of the poker variants a dealer can choose
// from.
//
// A Variant is a list of Rounds: Ante, DrawToHand, DrawToCommunity, Bet and
// Replace. Hand walks those rounds, asking each seated Player for bets and
// replacements and pushing every change to every player as a ViewUpdate.
//
// # Basic Usage
//
//	h, err := game.NewHand(seats, game.Config{
//	    Variant: game.Variants()[0],
//	    Rules:   game.TableRules{Ante: game.BlindsOf(1, 2), MinBet: 2},
//	    Deck:    poker.NewDeck(rng),
//	})
//	if err != nil {
//	    return err
//	}
//	res, err := h.Play(ctx)
//	// res.Deltas holds each role's net chip change.
//
// # Views and Diffs
//
// Each change to a hand is a Diff. Diffs are handed to the Recorder
// unredacted, then redacted per viewer with RedactAll so a player only ever
// sees their own face-down cards. View is the full state of the hand from one
// player's seat, with helpers such as ValidBet and Pot for bots.
//
// # Settlement
//
// CalcSubpots splits the committed chips into side pots and CalcWinners
// awards each of them. A hand that ends by folds is settled without anyone
// showing cards.
package game
