// Package protocol defines the messages exchanged with remote players over
// websocket binary frames. Every frame is one msgpack-encoded Envelope.
package protocol

import (
	"time"

	"github.com/lox/dealerschoice/internal/game"
	"github.com/lox/dealerschoice/internal/table"
)

// Type identifies the message carried by an envelope.
type Type string

const (
	// Client -> Server
	TypeHello         Type = "hello"
	TypeBet           Type = "bet"
	TypeReplace       Type = "replace"
	TypeDealersChoice Type = "dealers_choice"
	TypeResync        Type = "resync"

	// Server -> Client
	TypeWelcome Type = "welcome"
	TypeUpdate  Type = "update"
	TypeRequest Type = "request"
	TypeError   Type = "error"
)

// Message is anything that can travel in an envelope.
type Message interface {
	MessageType() Type
}

// Client -> Server Messages

// Hello is the first frame of a connection. A client reconnecting sends the
// token from its earlier Welcome to take its seat back.
type Hello struct {
	Table string `msgpack:"table"`
	Name  string `msgpack:"name"`
	Token string `msgpack:"token,omitempty"`
	// Spectate watches the table without taking a seat.
	Spectate bool `msgpack:"spectate,omitempty"`
}

// Bet answers a bet request.
type Bet struct {
	Request uint64 `msgpack:"request"`
	Fold    bool   `msgpack:"fold"`
	Amount  int    `msgpack:"amount"`
}

// Replace answers a replace request with hand positions to discard.
type Replace struct {
	Request uint64 `msgpack:"request"`
	Indices []int  `msgpack:"indices"`
}

// DealersChoice answers a dealer's choice request.
type DealersChoice struct {
	Request       uint64   `msgpack:"request"`
	Variant       int      `msgpack:"variant"`
	SpecialGroups []string `msgpack:"special_groups"`
}

// Resync asks for every log entry from Offset on, for clients that missed
// updates or want history.
type Resync struct {
	Offset int `msgpack:"offset"`
}

// Server -> Client Messages

// Welcome confirms a hello. Offset is where the log updates that follow
// start from.
type Welcome struct {
	Player string `msgpack:"player"`
	Token  string `msgpack:"token"`
	Table  string `msgpack:"table"`
	Offset int    `msgpack:"offset"`
}

// Update carries whatever changed since the last update. Next is the log
// offset to resync from.
type Update struct {
	Table *table.View       `msgpack:"table,omitempty"`
	Hand  *game.View        `msgpack:"hand,omitempty"`
	Log   []table.LogUpdate `msgpack:"log,omitempty"`
	Next  int               `msgpack:"next"`
}

// RequestKind says what a request asks for.
type RequestKind string

const (
	RequestBet           RequestKind = "bet"
	RequestReplace       RequestKind = "replace"
	RequestDealersChoice RequestKind = "dealers_choice"
)

// Request asks the player to decide before Deadline. Answers carry its ID.
// Hand is the player's view the decision is made against, which may be newer
// than the last update.
type Request struct {
	ID            uint64      `msgpack:"id"`
	Kind          RequestKind `msgpack:"kind"`
	Hand          *game.View  `msgpack:"hand,omitempty"`
	CallAmount    int         `msgpack:"call_amount,omitempty"`
	MinBet        int         `msgpack:"min_bet,omitempty"`
	MaxReplace    int         `msgpack:"max_replace,omitempty"`
	Variants      []string    `msgpack:"variants,omitempty"`
	SpecialGroups []string    `msgpack:"special_groups,omitempty"`
	Deadline      time.Time   `msgpack:"deadline"`
}

// Error codes
const (
	CodeBadMessage   = "bad_message"
	CodeUnknownTable = "unknown_table"
	CodeTableFull    = "table_full"
	CodeNameTaken    = "name_taken"
	CodeBadToken     = "bad_token"
	CodeInvalidMove  = "invalid_move"
	CodeStaleRequest = "stale_request"
)

// Error reports a problem with something the client sent.
type Error struct {
	Code    string `msgpack:"code"`
	Message string `msgpack:"message"`
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

func (*Hello) MessageType() Type         { return TypeHello }
func (*Bet) MessageType() Type           { return TypeBet }
func (*Replace) MessageType() Type       { return TypeReplace }
func (*DealersChoice) MessageType() Type { return TypeDealersChoice }
func (*Resync) MessageType() Type        { return TypeResync }
func (*Welcome) MessageType() Type       { return TypeWelcome }
func (*Update) MessageType() Type        { return TypeUpdate }
func (*Request) MessageType() Type       { return TypeRequest }
func (*Error) MessageType() Type         { return TypeError }
