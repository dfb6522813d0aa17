package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

var ErrUnknownMessageType = errors.New("protocol: unknown message type")

// Envelope is the frame on the wire: a type tag and the encoded message.
type Envelope struct {
	Type Type               `msgpack:"type"`
	Body msgpack.RawMessage `msgpack:"body"`
}

// Pool of buffers to avoid allocation and ensure thread safety
var bufferPool = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

func newMessage(t Type) (Message, error) {
	switch t {
	case TypeHello:
		return &Hello{}, nil
	case TypeBet:
		return &Bet{}, nil
	case TypeReplace:
		return &Replace{}, nil
	case TypeDealersChoice:
		return &DealersChoice{}, nil
	case TypeResync:
		return &Resync{}, nil
	case TypeWelcome:
		return &Welcome{}, nil
	case TypeUpdate:
		return &Update{}, nil
	case TypeRequest:
		return &Request{}, nil
	case TypeError:
		return &Error{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, t)
}

// Marshal wraps msg in an envelope and encodes it.
func Marshal(msg Message) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	enc := msgpack.NewEncoder(buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(msg); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", msg.MessageType(), err)
	}
	body := bytes.Clone(buf.Bytes())

	buf.Reset()
	if err := enc.Encode(Envelope{Type: msg.MessageType(), Body: body}); err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	// Copy out so the pooled buffer is never aliased.
	return bytes.Clone(buf.Bytes()), nil
}

// Unmarshal decodes an envelope and the message inside it.
func Unmarshal(data []byte) (Message, error) {
	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	msg, err := newMessage(env.Type)
	if err != nil {
		return nil, err
	}
	if err := msgpack.Unmarshal(env.Body, msg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", env.Type, err)
	}
	return msg, nil
}
