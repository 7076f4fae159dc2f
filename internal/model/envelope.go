package model

import (
	"encoding/json"
	"errors"
	"time"
)

// CodeOK is the only envelope code treated as success.
const CodeOK = 200

// ErrEnvelopeNotOK is returned when decoding the payload of a failed envelope.
var ErrEnvelopeNotOK = errors.New("envelope does not carry a successful result")

// Envelope wraps every JSON response of the chat API.
type Envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// OK reports whether the envelope carries a successful result.
func (e *Envelope) OK() bool {
	return e.Code == CodeOK
}

// Decode unmarshals the payload into out. A nil out or empty payload is a no-op.
func (e *Envelope) Decode(out any) error {
	if !e.OK() {
		return ErrEnvelopeNotOK
	}
	if out == nil || len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, out)
}

// Success builds a successful envelope around data.
func Success(data any) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Code: CodeOK, Message: "success", Data: raw, Timestamp: time.Now().UnixMilli()}, nil
}

// Failure builds a failed envelope.
func Failure(code int, message string) *Envelope {
	return &Envelope{Code: code, Message: message, Timestamp: time.Now().UnixMilli()}
}
