package stream

import (
	"encoding/json"
	"fmt"

	"github.com/dm/stockwatch/internal/model"
)

// EventNewProcessing is the only event type that carries a snapshot.
const EventNewProcessing = "new_processing"

// Event is a decoded push-channel payload. Snapshot is set only when Type is
// EventNewProcessing.
type Event struct {
	Type     string
	Snapshot *model.Snapshot
}

type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeEvent parses a frame payload. Events of other types decode without
// error and with a nil Snapshot.
func DecodeEvent(b []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if w.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrUnexpectedShape)
	}
	if w.Type != EventNewProcessing {
		return Event{Type: w.Type}, nil
	}
	if len(w.Data) == 0 || string(w.Data) == "null" {
		return Event{}, fmt.Errorf("%w: %s without data", ErrUnexpectedShape, w.Type)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(w.Data, &snap); err != nil {
		return Event{}, fmt.Errorf("%w: data: %v", ErrUnexpectedShape, err)
	}
	if err := snap.Validate(); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return Event{Type: w.Type, Snapshot: &snap}, nil
}
