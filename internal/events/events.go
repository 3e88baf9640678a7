package events

import (
	"encoding/json"
	"time"
)

const (
	TypePing              = "ping"
	TypeApplicantExported = "applicant_exported"
	TypeRunFinished       = "run_finished"
)

// Event is the envelope of every SSE message.
type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// RunFinished is the payload of run_finished. Error is empty on success.
type RunFinished struct {
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
}
