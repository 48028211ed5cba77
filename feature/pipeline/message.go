package pipeline

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Stage identifies one of the four pipeline stages. Messages carry an
// explicit stage tag so a consumer can verify it is handling the payload it
// expects instead of relying on topic wiring alone.
type Stage string

const (
	StageAccounts Stage = "accounts"
	StageReport   Stage = "report"
	StageEnrich   Stage = "enrich"
	StageExclude  Stage = "exclude"
)

// Topic returns the bus topic a stage consumes from.
func (s Stage) Topic() string {
	return "pipeline." + string(s)
}

// Message is the payload passed between stages. It is self-describing: a
// stage executes from its message alone and never re-derives upstream
// context. In particular both filter predicates are compiled once, by the
// accounts stage, and travel with the message.
type Message struct {
	Stage   Stage  `json:"stage"`
	RunID   string `json:"run_id"`
	SheetID string `json:"sheet_id"`

	CustomerID       string `json:"customer_id,omitempty"`
	LookbackDays     int    `json:"lookback_days,omitempty"`
	ReportFilters    string `json:"report_filters,omitempty"`
	ExclusionFilters string `json:"exclusion_filters,omitempty"`
}

// Next derives the message for the following stage, carrying all context
// forward.
func (m Message) Next(stage Stage) Message {
	m.Stage = stage
	return m
}

// Validate checks the stage-specific required fields. A message failing
// validation must not be processed or forwarded.
func (m Message) Validate() error {
	switch m.Stage {
	case StageAccounts:
		if m.SheetID == "" {
			return fmt.Errorf("accounts message missing sheet_id")
		}
	case StageReport:
		if m.CustomerID == "" {
			return fmt.Errorf("report message missing customer_id")
		}
		if m.LookbackDays <= 0 {
			return fmt.Errorf("report message missing lookback_days")
		}
	case StageEnrich, StageExclude:
		if m.CustomerID == "" {
			return fmt.Errorf("%s message missing customer_id", m.Stage)
		}
	default:
		return fmt.Errorf("unknown stage %q", m.Stage)
	}
	return nil
}

// encoded renders the message back to its bus payload form.
func (m Message) encoded() []byte {
	raw, _ := json.Marshal(m)
	return raw
}

// DecodeMessage parses a bus payload into a validated message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, fmt.Errorf("failed to decode pipeline message: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// DecodeEvent parses an externally delivered event whose data is a base64
// encoded JSON message, as push-style event transports deliver it. The
// returned error is a validation failure the caller should propagate so the
// hosting runtime marks the invocation failed and redelivers.
func DecodeEvent(data string) (Message, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Message{}, fmt.Errorf("failed to decode event payload: %w", err)
	}
	return DecodeMessage(raw)
}
