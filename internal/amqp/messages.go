package amqp

import (
	"encoding/json"
	"time"

	"bankgold/internal/core"
)

// RunCompletedMessage announces a finished pipeline run. Consumers fetch
// details from the result store by RunID when they need more than this.
type RunCompletedMessage struct {
	RunID      string    `json:"run_id"`
	Pipeline   string    `json:"pipeline"`
	Rows       int       `json:"rows"`
	Outputs    []string  `json:"outputs"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRunCompletedMessage creates a message for run.
func NewRunCompletedMessage(run core.Run) *RunCompletedMessage {
	outputs := append([]string(nil), run.Outputs...)
	if outputs == nil {
		outputs = []string{}
	}
	return &RunCompletedMessage{
		RunID:      run.ID,
		Pipeline:   run.Pipeline,
		Rows:       run.Rows,
		Outputs:    outputs,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RunCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RunCompletedMessageFromJSON creates a message from JSON bytes
func RunCompletedMessageFromJSON(data []byte) (*RunCompletedMessage, error) {
	var msg RunCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Run rebuilds the run the message announces.
func (m *RunCompletedMessage) Run() core.Run {
	return core.Run{
		ID:         m.RunID,
		Pipeline:   m.Pipeline,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		Rows:       m.Rows,
		Outputs:    m.Outputs,
	}
}
