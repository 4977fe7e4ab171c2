package verification

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Request is the message published to the oracle request topic.
type Request struct {
	RequestID uuid.UUID `json:"request_id"`
	TicketID  uuid.UUID `json:"ticket_id"`
}

// Result is the message the oracle publishes on the result topic. Payload
// is an opaque usage flag: zero means the ticket is unused.
type Result struct {
	RequestID uuid.UUID `json:"request_id"`
	Success   bool      `json:"success"`
	Payload   int64     `json:"payload"`
}

func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

func decodeResult(data []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
