package models

import "encoding/json"

// Envelope is the normalized backend response shape. The gateway
// guarantees every successful call yields one: when the server body is
// already wrapped it is decoded as-is, otherwise the gateway
// synthesizes an envelope around the raw body.
type Envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
}

// Decode unmarshals the envelope payload into v.
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}
