package models

import (
	"bytes"
	"encoding/json"
)

// AmountRequest accepts either {"amount": n} or a bare JSON number n.
type AmountRequest struct {
	Amount *int64 `json:"amount" validate:"required"`
}

func (r *AmountRequest) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		var amount int64
		if err := json.Unmarshal(trimmed, &amount); err != nil {
			return err
		}
		r.Amount = &amount
		return nil
	}

	type plain AmountRequest
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*r = AmountRequest(p)
	return nil
}
