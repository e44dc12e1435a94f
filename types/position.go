package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Position is a registry entry binding an adaptor to its adaptor data.
type Position struct {
	ID          uint32          `json:"id"`
	Adaptor     string          `json:"adaptor"`
	AdaptorData json.RawMessage `json:"adaptor_data"`
	IsDebt      bool            `json:"is_debt"`
	Trusted     bool            `json:"trusted"`
}

// Validate performs basic validation on the position fields.
func (p Position) Validate() error {
	if p.ID == 0 {
		return fmt.Errorf("position id cannot be zero")
	}
	if strings.TrimSpace(p.Adaptor) == "" {
		return fmt.Errorf("position %d has no adaptor", p.ID)
	}
	if !json.Valid(p.AdaptorData) {
		return fmt.Errorf("position %d adaptor data is not valid json", p.ID)
	}
	return nil
}

// Descriptor returns the key identifying the position's (adaptor, debt, data) triple.
func (p Position) Descriptor() (string, error) {
	return PositionDescriptor(p.Adaptor, p.IsDebt, p.AdaptorData)
}

// PositionDescriptor builds the registry descriptor for an adaptor and its data.
// The data is canonicalized (compact, object keys sorted) so that equivalent
// encodings map to the same position.
func PositionDescriptor(adaptorID string, isDebt bool, adaptorData []byte) (string, error) {
	canonical, err := CanonicalJSON(adaptorData)
	if err != nil {
		return "", fmt.Errorf("invalid adaptor data: %w", err)
	}
	return fmt.Sprintf("%s|%t|%s", adaptorID, isDebt, canonical), nil
}

// CanonicalJSON re-encodes bz with sorted object keys and no insignificant
// whitespace. Numbers keep their original text.
func CanonicalJSON(bz []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(bz))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after json value")
	}
	return json.Marshal(v)
}
