package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/cellcad/internal/kernel"
)

// marshalHandles encodes operands as a JSON array (never null).
func marshalHandles(hs []kernel.Handle) (string, error) {
	if hs == nil {
		hs = []kernel.Handle{}
	}
	data, err := json.Marshal(hs)
	if err != nil {
		return "", fmt.Errorf("marshal handles: %w", err)
	}
	return string(data), nil
}

func unmarshalHandles(s string) ([]kernel.Handle, error) {
	var hs []kernel.Handle
	if err := json.Unmarshal([]byte(s), &hs); err != nil {
		return nil, fmt.Errorf("unmarshal handles: %w", err)
	}
	if len(hs) == 0 {
		return nil, nil
	}
	return hs, nil
}

// marshalSubstitutions encodes substitutions as [{"old":..,"new":..}].
func marshalSubstitutions(subs []kernel.Substitution) (string, error) {
	if subs == nil {
		subs = []kernel.Substitution{}
	}
	data, err := json.Marshal(subs)
	if err != nil {
		return "", fmt.Errorf("marshal substitutions: %w", err)
	}
	return string(data), nil
}

func unmarshalSubstitutions(s string) ([]kernel.Substitution, error) {
	var subs []kernel.Substitution
	if err := json.Unmarshal([]byte(s), &subs); err != nil {
		return nil, fmt.Errorf("unmarshal substitutions: %w", err)
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return subs, nil
}
