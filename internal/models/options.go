package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

var ErrBadOptionShape = errors.New("options must be strings or {label,value} objects")

// NormalizeOptions converts the two option shapes seen in the wild, bare
// strings and {label,value} objects, into the canonical ordered list of
// outcome identifiers. Core logic only ever sees the canonical form.
func NormalizeOptions(raw []json.RawMessage) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := map[string]struct{}{}
	for _, item := range raw {
		var label string
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			label = s
		} else {
			var obj struct {
				Label string `json:"label"`
				Value string `json:"value"`
			}
			if err := json.Unmarshal(item, &obj); err != nil {
				return nil, ErrBadOptionShape
			}
			label = obj.Value
			if label == "" {
				label = obj.Label
			}
		}
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, fmt.Errorf("%w: empty option label", ErrBadOptionShape)
		}
		if _, ok := seen[label]; ok {
			return nil, fmt.Errorf("%w: duplicate option %q", ErrBadOptionShape, label)
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 options", ErrBadOptionShape)
	}
	return out, nil
}

// OptionList decodes the canonical options column.
func (e *Event) OptionList() ([]string, error) {
	var opts []string
	if err := json.Unmarshal(e.Options, &opts); err != nil {
		return nil, fmt.Errorf("decode event %d options: %w", e.ID, err)
	}
	return opts, nil
}

// HasOption reports whether label is one of the event's configured outcomes.
func (e *Event) HasOption(label string) bool {
	opts, err := e.OptionList()
	if err != nil {
		return false
	}
	for _, o := range opts {
		if o == label {
			return true
		}
	}
	return false
}

// EntryFeeSet returns the event-specific allowed entry fees, or nil when the
// event defers to the global set.
func (e *Event) EntryFeeSet() ([]int64, error) {
	if len(e.AllowedEntryFees) == 0 {
		return nil, nil
	}
	var fees []int64
	if err := json.Unmarshal(e.AllowedEntryFees, &fees); err != nil {
		return nil, fmt.Errorf("decode event %d entry fees: %w", e.ID, err)
	}
	return fees, nil
}

// MustJSON marshals v for a jsonb column. It panics only on unmarshalable
// values, which model construction never produces.
func MustJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return datatypes.JSON(raw)
}
