package models

import (
	"encoding/json"
	"testing"
)

func rawList(t *testing.T, doc string) []json.RawMessage {
	t.Helper()
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		t.Fatalf("unmarshal %s: %v", doc, err)
	}
	return raw
}

func TestNormalizeOptions_BareStrings(t *testing.T) {
	opts, err := NormalizeOptions(rawList(t, `["up","down"]`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(opts) != 2 || opts[0] != "up" || opts[1] != "down" {
		t.Fatalf("opts=%v", opts)
	}
}

func TestNormalizeOptions_LabelValueObjects(t *testing.T) {
	opts, err := NormalizeOptions(rawList(t, `[{"label":"Team A wins","value":"team_a"},{"label":"Team B wins","value":"team_b"}]`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if opts[0] != "team_a" || opts[1] != "team_b" {
		t.Fatalf("opts=%v", opts)
	}
}

func TestNormalizeOptions_ObjectWithoutValueFallsBackToLabel(t *testing.T) {
	opts, err := NormalizeOptions(rawList(t, `[{"label":"Yes"},{"label":"No"}]`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if opts[0] != "Yes" || opts[1] != "No" {
		t.Fatalf("opts=%v", opts)
	}
}

func TestNormalizeOptions_MixedShapes(t *testing.T) {
	opts, err := NormalizeOptions(rawList(t, `["draw",{"label":"Home","value":"home"}]`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if opts[0] != "draw" || opts[1] != "home" {
		t.Fatalf("opts=%v", opts)
	}
}

func TestNormalizeOptions_Rejects(t *testing.T) {
	cases := map[string]string{
		"too_few":    `["only"]`,
		"duplicate":  `["up","up"]`,
		"empty":      `["up",""]`,
		"bad_shape":  `["up",42]`,
		"whitespace": `["up","   "]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NormalizeOptions(rawList(t, doc)); err == nil {
				t.Fatalf("expected error for %s", doc)
			}
		})
	}
}

func TestEventHasOption(t *testing.T) {
	e := &Event{Options: MustJSON([]string{"up", "down"})}
	if !e.HasOption("up") {
		t.Fatalf("expected up to be a valid option")
	}
	if e.HasOption("sideways") {
		t.Fatalf("sideways should not be a valid option")
	}
}
