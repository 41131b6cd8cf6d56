package complyscan

import "testing"

func boolPtr(b bool) *bool       { return &b }
func strPtr(s string) *string    { return &s }
func intPtr(n int) *int          { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestPickString(t *testing.T) {
	if got := pickString("cli", strPtr("local"), strPtr("global")); got != "cli" {
		t.Fatalf("got %q", got)
	}
	if got := pickString("", strPtr("local"), strPtr("global")); got != "local" {
		t.Fatalf("got %q", got)
	}
	if got := pickString("", nil, strPtr("global")); got != "global" {
		t.Fatalf("got %q", got)
	}
	if got := pickString("", strPtr(""), nil); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestPickInt(t *testing.T) {
	if got := pickInt(8, intPtr(4), nil); got != 8 {
		t.Fatalf("got %d", got)
	}
	if got := pickInt(0, intPtr(4), intPtr(2)); got != 4 {
		t.Fatalf("got %d", got)
	}
	if got := pickInt(0, nil, intPtr(2)); got != 2 {
		t.Fatalf("got %d", got)
	}
}

func TestPickFloat(t *testing.T) {
	if got := pickFloat(0, floatPtr(40.5), nil); got != 40.5 {
		t.Fatalf("got %v", got)
	}
	if got := pickFloat(0, nil, nil); got != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestPickBool(t *testing.T) {
	if !pickBool(true, boolPtr(false), boolPtr(false)) {
		t.Fatal("cli true must win")
	}
	if !pickBool(false, boolPtr(true), boolPtr(false)) {
		t.Fatal("local value must apply when cli is unset")
	}
	if pickBool(false, boolPtr(false), boolPtr(true)) {
		t.Fatal("local false must shadow global true")
	}
	if !pickBool(false, nil, boolPtr(true)) {
		t.Fatal("global value must apply when local is unset")
	}
	if pickBool(false, nil, nil) {
		t.Fatal("all unset must default to false")
	}
}

func TestPickStrings(t *testing.T) {
	if got := pickStrings([]string{"a"}, []string{"b"}, nil); got[0] != "a" {
		t.Fatalf("got %v", got)
	}
	if got := pickStrings(nil, []string{"b"}, []string{"c"}); got[0] != "b" {
		t.Fatalf("got %v", got)
	}
	if got := pickStrings(nil, nil, []string{"c"}); got[0] != "c" {
		t.Fatalf("got %v", got)
	}
}
