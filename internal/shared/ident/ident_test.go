package ident

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalAcceptsNumbersAndStrings(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":1718000000000,"b":"p1","c":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A != "1718000000000" {
		t.Fatalf("expected numeric id as string, got %q", v.A)
	}
	if v.B != "p1" {
		t.Fatalf("expected p1, got %q", v.B)
	}
	if !v.C.IsZero() {
		t.Fatalf("expected null to decode to zero id, got %q", v.C)
	}

	out, _ := json.Marshal(v)
	if string(out) != `{"a":"1718000000000","b":"p1","c":""}` {
		t.Fatalf("unexpected encoding %s", out)
	}
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		if len(id) != 32 {
			t.Fatalf("expected 32 char id, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestWithout(t *testing.T) {
	got := Without([]ID{"1", "2", "3"}, "2")
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("unexpected result %v", got)
	}
	if !Contains(got, "3") || Contains(got, "2") {
		t.Fatalf("contains mismatch on %v", got)
	}
}
