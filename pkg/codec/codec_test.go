package codec

import (
	"testing"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONRoundtrip(t *testing.T) {
	reg := NewRegistry()
	c := reg.Get("application/json")
	if c == nil {
		t.Fatalf("json codec not registered by default")
	}
	b, err := c.Marshal(sample{Name: "peer", Count: 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out sample
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Name != "peer" || out.Count != 3 {
		t.Fatalf("roundtrip mismatch: %#v", out)
	}
}

func TestCBORRoundtrip(t *testing.T) {
	reg := NewRegistry()
	c, err := CBOR()
	if err != nil {
		t.Fatalf("cbor: %v", err)
	}
	reg.Register(c)
	if reg.Get("application/cbor") == nil {
		t.Fatalf("cbor codec not retrievable")
	}
	b, err := c.Marshal(sample{Name: "peer", Count: 7})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out sample
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Name != "peer" || out.Count != 7 {
		t.Fatalf("roundtrip mismatch: %#v", out)
	}
}
