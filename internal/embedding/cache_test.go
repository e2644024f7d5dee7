package embedding

import (
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c, err := NewEmbeddingCache(2)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	// a is now most recent, so c evicts b.
	c.Get("a")
	c.Set("c", []float32{6})
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len=%d", c.Len())
	}
}

func TestEmbeddingCache_returnsCopies(t *testing.T) {
	c, _ := NewEmbeddingCache(1)
	in := []float32{1, 2}
	c.Set("k", in)
	in[0] = 9
	v, _ := c.Get("k")
	if v[0] != 1 {
		t.Errorf("cache kept caller's slice: %v", v)
	}
	v[1] = 9
	again, _ := c.Get("k")
	if again[1] != 2 {
		t.Errorf("cache returned shared slice: %v", again)
	}
}

func TestEmbeddingCache_disabled(t *testing.T) {
	c, err := NewEmbeddingCache(0)
	if err != nil || c != nil {
		t.Fatalf("expected nil cache, got %v, %v", c, err)
	}
	c.Set("a", []float32{1})
	if _, ok := c.Get("a"); ok {
		t.Error("disabled cache should never hit")
	}
	if c.Len() != 0 {
		t.Error("disabled cache should be empty")
	}
}
