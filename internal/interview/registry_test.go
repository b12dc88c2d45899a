package interview

import (
	"fmt"
	"testing"
	"time"
)

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	r, err := NewRegistry(2, func(id string) { evicted = append(evicted, id) })
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	for i := 1; i <= 2; i++ {
		r.add(newSession(fmt.Sprintf("s%d", i), time.Now()))
	}
	// Touch s1 so s2 becomes the oldest.
	if _, ok := r.get("s1"); !ok {
		t.Fatal("s1 missing")
	}
	r.add(newSession("s3", time.Now()))

	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if len(evicted) != 1 || evicted[0] != "s2" {
		t.Errorf("evicted = %v, want [s2]", evicted)
	}
	if _, ok := r.get("s2"); ok {
		t.Error("s2 should be gone")
	}
}

func TestRegistryRejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := NewRegistry(size, nil); err == nil {
			t.Errorf("NewRegistry(%d) should fail", size)
		}
	}
}
