package cache

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(NewFileStore(filepath.Join(t.TempDir(), "memory.json")))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestCache_LookupMiss(t *testing.T) {
	c := newTestCache(t)
	if got := c.Lookup("never asked"); got != nil {
		t.Errorf("Lookup() = %v, want nil", got)
	}
}

func TestCache_AppendOnly(t *testing.T) {
	c := newTestCache(t)

	answers := []string{"first", "second", "third"}
	for _, a := range answers {
		if err := c.RecordAnswer("what is your pricing?", a); err != nil {
			t.Fatalf("RecordAnswer() error = %v", err)
		}
	}

	got := c.Lookup("what is your pricing?")
	if len(got) != len(answers) {
		t.Fatalf("Lookup() returned %d answers, want %d", len(got), len(answers))
	}
	for i, want := range answers {
		if got[i] != want {
			t.Errorf("answer[%d] = %q, want %q", i, got[i], want)
		}
	}
}

func TestCache_ExactMatchKeys(t *testing.T) {
	c := newTestCache(t)
	if err := c.RecordAnswer("Hello?", "hi"); err != nil {
		t.Fatalf("RecordAnswer() error = %v", err)
	}

	for _, q := range []string{"hello?", "Hello? ", "Hello"} {
		if got := c.Lookup(q); got != nil {
			t.Errorf("Lookup(%q) = %v, want nil (keys are exact-match)", q, got)
		}
	}
}

func TestCache_LookupReturnsCopy(t *testing.T) {
	c := newTestCache(t)
	if err := c.RecordAnswer("q", "a"); err != nil {
		t.Fatalf("RecordAnswer() error = %v", err)
	}

	got := c.Lookup("q")
	got[0] = "mutated"

	if again := c.Lookup("q"); again[0] != "a" {
		t.Errorf("cache entry mutated through Lookup result: %q", again[0])
	}
}

func TestCache_ReloadFromStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")

	c, err := New(NewFileStore(path))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.RecordAnswer("q1", "a1"); err != nil {
		t.Fatalf("RecordAnswer() error = %v", err)
	}
	if err := c.RecordAnswer("q1", "a2"); err != nil {
		t.Fatalf("RecordAnswer() error = %v", err)
	}

	reloaded, err := New(NewFileStore(path))
	if err != nil {
		t.Fatalf("New() after reload error = %v", err)
	}
	got := reloaded.Lookup("q1")
	if len(got) != 2 || got[0] != "a1" || got[1] != "a2" {
		t.Errorf("reloaded Lookup() = %v, want [a1 a2]", got)
	}
}

type failingStore struct {
	saveErr error
}

func (s *failingStore) Load() (map[string][]string, error) { return nil, nil }
func (s *failingStore) Save(map[string][]string) error     { return s.saveErr }

func TestCache_PersistenceFailureKeepsMemoryUpdate(t *testing.T) {
	wantErr := errors.New("disk full")
	c, err := New(&failingStore{saveErr: wantErr})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = c.RecordAnswer("q", "a")
	if !errors.Is(err, wantErr) {
		t.Errorf("RecordAnswer() error = %v, want %v", err, wantErr)
	}

	if got := c.Lookup("q"); len(got) != 1 || got[0] != "a" {
		t.Errorf("in-memory entry lost after failed flush: %v", got)
	}
}

func TestPickAnswer(t *testing.T) {
	answers := []string{"a", "b", "c"}
	seen := make(map[string]bool)
	for range 100 {
		pick := PickAnswer(answers)
		seen[pick] = true
		found := false
		for _, a := range answers {
			if a == pick {
				found = true
			}
		}
		if !found {
			t.Fatalf("PickAnswer() = %q, not a member of %v", pick, answers)
		}
	}
	if len(seen) < 2 {
		t.Errorf("PickAnswer() returned only %v over 100 picks, want variety", seen)
	}
}
