package id

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateString(t *testing.T) {
	gen := NewGenerator()

	id := gen.GenerateString()

	if len(id) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id))
	}
}

func TestTypedIDs(t *testing.T) {
	sess := NewSessionID()
	if !strings.HasPrefix(sess.String(), SessionPrefix+"_") {
		t.Errorf("session ID should start with '%s_', got: %s", SessionPrefix, sess)
	}

	req := NewRequestID()
	if !strings.HasPrefix(req.String(), RequestPrefix+"_") {
		t.Errorf("request ID should start with '%s_', got: %s", RequestPrefix, req)
	}

	parts := strings.SplitN(sess.String(), "_", 2)
	if len(parts) != 2 || !IsValid(parts[1]) {
		t.Errorf("ULID part should be valid: %s", sess)
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const n = 100

	var wg sync.WaitGroup
	seen := sync.Map{}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.GenerateString()
			if _, loaded := seen.LoadOrStore(id, true); loaded {
				t.Errorf("duplicate ID generated: %s", id)
			}
		}()
	}
	wg.Wait()
}
