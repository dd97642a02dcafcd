package store

import (
	"context"
	"errors"
	"testing"
)

type countingTranslator struct {
	calls int
	out   string
	err   error
}

func (c *countingTranslator) Translate(_ context.Context, _, _ string) (string, error) {
	c.calls++
	return c.out, c.err
}

func TestStore_Memory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "  The cat sat. ", "kk", "kazllm", "Мысық отырды."); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}

	got, ok, err := s.GetCachedTranslation(ctx, "The cat sat.", "kk", "kazllm")
	if err != nil {
		t.Fatalf("GetCachedTranslation failed: %v", err)
	}
	if !ok || got != "Мысық отырды." {
		t.Errorf("GetCachedTranslation() = %q, %v", got, ok)
	}

	if _, ok, _ := s.GetCachedTranslation(ctx, "The cat sat.", "kk", "claude"); ok {
		t.Error("memory must be keyed by model")
	}
}

func TestMemoryTranslator(t *testing.T) {
	s := newTestStore(t)
	next := &countingTranslator{out: "Мысық отырды."}
	m := s.Memory(next, "kk")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := m.Translate(ctx, "The cat sat.", "kazllm")
		if err != nil {
			t.Fatalf("Translate failed: %v", err)
		}
		if got != "Мысық отырды." {
			t.Errorf("Translate() = %q", got)
		}
	}
	if next.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", next.calls)
	}
}

func TestMemoryTranslator_ErrorNotRemembered(t *testing.T) {
	s := newTestStore(t)
	boom := errors.New("offline")
	next := &countingTranslator{err: boom}
	m := s.Memory(next, "kk")

	if _, err := m.Translate(context.Background(), "x", "kazllm"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
	if _, ok, _ := s.GetCachedTranslation(context.Background(), "x", "kk", "kazllm"); ok {
		t.Error("failed translation must not be remembered")
	}
}

func TestStore_MemoryManagement(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveToMemory(ctx, "The cat sat.", "kk", "kazllm", "Мысық отырды."); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}
	if err := s.SaveToMemory(ctx, "It purred.", "kk", "kazllm", "Ол пырылдады."); err != nil {
		t.Fatalf("SaveToMemory failed: %v", err)
	}
	if _, _, err := s.GetCachedTranslation(ctx, "The cat sat.", "kk", "kazllm"); err != nil {
		t.Fatalf("GetCachedTranslation failed: %v", err)
	}

	entries, err := s.ListMemory(ctx)
	if err != nil {
		t.Fatalf("ListMemory failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].SourceText != "The cat sat." || entries[0].UsageCount != 2 {
		t.Errorf("most recently used entry = %+v", entries[0])
	}

	stats, err := s.MemoryStats(ctx)
	if err != nil {
		t.Fatalf("MemoryStats failed: %v", err)
	}
	if stats.TotalEntries != 2 || stats.TotalUsage != 3 {
		t.Errorf("MemoryStats() = %+v", stats)
	}

	if err := s.DeleteMemory(ctx, entries[1].ID); err != nil {
		t.Fatalf("DeleteMemory failed: %v", err)
	}
	if err := s.DeleteMemory(ctx, entries[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	n, err := s.ClearMemory(ctx)
	if err != nil {
		t.Fatalf("ClearMemory failed: %v", err)
	}
	if n != 1 {
		t.Errorf("ClearMemory() = %d, want 1", n)
	}
}
