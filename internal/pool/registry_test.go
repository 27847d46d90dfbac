package pool

import (
	"context"
	"slices"
	"testing"

	"github.com/seantiz/atlas/internal/model"
)

type nopPool struct{}

func (nopPool) Run(_ context.Context, b *model.Batch) (*model.BatchResult, error) {
	return model.NewBatchResult(b.ID), nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(BackendLocal, func(_ int) Pool { return nopPool{} })
	reg.Register(BackendDistributed, func(_ int) Pool { return nopPool{} })

	f, err := reg.Resolve(BackendLocal)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if f(1) == nil {
		t.Fatal("factory returned nil pool")
	}

	if _, err := reg.Resolve("grid"); err == nil {
		t.Fatal("Resolve accepted an unregistered backend")
	}

	if got := reg.List(); !slices.Equal(got, []string{BackendDistributed, BackendLocal}) {
		t.Errorf("List() = %v", got)
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	reg := NewRegistry()
	first := 0
	reg.Register(BackendLocal, func(_ int) Pool { first++; return nopPool{} })
	reg.Register(BackendLocal, func(_ int) Pool { return nopPool{} })

	f, err := reg.Resolve(BackendLocal)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	f(1)
	if first != 0 {
		t.Error("replaced factory was invoked")
	}
}
