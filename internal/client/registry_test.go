package client

import (
	"sync"
	"testing"
)

func TestRegistryMask(t *testing.T) {
	r := newRegistry()
	noop := func(int, int, uint32) {}

	if r.mask() != 0 {
		t.Errorf("empty registry mask = 0x%x, want 0", r.mask())
	}

	r.register(0, noop)
	r.register(17, noop)
	r.register(31, noop)
	want := uint32(1 | 1<<17 | 1<<31)
	if r.mask() != want {
		t.Errorf("mask = 0x%08x, want 0x%08x", r.mask(), want)
	}

	r.unregister(17)
	want = 1 | 1<<31
	if r.mask() != want {
		t.Errorf("mask after unregister = 0x%08x, want 0x%08x", r.mask(), want)
	}
}

func TestRegistryReplaceAndRemove(t *testing.T) {
	r := newRegistry()
	noop := func(int, int, uint32) {}

	if replaced := r.register(5, noop); replaced {
		t.Error("first register reported replacement")
	}
	if replaced := r.register(5, noop); !replaced {
		t.Error("second register did not report replacement")
	}
	if !r.unregister(5) {
		t.Error("unregister of registered pin returned false")
	}
	if r.unregister(5) {
		t.Error("unregister of absent pin returned true")
	}
	if r.lookup(5) != nil {
		t.Error("lookup after unregister returned a callback")
	}
}

func TestRegistryLastLevel(t *testing.T) {
	r := newRegistry()
	r.register(9, func(int, int, uint32) {})

	if got := r.lastLevel(9); got != -1 {
		t.Errorf("lastLevel before any dispatch = %d, want -1", got)
	}
	r.recordLevel(9, LevelHigh)
	if got := r.lastLevel(9); got != LevelHigh {
		t.Errorf("lastLevel = %d, want %d", got, LevelHigh)
	}
	// Recording for an absent pin must not resurrect it.
	r.recordLevel(10, LevelLow)
	if got := r.lastLevel(10); got != -1 {
		t.Errorf("lastLevel for absent pin = %d, want -1", got)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := newRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(gpio int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.register(gpio, func(int, int, uint32) {})
				r.unregister(gpio)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				for gpio, fn := range r.snapshot() {
					fn(gpio, LevelLow, 0)
				}
				_ = r.mask()
			}
		}()
	}
	wg.Wait()

	if r.mask() != 0 {
		t.Errorf("mask after balanced register/unregister = 0x%x, want 0", r.mask())
	}
}
