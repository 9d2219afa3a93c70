package fs

import (
	"context"
	"errors"
	"testing"

	"github.com/justyntemme/shellnav/internal/location"
)

type countingEnumerator struct {
	calls int
	err   error
}

func (c *countingEnumerator) Enumerate(_ context.Context, loc location.Location, _ Options) ([]Entry, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []Entry{{Name: "item", Path: loc.Join("item")}}, nil
}

func TestCache_HitAndBypass(t *testing.T) {
	inner := &countingEnumerator{}
	c, err := NewCache(inner, 8)
	if err != nil {
		t.Fatal(err)
	}
	loc := location.MustParse(`C:\Fake`)

	for i := 0; i < 3; i++ {
		if _, err := c.Enumerate(context.Background(), loc, Options{}); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 underlying call, got %d", inner.calls)
	}

	if _, err := c.Enumerate(context.Background(), loc, Options{BypassCache: true}); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("expected bypass to reach the enumerator, got %d calls", inner.calls)
	}

	// Different options are cached separately.
	if _, err := c.Enumerate(context.Background(), loc, Options{ShowHidden: true}); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 underlying calls, got %d", inner.calls)
	}
}

func TestCache_ReturnsCopies(t *testing.T) {
	c, _ := NewCache(&countingEnumerator{}, 8)
	loc := location.MustParse(`/tmp`)

	first, _ := c.Enumerate(context.Background(), loc, Options{})
	first[0].Name = "mutated"

	second, _ := c.Enumerate(context.Background(), loc, Options{})
	if second[0].Name != "item" {
		t.Errorf("cached entries were mutated: %q", second[0].Name)
	}
}

func TestCache_Invalidate(t *testing.T) {
	inner := &countingEnumerator{}
	c, _ := NewCache(inner, 8)
	a := location.MustParse(`C:\A`)
	b := location.MustParse(`C:\B`)

	c.Enumerate(context.Background(), a, Options{})
	c.Enumerate(context.Background(), a, Options{ShowHidden: true})
	c.Enumerate(context.Background(), b, Options{})
	if c.Len() != 3 {
		t.Fatalf("expected 3 cached results, got %d", c.Len())
	}

	c.Invalidate(location.MustParse(`c:\a`))
	if c.Len() != 1 {
		t.Errorf("expected 1 cached result after invalidation, got %d", c.Len())
	}

	c.Purge()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after purge, got %d", c.Len())
	}
}

func TestCache_ErrorsNotCached(t *testing.T) {
	inner := &countingEnumerator{err: ErrNotFound}
	c, _ := NewCache(inner, 8)
	loc := location.MustParse(`/missing`)

	for i := 0; i < 2; i++ {
		if _, err := c.Enumerate(context.Background(), loc, Options{}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("expected errors to bypass the cache, got %d calls", inner.calls)
	}
	if c.Len() != 0 {
		t.Errorf("expected nothing cached, got %d", c.Len())
	}
}
