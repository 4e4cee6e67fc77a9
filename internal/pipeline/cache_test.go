package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/position"
)

func TestResultCacheMissThenHit(t *testing.T) {
	dir := t.TempDir()

	cache, err := OpenResultCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("OpenResultCache: %v", err)
	}

	key := HashInput([]byte("module bytes"))

	if _, found, err := cache.Get(key); err != nil {
		t.Fatalf("Get: %v", err)
	} else if found {
		t.Fatal("Get on an empty cache reported a hit")
	}

	want := []diagnostics.Diagnostic{
		{
			Kind:    diagnostics.KindVariableUsedBeforeInitialized,
			Level:   diagnostics.LevelError,
			Message: "variable 'x' used before being initialized",
			Span:    position.Span{Start: position.Position{Filename: "t.lumen", Line: 1, Column: 1}},
		},
	}

	if err := cache.Put(key, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get after Put: %v", err)
	}
	if !found {
		t.Fatal("Get after Put reported a miss")
	}
	if len(got) != len(want) || got[0].Kind != want[0].Kind || got[0].Message != want[0].Message {
		t.Errorf("Get returned %+v, want %+v", got, want)
	}
}

func TestResultCacheHashIsStableAndContentSensitive(t *testing.T) {
	a := HashInput([]byte("one"))
	b := HashInput([]byte("one"))
	c := HashInput([]byte("two"))

	if a != b {
		t.Error("HashInput should be deterministic for identical input")
	}
	if a == c {
		t.Error("HashInput should differ for different input")
	}
}
