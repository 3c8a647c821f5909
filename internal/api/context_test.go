package api

import (
	"context"
	"sync"
	"testing"
)

func TestArtifactContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := ArtifactFromContext(ctx); ok {
		t.Error("Empty context must not yield an artifact")
	}

	ctx = WithArtifact(ctx, "artifact-value")
	artifact, ok := ArtifactFromContext(ctx)
	if !ok || artifact != "artifact-value" {
		t.Errorf("Expected artifact-value, got %q (ok=%t)", artifact, ok)
	}
}

func TestRotationRecorder(t *testing.T) {
	rec := &RotationRecorder{}

	if _, pending := rec.Pending(); pending {
		t.Error("Fresh recorder must have nothing pending")
	}

	rec.Record("replacement")
	artifact, pending := rec.Pending()
	if !pending || artifact != "replacement" {
		t.Errorf("Expected pending replacement, got %q (pending=%t)", artifact, pending)
	}
}

func TestRotationRecorderConcurrent(t *testing.T) {
	rec := &RotationRecorder{}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Record("replacement")
			rec.Pending()
		}()
	}
	wg.Wait()

	if artifact, pending := rec.Pending(); !pending || artifact != "replacement" {
		t.Errorf("Expected replacement after concurrent use, got %q", artifact)
	}
}
