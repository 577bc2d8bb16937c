package vectorindex

import "testing"

func TestChunkPointIDIsDeterministic(t *testing.T) {
	a := chunkPointID("abc123", 2)
	b := chunkPointID("abc123", 2)
	if a != b {
		t.Errorf("expected deterministic point ID, got %q and %q", a, b)
	}
}

func TestChunkPointIDDiffersByIndex(t *testing.T) {
	a := chunkPointID("abc123", 0)
	b := chunkPointID("abc123", 1)
	if a == b {
		t.Error("expected different point IDs for different chunk indices")
	}
}

func TestChunkPointIDDiffersByHash(t *testing.T) {
	a := chunkPointID("abc123", 0)
	b := chunkPointID("def456", 0)
	if a == b {
		t.Error("expected different point IDs for different content hashes")
	}
}
