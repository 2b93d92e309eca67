package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/poiesic/docvault/core"
)

func TestFactsSerialization(t *testing.T) {
	tests := []struct {
		name  string
		facts []string
	}{
		{name: "empty", facts: []string{}},
		{name: "single", facts: []string{"Acme Corp was founded in 1999."}},
		{name: "unicode and empty item", facts: []string{"Größe: 5 m²", "", "第二"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalFacts(MarshalFacts(tt.facts))
			if err != nil {
				t.Fatalf("UnmarshalFacts() error = %v", err)
			}
			if len(got) != len(tt.facts) {
				t.Fatalf("UnmarshalFacts() len = %d, want %d", len(got), len(tt.facts))
			}
			for i := range got {
				if got[i] != tt.facts[i] {
					t.Errorf("fact %d = %q, want %q", i, got[i], tt.facts[i])
				}
			}
		})
	}
}

func TestUnmarshalFactsCorrupt(t *testing.T) {
	data := MarshalFacts([]string{"one", "two"})

	if _, err := UnmarshalFacts(data[:len(data)-2]); err == nil {
		t.Error("UnmarshalFacts() on truncated data: want error")
	}
	if _, err := UnmarshalFacts(append(data, 0x01)); !errors.Is(err, ErrSerializationFailed) {
		t.Errorf("UnmarshalFacts() with trailing bytes error = %v, want %v", err, ErrSerializationFailed)
	}
	if _, err := UnmarshalFacts([]byte{0x7f}); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("UnmarshalFacts() with inflated count error = %v, want %v", err, ErrTruncatedData)
	}
	if _, err := UnmarshalFacts(nil); err == nil {
		t.Error("UnmarshalFacts(nil): want error")
	}
}

func TestCheckpointSerialization(t *testing.T) {
	updated := time.Date(2025, 3, 14, 9, 26, 53, 589000, time.UTC)
	data := MarshalCheckpoint(&core.Checkpoint{Job: "reembed", LastID: 4242, UpdatedAt: updated})

	got, err := UnmarshalCheckpoint("reembed", data)
	if err != nil {
		t.Fatalf("UnmarshalCheckpoint() error = %v", err)
	}
	if got.Job != "reembed" || got.LastID != 4242 || !got.UpdatedAt.Equal(updated) {
		t.Errorf("UnmarshalCheckpoint() = %+v", got)
	}

	if _, err := UnmarshalCheckpoint("reembed", append(data, 0x00)); !errors.Is(err, ErrSerializationFailed) {
		t.Errorf("UnmarshalCheckpoint() with trailing bytes error = %v, want %v", err, ErrSerializationFailed)
	}
	if _, err := UnmarshalCheckpoint("reembed", data[:1]); err == nil {
		t.Error("UnmarshalCheckpoint() on truncated data: want error")
	}
}
