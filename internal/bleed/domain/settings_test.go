package domain

import (
	"errors"
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings("world-1")
	if err := settings.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
	if settings.EchoThreshold != 8 {
		t.Fatalf("expected default threshold 8, got %d", settings.EchoThreshold)
	}
	if settings.AutoApproveIncoming {
		t.Fatal("expected manual approval by default")
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr error
	}{
		{"threshold too low", func(s *Settings) { s.EchoThreshold = 0 }, ErrThresholdOutOfRange},
		{"threshold too high", func(s *Settings) { s.EchoThreshold = 11 }, ErrThresholdOutOfRange},
		{"depth too low", func(s *Settings) { s.MaxCascadeDepth = 0 }, ErrDepthOutOfRange},
		{"depth too high", func(s *Settings) { s.MaxCascadeDepth = 4 }, ErrDepthOutOfRange},
		{"decay negative", func(s *Settings) { s.DecayFactor = -0.1 }, ErrDecayOutOfRange},
		{"decay above one", func(s *Settings) { s.DecayFactor = 1.1 }, ErrDecayOutOfRange},
		{"missing world", func(s *Settings) { s.WorldID = "" }, ErrEmptyWorldID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings("world-1")
			tt.mutate(&settings)
			if err := settings.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
