package media

import (
	"errors"
	"testing"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"", BackendAuto, false},
		{"auto", BackendAuto, false},
		{"Native", BackendNative, false},
		{"libav", BackendLibav, false},
		{"vlc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackend(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedBackend) {
					t.Errorf("expected ErrUnsupportedBackend, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBackend failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
