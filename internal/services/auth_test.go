package services

import "testing"

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		pw      string
		wantErr bool
	}{
		{"valid", "Walker123", false},
		{"too short", "Ab1", true},
		{"no digit", "NoDigitsHere", true},
		{"digits only ok", "12345678", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.pw)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %q", tc.pw)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.pw, err)
			}
		})
	}
}
