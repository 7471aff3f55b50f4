package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestHashTokenAndVerify(t *testing.T) {
	token := "s3cret-assignor-token"

	hash, err := HashToken(token)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if hash == "" || hash == token {
		t.Fatal("expected a distinct non-empty hash")
	}
	if !VerifyToken(hash, token) {
		t.Fatal("expected token to verify")
	}
	if VerifyToken(hash, "wrong") {
		t.Fatal("expected token mismatch to fail")
	}
}

func TestVerifyTokenWithInvalidHash(t *testing.T) {
	if VerifyToken("not-a-valid-hash", "token") {
		t.Fatal("expected invalid hash to fail verification")
	}
}

func TestCheckRequest(t *testing.T) {
	hash, err := HashToken("good")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{name: "valid", header: "Bearer good"},
		{name: "lowercase scheme", header: "bearer good"},
		{name: "missing", header: "", wantErr: ErrMissingToken},
		{name: "basic auth", header: "Basic Z29vZA==", wantErr: ErrMissingToken},
		{name: "empty token", header: "Bearer   ", wantErr: ErrMissingToken},
		{name: "wrong token", header: "Bearer bad", wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/conversions", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			err := CheckRequest(r, hash)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
