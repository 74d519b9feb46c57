package auth

import (
	"testing"
	"time"
)

func TestClaims_Expired(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	tests := []struct {
		name      string
		expiresAt int64
		want      bool
	}{
		{name: "future", expiresAt: now.UnixMilli() + 1, want: false},
		{name: "exactly now", expiresAt: now.UnixMilli(), want: false},
		{name: "past", expiresAt: now.UnixMilli() - 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Claims{SessionID: "s-1", ExpiresAt: tt.expiresAt}
			if got := c.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClaims_Bound(t *testing.T) {
	c := Claims{SessionID: "s-1", NotebookID: "nb-1"}
	if !c.Bound("nb-1") {
		t.Error("expected bound to nb-1")
	}
	if c.Bound("nb-2") {
		t.Error("expected not bound to nb-2")
	}

	unbound := Claims{SessionID: "s-1"}
	if unbound.Bound("") {
		t.Error("unbound token must not match empty id")
	}
}

func TestParsedToken_Active(t *testing.T) {
	if !(ParsedToken{Status: TokenActive}).Active() {
		t.Error("expected active")
	}
	if (ParsedToken{Status: TokenExpired}).Active() {
		t.Error("expected expired")
	}
	if TokenExpired.String() != "expired" {
		t.Errorf("unexpected status string %q", TokenExpired.String())
	}
}
