package internal

import (
	"database/sql"
	"testing"
)

func TestIsNil(t *testing.T) {
	var db *sql.DB
	var m map[string]string
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"untyped nil", nil, true},
		{"typed nil pointer", db, true},
		{"nil map", m, true},
		{"value", 3, false},
		{"non-nil pointer", &sql.DB{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNil(tt.v); got != tt.want {
				t.Errorf("IsNil(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}
