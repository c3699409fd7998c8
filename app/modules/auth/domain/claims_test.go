package authdomain

import (
	"testing"
	"time"
)

func TestClaims_IsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "not expired (future)",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "expired (past)",
			expiresAt: time.Now().Add(-1 * time.Hour),
			want:      true,
		},
		{
			name:      "expired (just now)",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Claims{
				ExpiresAt: tt.expiresAt,
			}
			if got := c.IsExpired(); got != tt.want {
				t.Errorf("Claims.IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClaims_IsAdmin(t *testing.T) {
	var nilClaims *Claims
	if nilClaims.IsAdmin() {
		t.Error("nil claims must not be admin")
	}
	if (&Claims{Role: RoleViewer}).IsAdmin() {
		t.Error("viewer must not be admin")
	}
	if !(&Claims{Role: RoleAdmin}).IsAdmin() {
		t.Error("admin role must be admin")
	}
}

func TestRole_IsValid(t *testing.T) {
	for _, r := range []Role{RoleViewer, RoleAdmin} {
		if !r.IsValid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if Role("editor").IsValid() {
		t.Error("editor is not a role here")
	}
}

