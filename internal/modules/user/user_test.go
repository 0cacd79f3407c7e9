package user

import "testing"

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		name string
		role Role
		min  Role
		want bool
	}{
		{name: "admin over manager", role: RoleAdmin, min: RoleManager, want: true},
		{name: "manager over cashier", role: RoleManager, min: RoleCashier, want: true},
		{name: "cashier not manager", role: RoleCashier, min: RoleManager, want: false},
		{name: "same role", role: RoleCashier, min: RoleCashier, want: true},
		{name: "inventory staff as cashier peer", role: RoleInventoryStaff, min: RoleCashier, want: true},
		{name: "unknown role never passes", role: Role("superuser"), min: RoleCashier, want: false},
		{name: "empty role never passes", role: Role(""), min: RoleCashier, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.AtLeast(tt.min); got != tt.want {
				t.Errorf("%s.AtLeast(%s) = %v, want %v", tt.role, tt.min, got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"admin", "manager", "cashier", "inventory_staff"} {
		if _, err := ParseRole(valid); err != nil {
			t.Errorf("ParseRole(%q): %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "root", "Admin"} {
		if _, err := ParseRole(invalid); err == nil {
			t.Errorf("ParseRole(%q) accepted", invalid)
		}
	}
}
