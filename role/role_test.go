package role

import "testing"

func TestParse(t *testing.T) {
	t.Run("accepts all three prefix forms", func(t *testing.T) {
		for _, raw := range []string{
			"SUPER_ADMIN",
			"RoleUtilisateur_SUPER_ADMIN",
			"ROLE_SUPER_ADMIN",
		} {
			r, ok := Parse(raw)
			if !ok {
				t.Fatalf("Parse(%q) not recognized", raw)
			}
			if r != SuperAdmin {
				t.Errorf("Parse(%q) = %s, want %s", raw, r, SuperAdmin)
			}
		}
	})

	t.Run("recognizes every canonical role", func(t *testing.T) {
		for _, want := range All {
			r, ok := Parse(string(want))
			if !ok || r != want {
				t.Errorf("Parse(%q) = (%s, %v)", want, r, ok)
			}
		}
	})

	t.Run("prefixed agent role matches bare form", func(t *testing.T) {
		a, ok1 := Parse("RoleUtilisateur_AGENT_RECOUVREMENT_AMIABLE")
		b, ok2 := Parse("AGENT_RECOUVREMENT_AMIABLE")
		if !ok1 || !ok2 || a != b {
			t.Errorf("prefixed and bare forms differ: %s vs %s", a, b)
		}
		if a != AgentAmiable {
			t.Errorf("got %s, want %s", a, AgentAmiable)
		}
	})

	t.Run("matching is case sensitive", func(t *testing.T) {
		if _, ok := Parse("super_admin"); ok {
			t.Error("lower-case input must not be recognized")
		}
	})

	t.Run("unknown strings are rejected", func(t *testing.T) {
		for _, raw := range []string{"", "ADMIN", "ROLE_", "RoleUtilisateur_"} {
			if _, ok := Parse(raw); ok {
				t.Errorf("Parse(%q) unexpectedly recognized", raw)
			}
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Run("known role passes through", func(t *testing.T) {
		r, fellBack := Normalize("ROLE_CHEF_DEPARTEMENT_FINANCE")
		if fellBack {
			t.Error("known role must not fall back")
		}
		if r != ChefFinance {
			t.Errorf("got %s, want %s", r, ChefFinance)
		}
	})

	t.Run("unknown role falls back to least privilege", func(t *testing.T) {
		r, fellBack := Normalize("CHEF_SUPREME")
		if !fellBack {
			t.Error("unknown role must report fallback")
		}
		if r != Fallback {
			t.Errorf("got %s, want %s", r, Fallback)
		}
	})
}

func TestDestinationFor(t *testing.T) {
	t.Run("total over the enumeration", func(t *testing.T) {
		for _, r := range All {
			if dest := DestinationFor(r); dest == "" {
				t.Errorf("DestinationFor(%s) is empty", r)
			}
		}
	})

	t.Run("distinct landing route per role", func(t *testing.T) {
		seen := make(map[string]Role)
		for _, r := range All {
			dest := DestinationFor(r)
			if prev, dup := seen[dest]; dup {
				t.Errorf("%s and %s share destination %s", prev, r, dest)
			}
			seen[dest] = r
		}
	})

	t.Run("out-of-map role gets the generic default", func(t *testing.T) {
		if dest := DestinationFor(Role("BOGUS")); dest != DefaultRoute {
			t.Errorf("got %s, want %s", dest, DefaultRoute)
		}
	})
}

func TestLabelFor(t *testing.T) {
	for _, r := range All {
		if LabelFor(r) == "" {
			t.Errorf("LabelFor(%s) is empty", r)
		}
	}
	if LabelFor(Role("BOGUS")) != "BOGUS" {
		t.Error("unlabeled role should echo its raw value")
	}
}

func TestSet(t *testing.T) {
	s := NewSet(ChefDossier, SuperAdmin)

	if !s.Contains(ChefDossier) {
		t.Error("set should contain ChefDossier")
	}
	if s.Contains(AgentFinance) {
		t.Error("set should not contain AgentFinance")
	}
	if s.Empty() {
		t.Error("non-empty set reported empty")
	}
	if !NewSet().Empty() {
		t.Error("empty set not reported empty")
	}
}
