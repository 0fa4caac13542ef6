package capability

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Capability
		wantErr bool
	}{
		{"compute", Compute, false},
		{"Utility", Utility, false},
		{" video ", Video, false},
		{"graphics", Graphics, false},
		{"compat32", Compat32, false},
		{"display", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSet_String(t *testing.T) {
	s := NewSet(Utility, Compute)
	s.Add(Video)

	if got := s.String(); got != "compute utility video" {
		t.Errorf("String() = %q, want %q", got, "compute utility video")
	}
}

func TestSet_Empty(t *testing.T) {
	if !NewSet().Empty() {
		t.Error("Expected empty set")
	}
	if NewSet(Compute).Empty() {
		t.Error("Expected non-empty set")
	}
}

func TestSet_Has(t *testing.T) {
	s := NewSet(Compute)
	if !s.Has(Compute) {
		t.Error("Expected set to contain compute")
	}
	if s.Has(Graphics) {
		t.Error("Expected set to not contain graphics")
	}
}
