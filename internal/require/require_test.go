package require

import (
	"strings"
	"testing"

	"gpucfg/internal/driver"
)

func testInfo() driver.Info {
	return driver.Info{KmodVersion: "384.0", CUDAVersion: "9.0"}
}

func TestCompareVersions_Ordering(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"9.0", "9.1", -1},
		{"9.1", "10.0", -1},
		{"10.0", "9.1", 1},
		{"384", "384.0", 0},
		{"10", "10.1", -1},
		{"10.1", "10", 1},
		{"384.111", "384.111", 0},
		{"535.104.05", "535.104", 1},
	}

	for _, tt := range tests {
		got, err := CompareVersions(tt.a, tt.b)
		if err != nil {
			t.Errorf("CompareVersions(%q, %q) unexpected error: %v", tt.a, tt.b, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompareVersions_Malformed(t *testing.T) {
	for _, v := range []string{"", "1.x", "abc", "1..2"} {
		if _, err := CompareVersions(v, "1.0"); err == nil {
			t.Errorf("CompareVersions(%q, _) should fail", v)
		}
	}
}

func TestEvaluate_Satisfied(t *testing.T) {
	rules := DefaultRules()
	info := testInfo()

	exprs := []string{
		"cuda>=9.0",
		"cuda=9.0",
		"cuda==9.0",
		"cuda<9.1",
		"cuda<=9.0",
		"cuda!=8.0",
		"driver>300",
		"driver=384",
		"driver >= 384.0",
	}

	for _, expr := range exprs {
		if err := Evaluate(expr, info, rules); err != nil {
			t.Errorf("Evaluate(%q) = %v, want nil", expr, err)
		}
	}
}

func TestEvaluate_Unsatisfied(t *testing.T) {
	err := Evaluate("driver<300", testInfo(), DefaultRules())
	if err == nil {
		t.Fatal("Evaluate(driver<300) should fail for driver 384")
	}
	if !strings.Contains(err.Error(), "driver<300") {
		t.Errorf("Error should name the failing expression, got: %v", err)
	}
}

func TestEvaluate_MalformedSyntax(t *testing.T) {
	rules := DefaultRules()
	info := testInfo()

	for _, expr := range []string{"", "cuda", "cuda9.0", ">=9.0", "cuda>=", "cuda!9.0", "cuda>=9.x"} {
		if err := Evaluate(expr, info, rules); err == nil {
			t.Errorf("Evaluate(%q) should fail", expr)
		}
	}
}

func TestEvaluate_UnknownPredicate(t *testing.T) {
	err := Evaluate("vulkan>=1.0", testInfo(), DefaultRules())
	if err == nil {
		t.Fatal("Evaluate() should fail for unknown predicate")
	}
	if !strings.Contains(err.Error(), "vulkan") {
		t.Errorf("Error should name the unknown predicate, got: %v", err)
	}
}

func TestEvaluateAll_StopsAtFirstFailure(t *testing.T) {
	calls := []string{}
	rules := Rules{
		"cuda": func(info driver.Info, cmp Comparator, version string) (bool, error) {
			calls = append(calls, "cuda")
			return true, nil
		},
		"driver": func(info driver.Info, cmp Comparator, version string) (bool, error) {
			calls = append(calls, "driver")
			return false, nil
		},
	}

	exprs := []string{"cuda>=9.0", "driver<300", "cuda>=10.0"}
	err := EvaluateAll(exprs, testInfo(), rules)
	if err == nil {
		t.Fatal("EvaluateAll() should fail at the second requirement")
	}
	if !strings.Contains(err.Error(), "driver<300") {
		t.Errorf("Error should name the second requirement, got: %v", err)
	}

	if len(calls) != 2 {
		t.Errorf("Expected evaluation to stop after 2 predicates, got calls: %v", calls)
	}
}

func TestEvaluateAll_DefaultRulesScenario(t *testing.T) {
	// cuda>=9.0 holds, driver<300 does not for driver 384
	err := EvaluateAll([]string{"cuda>=9.0", "driver<300"}, testInfo(), DefaultRules())
	if err == nil {
		t.Fatal("EvaluateAll() should fail")
	}
	if !strings.Contains(err.Error(), "driver<300") {
		t.Errorf("Failure should come from the second requirement, got: %v", err)
	}
}

func TestEvaluateAll_Bound(t *testing.T) {
	exprs := make([]string, MaxRequirements+1)
	for i := range exprs {
		exprs[i] = "cuda>=1.0"
	}

	if err := EvaluateAll(exprs, testInfo(), DefaultRules()); err == nil {
		t.Error("EvaluateAll() should reject more than MaxRequirements expressions")
	}

	if err := EvaluateAll(exprs[:MaxRequirements], testInfo(), DefaultRules()); err != nil {
		t.Errorf("EvaluateAll() with exactly MaxRequirements should pass, got: %v", err)
	}
}
