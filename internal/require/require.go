// Package require evaluates version requirement expressions such as
// "cuda>=9.0" or "driver<390" against the installed driver stack.
package require

import (
	"fmt"
	"strconv"
	"strings"

	"gpucfg/internal/driver"
)

// MaxRequirements bounds the number of requirement expressions accepted
// for a single configure invocation.
const MaxRequirements = 16

// Comparator is one of the six version comparison operators.
type Comparator string

const (
	Equal          Comparator = "="
	NotEqual       Comparator = "!="
	Less           Comparator = "<"
	LessOrEqual    Comparator = "<="
	Greater        Comparator = ">"
	GreaterOrEqual Comparator = ">="
)

// Predicate tests one named property of the driver stack against a
// comparator and a dotted version literal. Predicates are pure.
type Predicate func(info driver.Info, cmp Comparator, version string) (bool, error)

// Rules maps a predicate name to its implementation.
type Rules map[string]Predicate

// DefaultRules returns the predicate table for the supported subjects.
func DefaultRules() Rules {
	return Rules{
		"cuda":   checkCUDAVersion,
		"driver": checkDriverVersion,
	}
}

func checkCUDAVersion(info driver.Info, cmp Comparator, version string) (bool, error) {
	return compareWith(info.CUDAVersion, cmp, version)
}

func checkDriverVersion(info driver.Info, cmp Comparator, version string) (bool, error) {
	return compareWith(info.KmodVersion, cmp, version)
}

// CompareVersions compares two dotted-numeric version strings component
// by component, left to right. Missing trailing components count as zero,
// so "384" equals "384.0". Returns -1, 0 or 1.
func CompareVersions(a, b string) (int, error) {
	av, err := parseVersion(a)
	if err != nil {
		return 0, err
	}
	bv, err := parseVersion(b)
	if err != nil {
		return 0, err
	}

	for len(av) < len(bv) {
		av = append(av, 0)
	}
	for len(bv) < len(av) {
		bv = append(bv, 0)
	}

	for i := range av {
		if av[i] < bv[i] {
			return -1, nil
		}
		if av[i] > bv[i] {
			return 1, nil
		}
	}
	return 0, nil
}

func parseVersion(s string) ([]uint64, error) {
	if s == "" {
		return nil, fmt.Errorf("empty version string")
	}
	parts := strings.Split(s, ".")
	components := make([]uint64, len(parts))
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed version: %s", s)
		}
		components[i] = n
	}
	return components, nil
}

func compareWith(installed string, cmp Comparator, wanted string) (bool, error) {
	rel, err := CompareVersions(installed, wanted)
	if err != nil {
		return false, err
	}

	switch cmp {
	case Equal:
		return rel == 0, nil
	case NotEqual:
		return rel != 0, nil
	case Less:
		return rel < 0, nil
	case LessOrEqual:
		return rel <= 0, nil
	case Greater:
		return rel > 0, nil
	case GreaterOrEqual:
		return rel >= 0, nil
	default:
		return false, fmt.Errorf("unknown comparator: %s", cmp)
	}
}

// Evaluate parses a single requirement expression of the form
// "<subject><comparator><version>" and dispatches it to the matching
// predicate. It fails on malformed syntax, an unknown predicate name,
// or a requirement that the installed stack does not satisfy.
func Evaluate(expr string, info driver.Info, rules Rules) error {
	subject, cmp, version, err := parseExpression(expr)
	if err != nil {
		return err
	}

	predicate, ok := rules[subject]
	if !ok {
		return fmt.Errorf("unknown predicate: %s", subject)
	}

	ok, err = predicate(info, cmp, version)
	if err != nil {
		return fmt.Errorf("invalid expression %q: %w", expr, err)
	}
	if !ok {
		return fmt.Errorf("unsatisfied condition: %s", expr)
	}
	return nil
}

// EvaluateAll evaluates requirements in the supplied order and stops at
// the first one that fails.
func EvaluateAll(exprs []string, info driver.Info, rules Rules) error {
	if len(exprs) > MaxRequirements {
		return fmt.Errorf("too many requirements (max %d)", MaxRequirements)
	}
	for _, expr := range exprs {
		if err := Evaluate(expr, info, rules); err != nil {
			return err
		}
	}
	return nil
}

func parseExpression(expr string) (subject string, cmp Comparator, version string, err error) {
	s := strings.TrimSpace(expr)
	i := strings.IndexAny(s, "=!<>")
	if i <= 0 {
		return "", "", "", fmt.Errorf("malformed expression: %s", expr)
	}

	subject = strings.TrimSpace(s[:i])
	rest := s[i:]

	op := rest[:1]
	if len(rest) > 1 && rest[1] == '=' {
		op = rest[:2]
	}
	version = strings.TrimSpace(rest[len(op):])

	switch op {
	case "=", "==":
		cmp = Equal
	case "!=":
		cmp = NotEqual
	case "<":
		cmp = Less
	case "<=":
		cmp = LessOrEqual
	case ">":
		cmp = Greater
	case ">=":
		cmp = GreaterOrEqual
	default:
		return "", "", "", fmt.Errorf("malformed expression: %s", expr)
	}

	if version == "" {
		return "", "", "", fmt.Errorf("malformed expression: %s", expr)
	}
	return subject, cmp, version, nil
}
