// Package device resolves a comma-separated device specification into a
// concrete subset of the discovered GPUs.
package device

import (
	"fmt"
	"strconv"
	"strings"

	"gpucfg/internal/driver"
)

const uuidPrefix = "GPU-"

// Selection maps each discovery ordinal to the selected device, or nil
// when the device at that ordinal is not selected.
type Selection []*driver.Device

// Count returns the number of selected devices.
func (s Selection) Count() int {
	n := 0
	for _, dev := range s {
		if dev != nil {
			n++
		}
	}
	return n
}

// Select resolves spec against the available devices. Tokens are processed
// left to right; empty tokens are skipped. "all" selects every device and
// ends processing. A token with the GPU- prefix selects the first device
// whose UUID starts with it, case-insensitively. Any other token must be a
// base-10 index into the available list. An unresolvable token fails the
// whole selection and the partial result must be discarded.
func Select(spec string, available []driver.Device) (Selection, error) {
	selected := make(Selection, len(available))

	for _, token := range strings.Split(spec, ",") {
		if token == "" {
			continue
		}
		if strings.EqualFold(token, "all") {
			for i := range available {
				selected[i] = &available[i]
			}
			break
		}
		if err := markToken(token, selected, available); err != nil {
			return nil, err
		}
	}

	return selected, nil
}

func markToken(token string, selected Selection, available []driver.Device) error {
	if hasPrefixFold(token, uuidPrefix) {
		for i := range available {
			if hasPrefixFold(available[i].UUID, token) {
				selected[i] = &available[i]
				return nil
			}
		}
		return fmt.Errorf("unknown device id: %s", token)
	}

	n, err := strconv.Atoi(token)
	if err != nil || n < 0 || n >= len(available) {
		return fmt.Errorf("unknown device id: %s", token)
	}
	selected[n] = &available[n]
	return nil
}

// hasPrefixFold reports whether s starts with prefix, ignoring case.
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
