// Package combination models one point in the cartesian product of
// climate-control modes and temperature steps, and enumerates the canonical
// learning order.
package combination

import (
	"fmt"
	"strconv"
	"strings"
)

// OffKey is the canonical key of the synthetic power-off combination.
const OffKey = "off"

const keySep = "|"

// Combination is the unit of capture: one tuple of mode selections plus a
// temperature. An empty mode string means the axis is absent for the current
// climate description. The power-off command has no axes at all.
type Combination struct {
	Off           bool
	OperationMode string
	FanMode       string
	SwingMode     string
	Temperature   int
}

// PowerOff returns the synthetic axis-less off combination.
func PowerOff() Combination {
	return Combination{Off: true}
}

// Key returns the deterministic string identity of the combination, joining
// the present axis values in canonical order. It is the key used by the
// partial snapshot and must stay stable across releases.
func (c Combination) Key() string {
	if c.Off {
		return OffKey
	}
	parts := make([]string, 0, 4)
	if c.OperationMode != "" {
		parts = append(parts, c.OperationMode)
	}
	if c.FanMode != "" {
		parts = append(parts, c.FanMode)
	}
	if c.SwingMode != "" {
		parts = append(parts, c.SwingMode)
	}
	parts = append(parts, strconv.Itoa(c.Temperature))
	return strings.Join(parts, keySep)
}

// String renders the combination for operator prompts.
func (c Combination) String() string {
	if c.Off {
		return "off"
	}
	parts := make([]string, 0, 4)
	if c.OperationMode != "" {
		parts = append(parts, fmt.Sprintf("operationMode=%s", c.OperationMode))
	}
	if c.FanMode != "" {
		parts = append(parts, fmt.Sprintf("fanMode=%s", c.FanMode))
	}
	if c.SwingMode != "" {
		parts = append(parts, fmt.Sprintf("swingMode=%s", c.SwingMode))
	}
	parts = append(parts, fmt.Sprintf("temperature=%d", c.Temperature))
	return strings.Join(parts, " ")
}

// Space is the combination space spanned by a climate description: the three
// optional mode axes and the discrete temperature points. Axis order is fixed:
// operation mode, fan mode, swing mode, temperature (innermost).
type Space struct {
	OperationModes []string
	FanModes       []string
	SwingModes     []string
	Temperatures   []int
}

// Size returns the number of combinations Enumerate yields, including off.
func (s Space) Size() int {
	if s.empty() {
		return 1
	}
	n := 1
	for _, axis := range [][]string{s.OperationModes, s.FanModes, s.SwingModes} {
		if len(axis) > 0 {
			n *= len(axis)
		}
	}
	return n*len(s.Temperatures) + 1
}

func (s Space) empty() bool {
	// A remote with no mode axes (or no temperature points) has nothing to
	// learn beyond the off command.
	allModesEmpty := len(s.OperationModes) == 0 && len(s.FanModes) == 0 && len(s.SwingModes) == 0
	return allModesEmpty || len(s.Temperatures) == 0
}

// Enumerate produces the full, deterministic learning sequence: off first,
// then the cartesian product of the present axes in canonical order, each
// axis iterated in the order given, temperature ascending. Absent axes
// collapse that dimension. Repeated calls yield the same sequence.
func (s Space) Enumerate() []Combination {
	out := make([]Combination, 0, s.Size())
	out = append(out, PowerOff())
	if s.empty() {
		return out
	}

	ops := orCollapsed(s.OperationModes)
	fans := orCollapsed(s.FanModes)
	swings := orCollapsed(s.SwingModes)

	for _, op := range ops {
		for _, fan := range fans {
			for _, swing := range swings {
				for _, t := range s.Temperatures {
					out = append(out, Combination{
						OperationMode: op,
						FanMode:       fan,
						SwingMode:     swing,
						Temperature:   t,
					})
				}
			}
		}
	}
	return out
}

// orCollapsed turns an absent axis into a single empty slot so the product
// loops stay uniform.
func orCollapsed(axis []string) []string {
	if len(axis) == 0 {
		return []string{""}
	}
	return axis
}

// Pending filters the enumeration down to combinations whose key is not yet
// known, preserving order. have reports whether a key is already learned.
func Pending(all []Combination, have func(key string) bool) []Combination {
	out := make([]Combination, 0, len(all))
	for _, c := range all {
		if !have(c.Key()) {
			out = append(out, c)
		}
	}
	return out
}
