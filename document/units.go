package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit represents the original unit of a length value as written in the DSL.
type Unit int

const (
	UnitNone    Unit = iota // unit-less numbers
	UnitMM                  // millimeters
	UnitCM                  // centimeters
	UnitIN                  // inches
	UnitPT                  // points
	UnitPercent             // percent of a reference length
)

// Conversion constants between pt and mm.
const (
	PtToMm = 25.4 / 72
	MmToPt = 72 / 25.4
)

func (u Unit) String() string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	case UnitPercent:
		return "%"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// MM converts to millimeters. Unit-less numbers are millimeters already;
// percentages resolve against reference.
func (l Length) MM(reference float64) float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	case UnitPercent:
		return reference * l.Value / 100
	default:
		return l.Value
	}
}

// PT converts to points; unit-less numbers are points (font sizes).
func (l Length) PT() float64 {
	switch l.Unit {
	case UnitNone, UnitPT:
		return l.Value
	case UnitPercent:
		return 0
	default:
		return l.MM(0) * MmToPt
	}
}

// ParseLength parses a DSL length such as "12pt", "20mm" or "50%".
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"%", UnitPercent}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("长度 %q 无法解析", value)
	}
	return Length{Value: f, Unit: unit}, nil
}
