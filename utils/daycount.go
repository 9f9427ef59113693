package utils

import (
	"fmt"
	"strings"
	"time"
)

// Day count conventions accepted by YearFraction.
const (
	Act360  = "ACT/360"
	Act365F = "ACT/365F"
	Thirty  = "30E/360"
)

// NormalizeDayCount maps spellings such as "Act/365F" or "30/360" to the canonical names.
func NormalizeDayCount(s string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACT/360":
		return Act360, nil
	case "ACT/365F", "ACT/365 FIXED", "ACT/365":
		return Act365F, nil
	case "30E/360", "30/360":
		return Thirty, nil
	default:
		return "", fmt.Errorf("unsupported day count %q", s)
	}
}

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/360, ACT/365F, 30E/360, 30/360
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case Act360:
		return Days(start, end) / 360.0
	case Act365F:
		return Days(start, end) / 365.0
	case Thirty, "30/360":
		// 30E/360 ISDA (Eurobond basis)
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		return Days(start, end) / 365.0
	}
}
