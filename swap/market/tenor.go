package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/calibcheck/utils"
)

// Tenor is a period expressed in months or days ("1W" is 7 days, "10Y" is 120 months).
type Tenor struct {
	Months int
	Days   int
}

// TenorOfMonths returns an n-month tenor.
func TenorOfMonths(n int) Tenor { return Tenor{Months: n} }

// ParseTenor converts tenor strings like "1W", "3M", "10Y" to a Tenor.
func ParseTenor(tenor string) (Tenor, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	s = strings.TrimPrefix(s, "P")
	if len(s) < 2 {
		return Tenor{}, fmt.Errorf("invalid tenor %q", tenor)
	}
	v, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || v < 0 {
		return Tenor{}, fmt.Errorf("invalid tenor %q", tenor)
	}
	switch s[len(s)-1] {
	case 'D':
		return Tenor{Days: v}, nil
	case 'W':
		return Tenor{Days: 7 * v}, nil
	case 'M':
		return Tenor{Months: v}, nil
	case 'Y':
		return Tenor{Months: 12 * v}, nil
	default:
		return Tenor{}, fmt.Errorf("invalid tenor %q", tenor)
	}
}

// MustTenor is ParseTenor for constants.
func MustTenor(s string) Tenor {
	t, err := ParseTenor(s)
	if err != nil {
		panic(err)
	}
	return t
}

// AddTo returns the unadjusted date t plus the tenor.
func (p Tenor) AddTo(t time.Time) time.Time {
	if p.Months != 0 {
		t = utils.AddMonth(t, p.Months)
	}
	if p.Days != 0 {
		t = t.AddDate(0, 0, p.Days)
	}
	return t
}

// Years approximates the tenor in years.
func (p Tenor) Years() float64 {
	return float64(p.Months)/12.0 + float64(p.Days)/365.0
}

// IsZero reports whether the tenor has no length.
func (p Tenor) IsZero() bool { return p.Months == 0 && p.Days == 0 }

func (p Tenor) String() string {
	switch {
	case p.Days != 0 && p.Days%7 == 0 && p.Months == 0:
		return strconv.Itoa(p.Days/7) + "W"
	case p.Days != 0:
		return strconv.Itoa(p.Days) + "D"
	case p.Months != 0 && p.Months%12 == 0:
		return strconv.Itoa(p.Months/12) + "Y"
	default:
		return strconv.Itoa(p.Months) + "M"
	}
}

// ParseFRAPeriod parses "3x6" (or "3Mx6M") into the months to start and to end.
func ParseFRAPeriod(s string) (start, end Tenor, err error) {
	a, b, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(s)), "X")
	if !ok {
		return Tenor{}, Tenor{}, fmt.Errorf("invalid FRA period %q", s)
	}
	parse := func(part string) (Tenor, error) {
		if !strings.HasSuffix(part, "M") {
			part += "M"
		}
		return ParseTenor(part)
	}
	if start, err = parse(a); err != nil {
		return Tenor{}, Tenor{}, fmt.Errorf("invalid FRA period %q: %w", s, err)
	}
	if end, err = parse(b); err != nil {
		return Tenor{}, Tenor{}, fmt.Errorf("invalid FRA period %q: %w", s, err)
	}
	if end.Months <= start.Months {
		return Tenor{}, Tenor{}, fmt.Errorf("invalid FRA period %q: end before start", s)
	}
	return start, end, nil
}
