package beneficiary

import (
	"fmt"
	"strings"
)

// SexFilter selects beneficiaries by sex; SexAny disables the clause
type SexFilter string

const (
	SexAny   SexFilter = "Todos"
	SexOnlyF SexFilter = "F"
	SexOnlyM SexFilter = "M"
)

// ParseSexFilter accepts the selector values case-insensitively. Empty,
// "todos" and "any" all mean no restriction.
func ParseSexFilter(raw string) (SexFilter, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "TODOS", "ANY":
		return SexAny, nil
	case "F":
		return SexOnlyF, nil
	case "M":
		return SexOnlyM, nil
	default:
		return "", fmt.Errorf("unknown sex filter %q", raw)
	}
}

// Criteria is the set of sidebar predicates. It is rebuilt from the
// current control values on every evaluation.
type Criteria struct {
	Sex            SexFilter `json:"sexo"`
	MinAge         int       `json:"edad_min"`
	MaxAge         int       `json:"edad_max"`
	MinMonths      int       `json:"meses_min"`
	PensionersOnly bool      `json:"solo_pensionados"`
}

// Matches reports whether r satisfies every active clause
func (c Criteria) Matches(r Record) bool {
	if r.Age < c.MinAge || r.Age > c.MaxAge {
		return false
	}
	if r.MonthsContributed < c.MinMonths {
		return false
	}
	if c.Sex != SexAny && c.Sex != "" && Sex(c.Sex) != r.Sex {
		return false
	}
	if c.PensionersOnly && !r.IsPensioner {
		return false
	}
	return true
}

func (c Criteria) String() string {
	pensioners := "no"
	if c.PensionersOnly {
		pensioners = "sí"
	}
	sex := c.Sex
	if sex == "" {
		sex = SexAny
	}
	return fmt.Sprintf("sexo=%s edad=[%d,%d] meses>=%d solo_pensionados=%s",
		sex, c.MinAge, c.MaxAge, c.MinMonths, pensioners)
}
