package app

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"afpdash/domain/beneficiary"
	"afpdash/internal/config"
	"afpdash/internal/errors"
)

// Query parameter names of the sidebar controls
const (
	ParamSex            = "sexo"
	ParamMinAge         = "edad_min"
	ParamMaxAge         = "edad_max"
	ParamMinMonths      = "meses_min"
	ParamPensionersOnly = "solo_pensionados"
)

// DefaultCriteria builds the criteria the sidebar shows on first load
func DefaultCriteria(controls *config.Controls) beneficiary.Criteria {
	sex, err := beneficiary.ParseSexFilter(controls.Sex.Default)
	if err != nil {
		sex = beneficiary.SexAny
	}
	return beneficiary.Criteria{
		Sex:            sex,
		MinAge:         controls.MinAge.Default,
		MaxAge:         controls.MaxAge.Default,
		MinMonths:      controls.MinMonths.Default,
		PensionersOnly: controls.PensionersOnly.Default,
	}
}

// ParseCriteria reads control values from a query. Absent parameters take
// their default and, for repeated parameters, the last value wins so an
// HTML checkbox can sit after a hidden "false" input. Values outside the
// slider bounds are rejected; min > max is allowed and selects nothing.
func ParseCriteria(values url.Values, controls *config.Controls) (beneficiary.Criteria, error) {
	c := DefaultCriteria(controls)

	if raw, ok := lastValue(values, ParamSex); ok {
		sex, err := beneficiary.ParseSexFilter(raw)
		if err != nil || !containsFold(controls.Sex.Options, string(sex)) {
			return c, errors.InvalidInput(fmt.Sprintf("%s: unsupported value %q", ParamSex, raw))
		}
		c.Sex = sex
	}

	sliders := []struct {
		param  string
		slider config.SliderConfig
		target *int
	}{
		{ParamMinAge, controls.MinAge, &c.MinAge},
		{ParamMaxAge, controls.MaxAge, &c.MaxAge},
		{ParamMinMonths, controls.MinMonths, &c.MinMonths},
	}
	for _, s := range sliders {
		raw, ok := lastValue(values, s.param)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return c, errors.InvalidInput(fmt.Sprintf("%s: %q is not an integer", s.param, raw))
		}
		if v < s.slider.Min || v > s.slider.Max {
			return c, errors.InvalidInput(fmt.Sprintf("%s: %d outside [%d,%d]", s.param, v, s.slider.Min, s.slider.Max))
		}
		*s.target = v
	}

	if raw, ok := lastValue(values, ParamPensionersOnly); ok {
		v, err := parseToggle(raw)
		if err != nil {
			return c, errors.InvalidInput(fmt.Sprintf("%s: %v", ParamPensionersOnly, err))
		}
		c.PensionersOnly = v
	}

	return c, nil
}

// CriteriaValues encodes c as query parameters understood by ParseCriteria
func CriteriaValues(c beneficiary.Criteria) url.Values {
	sex := c.Sex
	if sex == "" {
		sex = beneficiary.SexAny
	}
	return url.Values{
		ParamSex:            {string(sex)},
		ParamMinAge:         {strconv.Itoa(c.MinAge)},
		ParamMaxAge:         {strconv.Itoa(c.MaxAge)},
		ParamMinMonths:      {strconv.Itoa(c.MinMonths)},
		ParamPensionersOnly: {strconv.FormatBool(c.PensionersOnly)},
	}
}

func lastValue(values url.Values, key string) (string, bool) {
	v := values[key]
	if len(v) == 0 {
		return "", false
	}
	return strings.TrimSpace(v[len(v)-1]), true
}

func parseToggle(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "1", "true", "on", "yes", "si", "sí":
		return true, nil
	case "0", "false", "off", "no", "":
		return false, nil
	default:
		return false, fmt.Errorf("%q is not a boolean", raw)
	}
}

func containsFold(options []string, value string) bool {
	for _, o := range options {
		if strings.EqualFold(o, value) {
			return true
		}
	}
	return false
}
