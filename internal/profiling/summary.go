package profiling

import (
	"math"

	"afpdash/domain/beneficiary"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// FieldSummary holds descriptive statistics of one numeric column
type FieldSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`

	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"excess_kurtosis"`
	Outliers int     `json:"outliers"`
}

// Summary complements the three counts of a view with per-column statistics
type Summary struct {
	Count        int          `json:"count"`
	BenefitShare float64      `json:"benefit_share"`
	Age          FieldSummary `json:"edad"`
	Months       FieldSummary `json:"meses_cotizados"`
	Income       FieldSummary `json:"ingresos"`

	// AgeMonthsCorrelation is Pearson's r between age and months
	// contributed; 0 when undefined
	AgeMonthsCorrelation float64 `json:"age_months_correlation"`
}

// Columns extracts the numeric columns of a view
func Columns(records []beneficiary.Record) (age, months, income []float64) {
	age = make([]float64, len(records))
	months = make([]float64, len(records))
	income = make([]float64, len(records))
	for i, r := range records {
		age[i] = float64(r.Age)
		months[i] = float64(r.MonthsContributed)
		income[i] = r.Income
	}
	return age, months, income
}

// Summarize computes the summary of a view. An empty view yields zeros.
func Summarize(view beneficiary.View) Summary {
	summary := Summary{
		Count:        view.Total,
		BenefitShare: view.BenefitShare(),
	}
	if len(view.Records) == 0 {
		return summary
	}

	age, months, income := Columns(view.Records)
	summary.Age = describe(age)
	summary.Months = describe(months)
	summary.Income = describe(income)

	if len(age) > 1 {
		if r := stat.Correlation(age, months, nil); !math.IsNaN(r) {
			summary.AgeMonthsCorrelation = r
		}
	}
	return summary
}

// describe never fails on non-empty input; errors only signal empty data
func describe(values []float64) FieldSummary {
	data := stats.Float64Data(values)
	var s FieldSummary
	s.Mean, _ = data.Mean()
	s.Median, _ = data.Median()
	s.Min, _ = data.Min()
	s.Max, _ = data.Max()
	if len(values) > 1 {
		s.StdDev, _ = data.StandardDeviationSample()
	}
	addShape(&s, data)
	return s
}
