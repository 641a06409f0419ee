package beneficiary

// View is the subset of a dataset selected by a Criteria together with its
// derived counts. It is recomputed on every evaluation and never cached.
type View struct {
	Criteria       Criteria `json:"criteria"`
	Records        []Record `json:"records"`
	Total          int      `json:"total"`
	BenefitCount   int      `json:"benefit_count"`
	NoBenefitCount int      `json:"no_benefit_count"`
}

// Apply selects the rows of ds matching c, keeping their original order.
// It never fails: an empty selection is a valid view.
func Apply(ds *Dataset, c Criteria) View {
	view := View{Criteria: c, Records: []Record{}}
	if ds == nil {
		return view
	}

	for _, r := range ds.Records {
		if !c.Matches(r) {
			continue
		}
		view.Records = append(view.Records, r)
		if r.WillCheckBenefit {
			view.BenefitCount++
		}
	}

	view.Total = len(view.Records)
	view.NoBenefitCount = view.Total - view.BenefitCount
	return view
}

// BenefitShare is the fraction of rows that will check the benefit, 0 when
// the view is empty
func (v View) BenefitShare() float64 {
	if v.Total == 0 {
		return 0
	}
	return float64(v.BenefitCount) / float64(v.Total)
}

// Split partitions the view records by benefit outcome, preserving order
func (v View) Split() (benefit, noBenefit []Record) {
	for _, r := range v.Records {
		if r.WillCheckBenefit {
			benefit = append(benefit, r)
		} else {
			noBenefit = append(noBenefit, r)
		}
	}
	return benefit, noBenefit
}
