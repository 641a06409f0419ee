package beneficiary

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioDataset() *Dataset {
	f, _ := ParseSex("f")
	m, _ := ParseSex("M")
	return NewDataset("scenario", nil, []Record{
		{Age: 70, MonthsContributed: 240, Sex: f, IsPensioner: true, WillCheckBenefit: true, Income: 500000},
		{Age: 30, MonthsContributed: 12, Sex: m, IsPensioner: false, WillCheckBenefit: false, Income: 800000},
	})
}

// randomDataset builds a deterministic pseudo-random dataset
func randomDataset(n int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))
	records := make([]Record, n)
	for i := range records {
		sex := SexFemale
		if rng.Intn(2) == 1 {
			sex = SexMale
		}
		records[i] = Record{
			Age:               18 + rng.Intn(73),
			MonthsContributed: rng.Intn(501),
			Sex:               sex,
			IsPensioner:       rng.Intn(2) == 1,
			WillCheckBenefit:  rng.Intn(3) == 0,
			Income:            float64(200000 + rng.Intn(1000000)),
		}
	}
	return NewDataset("random", nil, records)
}

func identityCriteria() Criteria {
	return Criteria{Sex: SexAny, MinAge: 18, MaxAge: 90, MinMonths: 0, PensionersOnly: false}
}

func TestApplyScenario(t *testing.T) {
	ds := scenarioDataset()
	require.Equal(t, SexFemale, ds.Records[0].Sex)
	require.Equal(t, SexMale, ds.Records[1].Sex)

	view := Apply(ds, Criteria{Sex: SexOnlyF, MinAge: 65, MaxAge: 90, MinMonths: 0, PensionersOnly: true})

	require.Len(t, view.Records, 1)
	assert.Equal(t, ds.Records[0], view.Records[0])
	assert.Equal(t, 1, view.Total)
	assert.Equal(t, 1, view.BenefitCount)
	assert.Equal(t, 0, view.NoBenefitCount)
}

func TestApplyIdentity(t *testing.T) {
	ds := randomDataset(500, 7)

	view := Apply(ds, identityCriteria())

	assert.Equal(t, ds.Records, view.Records)
	assert.Equal(t, ds.Len(), view.Total)
}

func TestApplyVacuousAgeRange(t *testing.T) {
	ds := randomDataset(200, 11)

	view := Apply(ds, Criteria{Sex: SexAny, MinAge: 60, MaxAge: 40})

	assert.Empty(t, view.Records)
	assert.Zero(t, view.Total)
	assert.Zero(t, view.BenefitCount)
	assert.Zero(t, view.NoBenefitCount)
	assert.Zero(t, view.BenefitShare())
}

func TestApplyProperties(t *testing.T) {
	ds := randomDataset(400, 42)
	sexes := []SexFilter{SexAny, SexOnlyF, SexOnlyM}

	for _, sex := range sexes {
		for _, pensioners := range []bool{false, true} {
			for minAge := 18; minAge <= 90; minAge += 12 {
				for _, maxAge := range []int{18, 50, 65, 90} {
					for _, minMonths := range []int{0, 120, 480} {
						c := Criteria{Sex: sex, MinAge: minAge, MaxAge: maxAge, MinMonths: minMonths, PensionersOnly: pensioners}
						view := Apply(ds, c)

						assert.LessOrEqual(t, view.Total, ds.Len())
						assert.Equal(t, view.Total, view.BenefitCount+view.NoBenefitCount)
						assert.Equal(t, len(view.Records), view.Total)
						assertSubsequence(t, ds.Records, view.Records)

						for _, r := range view.Records {
							assert.True(t, c.Matches(r), "record %+v does not match %s", r, c)
						}

						again := Apply(ds, c)
						assert.Equal(t, view, again, "evaluation must not depend on previous runs")
					}
				}
			}
		}
	}
}

func TestApplyClauses(t *testing.T) {
	ds := NewDataset("clauses", nil, []Record{
		{Age: 65, MonthsContributed: 100, Sex: SexFemale, IsPensioner: true, WillCheckBenefit: true},
		{Age: 66, MonthsContributed: 99, Sex: SexFemale, IsPensioner: true},
		{Age: 90, MonthsContributed: 300, Sex: SexMale, IsPensioner: false, WillCheckBenefit: true},
		{Age: 64, MonthsContributed: 500, Sex: SexMale, IsPensioner: true},
	})

	tests := []struct {
		name     string
		criteria Criteria
		want     []int
	}{
		{"age bounds are inclusive", Criteria{Sex: SexAny, MinAge: 65, MaxAge: 90}, []int{0, 1, 2}},
		{"months minimum is inclusive", Criteria{Sex: SexAny, MinAge: 18, MaxAge: 90, MinMonths: 100}, []int{0, 2, 3}},
		{"sex filter F", Criteria{Sex: SexOnlyF, MinAge: 18, MaxAge: 90}, []int{0, 1}},
		{"sex filter M", Criteria{Sex: SexOnlyM, MinAge: 18, MaxAge: 90}, []int{2, 3}},
		{"empty sex filter means any", Criteria{MinAge: 18, MaxAge: 90}, []int{0, 1, 2, 3}},
		{"pensioners only", Criteria{Sex: SexAny, MinAge: 18, MaxAge: 90, PensionersOnly: true}, []int{0, 1, 3}},
		{"all clauses", Criteria{Sex: SexOnlyM, MinAge: 60, MaxAge: 90, MinMonths: 300, PensionersOnly: true}, []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := Apply(ds, tt.criteria)
			want := make([]Record, 0, len(tt.want))
			for _, i := range tt.want {
				want = append(want, ds.Records[i])
			}
			assert.Equal(t, want, view.Records)
		})
	}
}

func TestApplyDoesNotAliasDataset(t *testing.T) {
	ds := scenarioDataset()
	original := append([]Record(nil), ds.Records...)

	view := Apply(ds, identityCriteria())
	view.Records[0].Age = 1

	assert.Equal(t, original, ds.Records)
}

func TestApplyNilDataset(t *testing.T) {
	view := Apply(nil, identityCriteria())
	assert.NotNil(t, view.Records)
	assert.Zero(t, view.Total)
}

func TestSplit(t *testing.T) {
	view := Apply(randomDataset(100, 3), identityCriteria())

	benefit, noBenefit := view.Split()

	assert.Len(t, benefit, view.BenefitCount)
	assert.Len(t, noBenefit, view.NoBenefitCount)
	assertSubsequence(t, view.Records, benefit)
	assertSubsequence(t, view.Records, noBenefit)
}

func assertSubsequence(t *testing.T, full, sub []Record) {
	t.Helper()
	j := 0
	for i := 0; i < len(full) && j < len(sub); i++ {
		if full[i].Age == sub[j].Age && full[i].MonthsContributed == sub[j].MonthsContributed &&
			full[i].Sex == sub[j].Sex && full[i].Income == sub[j].Income &&
			full[i].IsPensioner == sub[j].IsPensioner && full[i].WillCheckBenefit == sub[j].WillCheckBenefit {
			j++
		}
	}
	assert.Equal(t, len(sub), j, "view is not an order-preserving subsequence of the dataset")
}
