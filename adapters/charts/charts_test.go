package charts

import (
	"bytes"
	"image/png"
	"testing"

	"afpdash/domain/beneficiary"
	"afpdash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView(criteria beneficiary.Criteria) beneficiary.View {
	records := make([]beneficiary.Record, 0, 60)
	for i := 0; i < 60; i++ {
		sex := beneficiary.SexFemale
		if i%2 == 1 {
			sex = beneficiary.SexMale
		}
		records = append(records, beneficiary.Record{
			Age:               18 + (i*7)%73,
			MonthsContributed: (i * 37) % 501,
			Sex:               sex,
			IsPensioner:       i%3 != 0,
			WillCheckBenefit:  i%4 == 0,
			Income:            float64(250000 + i*15000),
		})
	}
	return beneficiary.Apply(beneficiary.NewDataset("charts", nil, records), criteria)
}

func everyone() beneficiary.Criteria {
	return beneficiary.Criteria{Sex: beneficiary.SexAny, MinAge: 18, MaxAge: 90}
}

func assertPNG(t *testing.T, data []byte) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Width, img.Bounds().Dx())
	assert.Equal(t, Height, img.Bounds().Dy())
}

func TestRenderAllCharts(t *testing.T) {
	view := sampleView(everyone())
	require.NotZero(t, view.BenefitCount)
	require.NotZero(t, view.NoBenefitCount)

	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(name, &buf, view))
			assertPNG(t, buf.Bytes())
		})
	}
}

func TestRenderEmptyViewDrawsPlaceholder(t *testing.T) {
	empty := sampleView(beneficiary.Criteria{Sex: beneficiary.SexAny, MinAge: 80, MaxAge: 20})
	require.Zero(t, empty.Total)

	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(name, &buf, empty))
			assertPNG(t, buf.Bytes())
		})
	}
}

func TestRenderSingleOutcome(t *testing.T) {
	view := sampleView(everyone())
	benefit, _ := view.Split()
	only := beneficiary.Apply(beneficiary.NewDataset("benefit", nil, benefit), everyone())
	require.Zero(t, only.NoBenefitCount)

	for _, name := range Names {
		var buf bytes.Buffer
		require.NoError(t, Render(name, &buf, only), name)
	}
}

func TestRenderSingleRow(t *testing.T) {
	ds := beneficiary.NewDataset("one", nil, []beneficiary.Record{
		{Age: 70, MonthsContributed: 240, Sex: beneficiary.SexFemale, IsPensioner: true, WillCheckBenefit: true, Income: 500000},
	})
	view := beneficiary.Apply(ds, everyone())

	var buf bytes.Buffer
	require.NoError(t, Scatter(&buf, view))
	assertPNG(t, buf.Bytes())
}

func TestRenderUnknownChart(t *testing.T) {
	var buf bytes.Buffer
	err := Render("radar", &buf, sampleView(everyone()))
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestIncomeSize(t *testing.T) {
	size := incomeSize([]float64{100, 200, 300}, 100, 300)
	assert.Equal(t, 2.0, size(nil, nil, 0, 0, 0))
	assert.Equal(t, 6.0, size(nil, nil, 1, 0, 0))
	assert.Equal(t, 10.0, size(nil, nil, 2, 0, 0))
	assert.Equal(t, 4.0, incomeSize([]float64{5}, 5, 5)(nil, nil, 0, 0, 0))
}
