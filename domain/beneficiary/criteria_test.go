package beneficiary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSexFilter(t *testing.T) {
	tests := []struct {
		input    string
		expected SexFilter
		hasError bool
	}{
		{"Todos", SexAny, false},
		{"todos", SexAny, false},
		{"any", SexAny, false},
		{"", SexAny, false},
		{" f ", SexOnlyF, false},
		{"M", SexOnlyM, false},
		{"X", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSexFilter(tt.input)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseSex(t *testing.T) {
	s, ok := ParseSex(" f")
	assert.True(t, ok)
	assert.Equal(t, SexFemale, s)

	s, ok = ParseSex("m ")
	assert.True(t, ok)
	assert.Equal(t, SexMale, s)

	_, ok = ParseSex("x")
	assert.False(t, ok)
}

func TestRecordValidate(t *testing.T) {
	assert.NoError(t, Record{Age: 0, MonthsContributed: 0, Sex: SexFemale}.Validate())
	assert.Error(t, Record{Age: -1, Sex: SexFemale}.Validate())
	assert.Error(t, Record{Age: 40, MonthsContributed: -3, Sex: SexMale}.Validate())
	assert.Error(t, Record{Age: 40, Sex: "X"}.Validate())
}

func TestCriteriaString(t *testing.T) {
	c := Criteria{Sex: SexOnlyF, MinAge: 65, MaxAge: 90, MinMonths: 12, PensionersOnly: true}
	assert.Equal(t, "sexo=F edad=[65,90] meses>=12 solo_pensionados=sí", c.String())
	assert.Contains(t, Criteria{}.String(), "sexo=Todos")
}

func TestDatasetColumns(t *testing.T) {
	ds := NewDataset("cols", []string{"region"}, nil)
	assert.Equal(t, append(append([]string{}, RequiredColumns...), "region"), ds.Columns())
	assert.True(t, ds.IsEmpty())
	assert.NotEmpty(t, ds.ID)

	var nilDataset *Dataset
	assert.True(t, nilDataset.IsEmpty())
}
