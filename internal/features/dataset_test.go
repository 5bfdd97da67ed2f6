package features

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krimson/heart-risk/internal/clinical"
)

const datasetHeader = "age,sex,cp,trestbps,chol,fbs,restecg,thalach,exang,oldpeak,slope,ca,thal,target\n"

// allCombinations строит набор со всеми сочетаниями категориальных полей.
func allCombinations() string {
	var b strings.Builder
	b.WriteString(datasetHeader)
	n := 0
	for cp := 0; cp < 4; cp++ {
		for thal := 0; thal < 4; thal++ {
			for slope := 0; slope < 3; slope++ {
				for restecg := 0; restecg < 3; restecg++ {
					for sex := 0; sex < 2; sex++ {
						n++
						fmt.Fprintf(&b, "%d,%d,%d,%d,%d,%d,%d,%d,%d,%.1f,%d,%d,%d,%d\n",
							30+n%50, sex, cp, 110+n%60, 180+n%120, n%2, restecg,
							120+n%70, (n/2)%2, float64(n%30)/10, slope, n%4, thal, n%2)
					}
				}
			}
		}
	}
	return b.String()
}

func TestDataset_InvertsLabels(t *testing.T) {
	ds, err := LoadDataset(strings.NewReader(datasetHeader +
		"63,1,3,145,233,1,0,150,0,2.3,0,0,1,1\n" +
		"67,1,0,160,286,0,0,108,1,1.5,1,3,2,0\n"))
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, []int{0, 1}, ds.Labels)
}

func TestDataset_RejectsBadInput(t *testing.T) {
	_, err := LoadDataset(strings.NewReader(datasetHeader))
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = LoadDataset(strings.NewReader("age,sex\n1,2\n"))
	assert.ErrorContains(t, err, "missing column")

	_, err = LoadDataset(strings.NewReader(datasetHeader + "63,1,3,145,233,1,0,150,0,x,0,0,1,1\n"))
	assert.ErrorContains(t, err, "oldpeak")

	_, err = LoadDataset(strings.NewReader(datasetHeader + "63,1,3,145,233,1,0,150,0,2.3,0,0,1,2\n"))
	assert.ErrorContains(t, err, "target")
}

// Кодирование при обучении и при инференсе должно давать одинаковые векторы
// для каждого сочетания категорий.
func TestDesign_MatchesInferenceEncoder(t *testing.T) {
	ds, err := LoadDataset(strings.NewReader(allCombinations()))
	require.NoError(t, err)

	design, err := ds.Design()
	require.NoError(t, err)
	assert.Equal(t, Columns[:], design.Columns)

	observations, err := ds.Observations()
	require.NoError(t, err)
	require.Len(t, design.Rows, len(observations))

	for i, o := range observations {
		require.Equal(t, design.Rows[i], Encode(o), "row %d (%+v)", i+1, o)
	}
}

func TestDesign_MissingReferenceCategoryBreaksLayout(t *testing.T) {
	// thal=0 отсутствует: drop_first отбросит thal_1 и раскладка сдвинется
	csv := datasetHeader +
		"63,1,0,145,233,1,0,150,0,2.3,0,0,1,1\n" +
		"63,1,1,145,233,1,0,150,0,2.3,1,0,2,1\n" +
		"63,1,2,145,233,1,0,150,0,2.3,2,0,3,0\n" +
		"63,1,3,145,233,1,0,150,0,2.3,0,0,1,0\n"
	ds, err := LoadDataset(strings.NewReader(csv))
	require.NoError(t, err)

	design, err := ds.Design()
	require.ErrorIs(t, err, ErrLayoutMismatch)
	assert.Contains(t, design.Columns, "thal_3")
	assert.NotContains(t, design.Columns, "thal_1")
}

func TestDataset_DiseaseRate(t *testing.T) {
	ds, err := LoadDataset(strings.NewReader(datasetHeader +
		"63,1,3,145,233,1,0,150,0,2.3,0,0,1,1\n" +
		"50,1,3,145,233,1,0,150,0,2.3,0,0,1,0\n" +
		"67,1,0,160,286,0,0,108,1,1.5,1,3,2,0\n"))
	require.NoError(t, err)

	rate, n := ds.DiseaseRate(func(c clinical.Codes) bool { return c.CA == 0 })
	assert.Equal(t, 2, n)
	assert.InDelta(t, 0.5, rate, 1e-9)

	_, n = ds.DiseaseRate(func(c clinical.Codes) bool { return c.CA == 2 })
	assert.Zero(t, n)
}
