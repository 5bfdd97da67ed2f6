package clinical

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullJSON = `{
	"age": 63, "sex": "male", "chest_pain_type": "asymptomatic", "resting_bp": 145,
	"cholesterol": 233, "fasting_blood_sugar_high": true, "resting_ecg": "normal",
	"max_heart_rate": 150, "exercise_angina": false, "st_depression": 2.3,
	"st_slope": "downsloping", "major_vessels": 0, "thalassemia": "fixed_defect"
}`

func TestDecodeJSON(t *testing.T) {
	o, err := DecodeJSON([]byte(fullJSON))
	require.NoError(t, err)
	assert.Equal(t, 63, o.Age)
	assert.Equal(t, ChestPainAsymptomatic, o.ChestPain)
	assert.Equal(t, ThalFixedDefect, o.Thalassemia)
	assert.True(t, o.FastingBloodSugarHigh)
	require.NoError(t, o.Validate())
}

func TestDecodeJSON_FieldsMatchTags(t *testing.T) {
	data, err := json.Marshal(DefaultObservation())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m, len(Fields))
	for _, f := range Fields {
		assert.Contains(t, m, f)
	}
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing field", strings.Replace(fullJSON, `"age": 63, `, "", 1), "age"},
		{"null field", strings.Replace(fullJSON, `"cholesterol": 233`, `"cholesterol": null`, 1), "cholesterol"},
		{"wrong type", strings.Replace(fullJSON, `"resting_bp": 145`, `"resting_bp": "high"`, 1), "resting_bp"},
		{"unknown enum", strings.Replace(fullJSON, `"asymptomatic"`, `"crushing"`, 1), "chest_pain_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.body))
			var ive *InputValidationError
			require.ErrorAs(t, err, &ive)
			assert.Equal(t, tt.field, ive.Field)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := DecodeJSON([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrMalformedJSON)

	_, err = DecodeJSON([]byte(strings.Replace(fullJSON, `"age": 63`, `"age": 63, "name": "x"`, 1)))
	assert.ErrorIs(t, err, ErrMalformedJSON)
}
