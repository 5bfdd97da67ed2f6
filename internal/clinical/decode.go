package clinical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Fields JSON-имена полей наблюдения; все обязательны.
var Fields = []string{
	"age", "sex", "chest_pain_type", "resting_bp", "cholesterol",
	"fasting_blood_sugar_high", "resting_ecg", "max_heart_rate", "exercise_angina",
	"st_depression", "st_slope", "major_vessels", "thalassemia",
}

// ErrMalformedJSON тело запроса не является JSON-объектом.
var ErrMalformedJSON = errors.New("malformed observation JSON")

// DecodeJSON разбирает наблюдение и требует присутствия каждого поля.
// Неизвестные поля отклоняются. Диапазоны не проверяются, для этого Validate.
func DecodeJSON(data []byte) (Observation, error) {
	var o Observation

	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return o, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	for _, f := range Fields {
		raw, ok := present[f]
		if !ok || string(raw) == "null" {
			return o, &InputValidationError{Field: f, Value: nil, Reason: "is required"}
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&o); err != nil {
		var ive *InputValidationError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &ive):
			return o, ive
		case errors.As(err, &typeErr):
			return o, &InputValidationError{Field: typeErr.Field, Value: typeErr.Value, Reason: "must be a " + typeErr.Type.String()}
		default:
			return o, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
		}
	}
	return o, nil
}
