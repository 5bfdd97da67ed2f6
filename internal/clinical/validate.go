package clinical

import (
	"errors"
	"fmt"
)

// ErrInvalidInput базовая ошибка приёма входных данных.
var ErrInvalidInput = errors.New("invalid clinical input")

// InputValidationError описывает поле, не прошедшее проверку диапазона.
type InputValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("%s: invalid value %v: %s", e.Field, e.Value, e.Reason)
}

func (e *InputValidationError) Unwrap() error { return ErrInvalidInput }

// Диапазоны полей формы.
const (
	MinAge, MaxAge                   = 1, 120
	MinRestingBP, MaxRestingBP       = 50, 300
	MinCholesterol, MaxCholesterol   = 80, 600
	MinMaxHeartRate, MaxMaxHeartRate = 30, 250
	MinSTDepression, MaxSTDepression = 0.0, 10.0
	MinMajorVessels, MaxMajorVessels = 0, 3
)

// Validate блокирующая проверка наблюдения перед оценкой.
// Возвращает первую найденную ошибку.
func (o Observation) Validate() error {
	checks := []struct {
		field string
		value int
		min   int
		max   int
	}{
		{"age", o.Age, MinAge, MaxAge},
		{"resting_bp", o.RestingBP, MinRestingBP, MaxRestingBP},
		{"cholesterol", o.Cholesterol, MinCholesterol, MaxCholesterol},
		{"max_heart_rate", o.MaxHeartRate, MinMaxHeartRate, MaxMaxHeartRate},
		{"major_vessels", o.MajorVessels, MinMajorVessels, MaxMajorVessels},
	}
	for _, c := range checks {
		if !ValidateRange(c.value, c.min, c.max) {
			return rangeError(c.field, c.value, c.min, c.max)
		}
	}

	// NaN не проходит ни одно сравнение
	if !(o.STDepression >= MinSTDepression && o.STDepression <= MaxSTDepression) {
		return &InputValidationError{
			Field:  "st_depression",
			Value:  o.STDepression,
			Reason: fmt.Sprintf("must be between %.1f and %.1f", MinSTDepression, MaxSTDepression),
		}
	}

	enums := []struct {
		field   string
		ordinal int
		names   []string
	}{
		{"sex", int(o.Sex), sexNames},
		{"chest_pain_type", int(o.ChestPain), chestPainNames},
		{"resting_ecg", int(o.RestingECG), restingECGNames},
		{"st_slope", int(o.STSlope), stSlopeNames},
		{"thalassemia", int(o.Thalassemia), thalassemiaNames},
	}
	for _, e := range enums {
		if e.ordinal >= len(e.names) {
			return rangeError(e.field, e.ordinal, 0, len(e.names)-1)
		}
	}

	return nil
}

// ValidateRange проверяет что значение в диапазоне [min, max]
func ValidateRange(value, min, max int) bool {
	return value >= min && value <= max
}

func rangeError(field string, value, min, max int) error {
	return &InputValidationError{
		Field:  field,
		Value:  value,
		Reason: fmt.Sprintf("must be between %d and %d", min, max),
	}
}

// Codes числовые коды строки набора данных UCI Cleveland.
type Codes struct {
	Age      float64
	Sex      float64
	CP       float64
	Trestbps float64
	Chol     float64
	FBS      float64
	RestECG  float64
	Thalach  float64
	Exang    float64
	Oldpeak  float64
	Slope    float64
	CA       float64
	Thal     float64
}

// FromCodes собирает наблюдение из кодов набора данных.
// Диапазоны числовых полей здесь не проверяются: в наборе бывают значения за пределами формы.
func FromCodes(c Codes) (Observation, error) {
	cat := func(field string, v float64, n int) (int, error) {
		i := int(v)
		if float64(i) != v || i < 0 || i >= n {
			return 0, rangeError(field, i, 0, n-1)
		}
		return i, nil
	}
	flag := func(field string, v float64) (bool, error) {
		i, err := cat(field, v, 2)
		return i == 1, err
	}

	var (
		o   Observation
		err error
		i   int
	)
	o.Age = int(c.Age)
	o.RestingBP = int(c.Trestbps)
	o.Cholesterol = int(c.Chol)
	o.MaxHeartRate = int(c.Thalach)
	o.STDepression = c.Oldpeak
	o.MajorVessels = int(c.CA)

	if i, err = cat("sex", c.Sex, len(sexNames)); err != nil {
		return Observation{}, err
	}
	o.Sex = Sex(i)
	if i, err = cat("cp", c.CP, len(chestPainNames)); err != nil {
		return Observation{}, err
	}
	o.ChestPain = ChestPainType(i)
	if i, err = cat("restecg", c.RestECG, len(restingECGNames)); err != nil {
		return Observation{}, err
	}
	o.RestingECG = RestingECG(i)
	if i, err = cat("slope", c.Slope, len(stSlopeNames)); err != nil {
		return Observation{}, err
	}
	o.STSlope = STSlope(i)
	if i, err = cat("thal", c.Thal, len(thalassemiaNames)); err != nil {
		return Observation{}, err
	}
	o.Thalassemia = Thalassemia(i)
	if o.FastingBloodSugarHigh, err = flag("fbs", c.FBS); err != nil {
		return Observation{}, err
	}
	if o.ExerciseAngina, err = flag("exang", c.Exang); err != nil {
		return Observation{}, err
	}

	return o, nil
}
