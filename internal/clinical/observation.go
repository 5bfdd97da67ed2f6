package clinical

import (
	"fmt"
	"strings"
)

// Sex пол пациента. В наборе данных мужской пол кодируется единицей.
type Sex uint8

const (
	SexFemale Sex = iota
	SexMale
)

// ChestPainType тип боли в груди (cp). Значение совпадает с кодом в наборе данных.
type ChestPainType uint8

const (
	ChestPainTypical ChestPainType = iota
	ChestPainAtypical
	ChestPainNonAnginal
	ChestPainAsymptomatic
)

// RestingECG результат ЭКГ в покое (restecg).
type RestingECG uint8

const (
	ECGNormal RestingECG = iota
	ECGSTAbnormality
	ECGLeftVentricularHypertrophy
)

// STSlope наклон сегмента ST при нагрузке (slope).
type STSlope uint8

const (
	SlopeUpsloping STSlope = iota
	SlopeFlat
	SlopeDownsloping
)

// Thalassemia результат теста на талассемию (thal).
type Thalassemia uint8

const (
	ThalUnknown Thalassemia = iota
	ThalNormal
	ThalFixedDefect
	ThalReversibleDefect
)

var (
	sexNames         = []string{"female", "male"}
	chestPainNames   = []string{"typical", "atypical", "non_anginal", "asymptomatic"}
	restingECGNames  = []string{"normal", "st_abnormality", "left_ventricular_hypertrophy"}
	stSlopeNames     = []string{"upsloping", "flat", "downsloping"}
	thalassemiaNames = []string{"unknown", "normal", "fixed_defect", "reversible_defect"}
)

// Observation одно клиническое наблюдение из формы.
// Создаётся на каждый запрос и передаётся по значению.
type Observation struct {
	Age                   int           `json:"age"`
	Sex                   Sex           `json:"sex"`
	ChestPain             ChestPainType `json:"chest_pain_type"`
	RestingBP             int           `json:"resting_bp"`
	Cholesterol           int           `json:"cholesterol"`
	FastingBloodSugarHigh bool          `json:"fasting_blood_sugar_high"`
	RestingECG            RestingECG    `json:"resting_ecg"`
	MaxHeartRate          int           `json:"max_heart_rate"`
	ExerciseAngina        bool          `json:"exercise_angina"`
	STDepression          float64       `json:"st_depression"`
	STSlope               STSlope       `json:"st_slope"`
	MajorVessels          int           `json:"major_vessels"`
	Thalassemia           Thalassemia   `json:"thalassemia"`
}

// DefaultObservation значения формы по умолчанию.
func DefaultObservation() Observation {
	return Observation{
		Age:          50,
		Sex:          SexMale,
		ChestPain:    ChestPainTypical,
		RestingBP:    120,
		Cholesterol:  200,
		RestingECG:   ECGNormal,
		MaxHeartRate: 150,
		STDepression: 0,
		STSlope:      SlopeUpsloping,
		MajorVessels: 0,
		Thalassemia:  ThalNormal,
	}
}

// Ordinal индекс категории; 0 означает референсную категорию.
func (s Sex) Ordinal() int           { return int(s) }
func (c ChestPainType) Ordinal() int { return int(c) }
func (e RestingECG) Ordinal() int    { return int(e) }
func (s STSlope) Ordinal() int       { return int(s) }
func (t Thalassemia) Ordinal() int   { return int(t) }

func (s Sex) String() string           { return enumName(sexNames, int(s)) }
func (c ChestPainType) String() string { return enumName(chestPainNames, int(c)) }
func (e RestingECG) String() string    { return enumName(restingECGNames, int(e)) }
func (s STSlope) String() string       { return enumName(stSlopeNames, int(s)) }
func (t Thalassemia) String() string   { return enumName(thalassemiaNames, int(t)) }

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("invalid(%d)", i)
	}
	return names[i]
}

func parseEnum(field string, names []string, value string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for i, name := range names {
		if v == name {
			return i, nil
		}
	}
	return 0, &InputValidationError{
		Field:  field,
		Value:  value,
		Reason: "must be one of " + strings.Join(names, ", "),
	}
}

// ParseSex разбирает значение пола.
func ParseSex(value string) (Sex, error) {
	i, err := parseEnum("sex", sexNames, value)
	return Sex(i), err
}

// ParseChestPainType разбирает тип боли в груди.
func ParseChestPainType(value string) (ChestPainType, error) {
	i, err := parseEnum("chest_pain_type", chestPainNames, value)
	return ChestPainType(i), err
}

// ParseRestingECG разбирает результат ЭКГ.
func ParseRestingECG(value string) (RestingECG, error) {
	i, err := parseEnum("resting_ecg", restingECGNames, value)
	return RestingECG(i), err
}

// ParseSTSlope разбирает наклон ST.
func ParseSTSlope(value string) (STSlope, error) {
	i, err := parseEnum("st_slope", stSlopeNames, value)
	return STSlope(i), err
}

// ParseThalassemia разбирает результат теста на талассемию.
func ParseThalassemia(value string) (Thalassemia, error) {
	i, err := parseEnum("thalassemia", thalassemiaNames, value)
	return Thalassemia(i), err
}

func (s Sex) MarshalText() ([]byte, error)           { return marshalEnum(sexNames, int(s)) }
func (c ChestPainType) MarshalText() ([]byte, error) { return marshalEnum(chestPainNames, int(c)) }
func (e RestingECG) MarshalText() ([]byte, error)    { return marshalEnum(restingECGNames, int(e)) }
func (s STSlope) MarshalText() ([]byte, error)       { return marshalEnum(stSlopeNames, int(s)) }
func (t Thalassemia) MarshalText() ([]byte, error)   { return marshalEnum(thalassemiaNames, int(t)) }

func marshalEnum(names []string, i int) ([]byte, error) {
	if i < 0 || i >= len(names) {
		return nil, fmt.Errorf("invalid enum ordinal %d", i)
	}
	return []byte(names[i]), nil
}

func (s *Sex) UnmarshalText(b []byte) (err error) {
	*s, err = ParseSex(string(b))
	return err
}

func (c *ChestPainType) UnmarshalText(b []byte) (err error) {
	*c, err = ParseChestPainType(string(b))
	return err
}

func (e *RestingECG) UnmarshalText(b []byte) (err error) {
	*e, err = ParseRestingECG(string(b))
	return err
}

func (s *STSlope) UnmarshalText(b []byte) (err error) {
	*s, err = ParseSTSlope(string(b))
	return err
}

func (t *Thalassemia) UnmarshalText(b []byte) (err error) {
	*t, err = ParseThalassemia(string(b))
	return err
}

// Варианты для выпадающих списков формы.
func SexOptions() []string         { return append([]string(nil), sexNames...) }
func ChestPainOptions() []string   { return append([]string(nil), chestPainNames...) }
func RestingECGOptions() []string  { return append([]string(nil), restingECGNames...) }
func STSlopeOptions() []string     { return append([]string(nil), stSlopeNames...) }
func ThalassemiaOptions() []string { return append([]string(nil), thalassemiaNames...) }
