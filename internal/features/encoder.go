// Package features кодирует клиническое наблюдение в вектор признаков,
// с которым обучался классификатор.
//
// Порядок колонок и схема one-hot (drop_first) обязаны совпадать с теми,
// что использовались при обучении, иначе оценка модели теряет смысл.
package features

import (
	"errors"

	"github.com/Krimson/heart-risk/internal/clinical"
)

// Width число признаков.
const Width = 18

// Columns порядок колонок, в котором обучалась модель.
var Columns = [Width]string{
	"age", "sex", "trestbps", "chol", "fbs", "restecg", "thalach", "exang", "oldpeak", "ca",
	"cp_1", "cp_2", "cp_3",
	"thal_1", "thal_2", "thal_3",
	"slope_1", "slope_2",
}

// Индексы слотов вектора.
const (
	IdxAge = iota
	IdxSex
	IdxRestingBP
	IdxCholesterol
	IdxFastingBloodSugar
	IdxRestingECG
	IdxMaxHeartRate
	IdxExerciseAngina
	IdxSTDepression
	IdxMajorVessels
	IdxCP1
	IdxCP2
	IdxCP3
	IdxThal1
	IdxThal2
	IdxThal3
	IdxSlope1
	IdxSlope2
)

// ErrLayoutMismatch раскладка колонок не совпадает с Columns.
var ErrLayoutMismatch = errors.New("feature layout mismatch")

// Group группа dummy-колонок одного категориального поля.
type Group struct {
	Field      string `json:"field"`
	Prefix     string `json:"prefix"`
	First      int    `json:"first_slot"`
	Categories int    `json:"categories"`
}

// Slots число dummy-колонок группы (референсная категория не представлена).
func (g Group) Slots() int { return g.Categories - 1 }

// Groups one-hot группы в порядке их колонок.
var Groups = []Group{
	{Field: "chest_pain_type", Prefix: "cp", First: IdxCP1, Categories: 4},
	{Field: "thalassemia", Prefix: "thal", First: IdxThal1, Categories: 4},
	{Field: "st_slope", Prefix: "slope", First: IdxSlope1, Categories: 3},
}

// Vector вектор признаков фиксированной ширины.
type Vector [Width]float64

// Slice копия значений вектора.
func (v Vector) Slice() []float64 {
	out := make([]float64, Width)
	copy(out, v[:])
	return out
}

// Named значения по именам колонок.
func (v Vector) Named() map[string]float64 {
	m := make(map[string]float64, Width)
	for i, name := range Columns {
		m[name] = v[i]
	}
	return m
}

// FromSlice собирает вектор из среза, проверяя ширину.
func FromSlice(values []float64) (Vector, error) {
	var v Vector
	if len(values) != Width {
		return v, ErrLayoutMismatch
	}
	copy(v[:], values)
	return v, nil
}

// CheckLayout сверяет список колонок с Columns.
func CheckLayout(names []string) error {
	if len(names) != Width {
		return ErrLayoutMismatch
	}
	for i, name := range names {
		if name != Columns[i] {
			return ErrLayoutMismatch
		}
	}
	return nil
}

// Encode кодирует наблюдение. Функция чистая и тотальная: диапазоны не проверяются.
func Encode(o clinical.Observation) Vector {
	var v Vector

	v[IdxAge] = float64(o.Age)
	v[IdxSex] = float64(o.Sex.Ordinal())
	v[IdxRestingBP] = float64(o.RestingBP)
	v[IdxCholesterol] = float64(o.Cholesterol)
	v[IdxFastingBloodSugar] = boolToFloat(o.FastingBloodSugarHigh)
	v[IdxRestingECG] = float64(o.RestingECG.Ordinal())
	v[IdxMaxHeartRate] = float64(o.MaxHeartRate)
	v[IdxExerciseAngina] = boolToFloat(o.ExerciseAngina)
	v[IdxSTDepression] = o.STDepression
	v[IdxMajorVessels] = float64(o.MajorVessels)

	oneHot(&v, Groups[0], o.ChestPain.Ordinal())
	oneHot(&v, Groups[1], o.Thalassemia.Ordinal())
	oneHot(&v, Groups[2], o.STSlope.Ordinal())

	return v
}

// oneHot выставляет слот <prefix>_<index>. Индекс 0 остаётся нулями.
func oneHot(v *Vector, g Group, index int) {
	if index < 1 || index >= g.Categories {
		return
	}
	v[g.First+index-1] = 1
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
