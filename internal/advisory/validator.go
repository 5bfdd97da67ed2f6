// Package advisory проверяет правдоподобие сочетаний клинических показателей.
//
// Правила только информируют: они никогда не блокируют оценку риска и не
// изменяют наблюдение.
package advisory

import (
	"fmt"

	"github.com/Krimson/heart-risk/internal/clinical"
)

// Severity уровень сообщения.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Идентификаторы правил.
const (
	RuleBPHeartRate         = "bp_hr_inconsistent"
	RuleCholImplausible     = "cholesterol_implausible"
	RuleCholYoung           = "cholesterol_young"
	RuleCholMidlife         = "cholesterol_midlife"
	RuleCholElderly         = "cholesterol_elderly"
	RuleExertionalAnginaLow = "exertional_angina_low_hr"
)

// Message рекомендательное сообщение для пользователя.
type Message struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// Thresholds настраиваемые пороги правил по частоте сердечных сокращений.
type Thresholds struct {
	// LowHeartRateWithHighBP максимальный пульс ниже этого значения при давлении > 200.
	LowHeartRateWithHighBP int `yaml:"low_heart_rate_with_high_bp"`
	// ExertionalAnginaHeartRate максимальный пульс ниже этого значения при стенокардии напряжения.
	ExertionalAnginaHeartRate int `yaml:"exertional_angina_heart_rate"`
}

// DefaultThresholds пороги по умолчанию.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowHeartRateWithHighBP:    60,
		ExertionalAnginaHeartRate: 80,
	}
}

// Rule одно правило. Check возвращает true, если правило сработало.
type Rule struct {
	ID       string
	Severity Severity
	Check    func(o clinical.Observation) bool
	Text     func(o clinical.Observation) string
}

func (r Rule) message(o clinical.Observation) Message {
	return Message{Rule: r.ID, Severity: r.Severity, Text: r.Text(o)}
}

// Group упорядоченный набор правил.
// При FirstMatch выдаётся сообщение только первого сработавшего правила группы,
// иначе проверяются все правила независимо.
type Group struct {
	Name       string
	FirstMatch bool
	Rules      []Rule
}

// Validator применяет группы правил в фиксированном порядке.
// Состояния нет, безопасен для конкурентного использования.
type Validator struct {
	groups []Group
}

// NewValidator создаёт валидатор со стандартным набором правил.
func NewValidator(th Thresholds) *Validator {
	return &Validator{groups: DefaultGroups(th)}
}

// Groups возвращает копию списка групп.
func (v *Validator) Groups() []Group {
	return append([]Group(nil), v.groups...)
}

// Validate возвращает сообщения в порядке правил. Никогда не возвращает ошибку.
func (v *Validator) Validate(o clinical.Observation) []Message {
	messages := make([]Message, 0, 2)
	for _, g := range v.groups {
		for _, r := range g.Rules {
			if !r.Check(o) {
				continue
			}
			messages = append(messages, r.message(o))
			if g.FirstMatch {
				break
			}
		}
	}
	return messages
}

// DefaultGroups стандартные правила:
//  1. давление > 200 при пульсе ниже порога;
//  2. холестерин по возрастным диапазонам, срабатывает только первый подходящий диапазон;
//  3. стенокардия напряжения при пульсе ниже порога.
func DefaultGroups(th Thresholds) []Group {
	return []Group{
		{
			Name: "blood_pressure",
			Rules: []Rule{{
				ID:       RuleBPHeartRate,
				Severity: SeverityWarning,
				Check: func(o clinical.Observation) bool {
					return o.RestingBP > 200 && o.MaxHeartRate < th.LowHeartRateWithHighBP
				},
				Text: func(o clinical.Observation) string {
					return fmt.Sprintf("Data warning: very high blood pressure (%d > 200) but low maximum heart rate (%d < %d). Please re-check the values.",
						o.RestingBP, o.MaxHeartRate, th.LowHeartRateWithHighBP)
				},
			}},
		},
		{
			Name:       "cholesterol",
			FirstMatch: true,
			Rules: []Rule{
				{
					ID:       RuleCholImplausible,
					Severity: SeverityWarning,
					Check:    func(o clinical.Observation) bool { return o.Cholesterol > 600 },
					Text: func(o clinical.Observation) string {
						return fmt.Sprintf("Suspicious value: cholesterol %d > 600 mg/dl is extremely rare.", o.Cholesterol)
					},
				},
				{
					ID:       RuleCholYoung,
					Severity: SeverityWarning,
					Check:    func(o clinical.Observation) bool { return o.Age < 30 && o.Cholesterol > 260 },
					Text: func(o clinical.Observation) string {
						return fmt.Sprintf("Medical warning (young patient): age %d < 30 with high cholesterol (%d > 260). May be hereditary.", o.Age, o.Cholesterol)
					},
				},
				{
					ID:       RuleCholMidlife,
					Severity: SeverityWarning,
					Check: func(o clinical.Observation) bool {
						return o.Age >= 30 && o.Age <= 50 && o.Cholesterol > 240
					},
					Text: func(o clinical.Observation) string {
						return fmt.Sprintf("Warning (middle age): high cholesterol (%d > 240). Lifestyle changes are advised.", o.Cholesterol)
					},
				},
				{
					ID:       RuleCholElderly,
					Severity: SeverityInfo,
					Check:    func(o clinical.Observation) bool { return o.Age > 50 && o.Cholesterol > 280 },
					Text: func(o clinical.Observation) string {
						return fmt.Sprintf("Note (older patient): high cholesterol (%d > 280) increases the risk of atherosclerosis.", o.Cholesterol)
					},
				},
			},
		},
		{
			Name: "exertional_angina",
			Rules: []Rule{{
				ID:       RuleExertionalAnginaLow,
				Severity: SeverityWarning,
				Check: func(o clinical.Observation) bool {
					return o.ExerciseAngina && o.MaxHeartRate < th.ExertionalAnginaHeartRate
				},
				Text: func(o clinical.Observation) string {
					return fmt.Sprintf("Logic check: exercise-induced angina reported but maximum heart rate is low (%d < %d).",
						o.MaxHeartRate, th.ExertionalAnginaHeartRate)
				},
			}},
		},
	}
}
