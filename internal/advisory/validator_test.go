package advisory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krimson/heart-risk/internal/clinical"
)

func rules(messages []Message) []string {
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.Rule)
	}
	return ids
}

func healthy() clinical.Observation {
	o := clinical.DefaultObservation()
	o.Age = 30
	o.MajorVessels = 0
	o.MaxHeartRate = 160
	o.STDepression = 0
	return o
}

func TestValidate_HealthyHasNoMessages(t *testing.T) {
	v := NewValidator(DefaultThresholds())
	assert.Empty(t, v.Validate(healthy()))
}

func TestValidate_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*clinical.Observation)
		want   []string
	}{
		{
			name:   "high bp with low heart rate",
			mutate: func(o *clinical.Observation) { o.RestingBP = 210; o.MaxHeartRate = 50 },
			want:   []string{RuleBPHeartRate},
		},
		{
			name:   "high bp at threshold does not fire",
			mutate: func(o *clinical.Observation) { o.RestingBP = 210; o.MaxHeartRate = 60 },
			want:   []string{},
		},
		{
			name:   "bp exactly 200 does not fire",
			mutate: func(o *clinical.Observation) { o.RestingBP = 200; o.MaxHeartRate = 40 },
			want:   []string{},
		},
		{
			name:   "young with high cholesterol",
			mutate: func(o *clinical.Observation) { o.Age = 25; o.Cholesterol = 300 },
			want:   []string{RuleCholYoung},
		},
		{
			name:   "implausible cholesterol wins over age bands",
			mutate: func(o *clinical.Observation) { o.Age = 25; o.Cholesterol = 650 },
			want:   []string{RuleCholImplausible},
		},
		{
			name:   "implausible cholesterol for elderly",
			mutate: func(o *clinical.Observation) { o.Age = 70; o.Cholesterol = 650 },
			want:   []string{RuleCholImplausible},
		},
		{
			name:   "midlife boundary 30",
			mutate: func(o *clinical.Observation) { o.Age = 30; o.Cholesterol = 241 },
			want:   []string{RuleCholMidlife},
		},
		{
			name:   "midlife boundary 50",
			mutate: func(o *clinical.Observation) { o.Age = 50; o.Cholesterol = 250 },
			want:   []string{RuleCholMidlife},
		},
		{
			name:   "elderly below band",
			mutate: func(o *clinical.Observation) { o.Age = 51; o.Cholesterol = 270 },
			want:   []string{},
		},
		{
			name:   "elderly above band",
			mutate: func(o *clinical.Observation) { o.Age = 51; o.Cholesterol = 281 },
			want:   []string{RuleCholElderly},
		},
		{
			name:   "exertional angina with low heart rate",
			mutate: func(o *clinical.Observation) { o.ExerciseAngina = true; o.MaxHeartRate = 75 },
			want:   []string{RuleExertionalAnginaLow},
		},
		{
			name: "all groups fire in rule order",
			mutate: func(o *clinical.Observation) {
				o.RestingBP = 250
				o.MaxHeartRate = 45
				o.ExerciseAngina = true
				o.Age = 40
				o.Cholesterol = 300
			},
			want: []string{RuleBPHeartRate, RuleCholMidlife, RuleExertionalAnginaLow},
		},
	}

	v := NewValidator(DefaultThresholds())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := healthy()
			tt.mutate(&o)
			assert.Equal(t, tt.want, rules(v.Validate(o)))
		})
	}
}

func TestValidate_Severity(t *testing.T) {
	v := NewValidator(DefaultThresholds())
	o := healthy()
	o.Age = 65
	o.Cholesterol = 300

	messages := v.Validate(o)
	require.Len(t, messages, 1)
	assert.Equal(t, SeverityInfo, messages[0].Severity)
	assert.Contains(t, messages[0].Text, "300")
}

func TestValidate_CustomThresholds(t *testing.T) {
	o := healthy()
	o.RestingBP = 220
	o.MaxHeartRate = 57
	o.ExerciseAngina = true

	strict := NewValidator(Thresholds{LowHeartRateWithHighBP: 55, ExertionalAnginaHeartRate: 70})
	assert.Equal(t, []string{RuleExertionalAnginaLow}, rules(strict.Validate(o)))

	loose := NewValidator(DefaultThresholds())
	assert.Equal(t, []string{RuleBPHeartRate, RuleExertionalAnginaLow}, rules(loose.Validate(o)))
}

func TestValidate_DeterministicAndCholesterolExclusive(t *testing.T) {
	v := NewValidator(DefaultThresholds())
	cholesterolRules := map[string]bool{
		RuleCholImplausible: true, RuleCholYoung: true, RuleCholMidlife: true, RuleCholElderly: true,
	}

	for age := 1; age <= 120; age += 7 {
		for chol := 80; chol <= 700; chol += 15 {
			o := healthy()
			o.Age = age
			o.Cholesterol = chol

			first := v.Validate(o)
			assert.Equal(t, first, v.Validate(o))

			n := 0
			for _, m := range first {
				if cholesterolRules[m.Rule] {
					n++
				}
			}
			assert.LessOrEqual(t, n, 1, "age=%d chol=%d", age, chol)
		}
	}
}

func TestGroups_Structure(t *testing.T) {
	groups := NewValidator(DefaultThresholds()).Groups()
	require.Len(t, groups, 3)
	assert.False(t, groups[0].FirstMatch)
	assert.True(t, groups[1].FirstMatch)
	assert.Equal(t, []string{RuleCholImplausible, RuleCholYoung, RuleCholMidlife, RuleCholElderly},
		func() []string {
			var ids []string
			for _, r := range groups[1].Rules {
				ids = append(ids, r.ID)
			}
			return ids
		}())
}
