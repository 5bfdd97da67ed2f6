package clinical

// ReferenceEntry строка справочной таблицы показателей.
type ReferenceEntry struct {
	Indicator string `json:"indicator"`
	Column    string `json:"column"`
	Meaning   string `json:"meaning"`
	Threshold string `json:"threshold,omitempty"`
}

// Reference справочник по клиническим показателям формы.
// Источник данных: UCI Machine Learning Repository, Cleveland dataset.
var Reference = []ReferenceEntry{
	{Indicator: "Age", Column: "age", Meaning: "Risk increases with age."},
	{Indicator: "Resting blood pressure", Column: "trestbps", Meaning: "Systolic pressure on the arteries at rest.", Threshold: "> 140 mm Hg is hypertension"},
	{Indicator: "Cholesterol", Column: "chol", Meaning: "Serum cholesterol.", Threshold: "> 240 mg/dl is high"},
	{Indicator: "Fasting blood sugar", Column: "fbs", Meaning: "Blood sugar after fasting.", Threshold: "> 120 mg/dl suggests diabetes"},
	{Indicator: "Maximum heart rate", Column: "thalach", Meaning: "Peak heart rate under exercise.", Threshold: "declines with age (220 - age)"},
	{Indicator: "Exercise-induced angina", Column: "exang", Meaning: "Chest pain during exertion; a classic sign of myocardial ischemia."},
}

// ReferenceSource источник набора данных, на котором обучалась модель.
const ReferenceSource = "UCI Machine Learning Repository - Cleveland Dataset"
