package httpapi

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Krimson/heart-risk/internal/advisory"
	"github.com/Krimson/heart-risk/internal/assessment"
	"github.com/Krimson/heart-risk/internal/clinical"
	"github.com/Krimson/heart-risk/internal/scoring"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"checked":  func(b bool) template.HTMLAttr { return attrIf(b, "checked") },
	"selected": func(a, b string) template.HTMLAttr { return attrIf(a == b, "selected") },
}).ParseFS(templateFS, "templates/index.html"))

func attrIf(ok bool, attr string) template.HTMLAttr {
	if ok {
		return template.HTMLAttr(attr)
	}
	return ""
}

// dangerPercentage выше этого процента полоса риска показывает предупреждение.
const dangerPercentage = 50

// pageData данные шаблона страницы.
type pageData struct {
	Form       formValues
	Options    map[string][]string
	Reference  []clinical.ReferenceEntry
	Source     string
	ModelReady bool

	Submitted  bool
	InputError string
	Advisories []advisory.Message
	Assessment *scoring.Assessment
	Danger     bool
	ModelError string
	Hint       string
}

// formValues значения полей формы в строковом виде.
type formValues struct {
	Age            string
	Sex            string
	ChestPain      string
	RestingBP      string
	Cholesterol    string
	FastingSugar   bool
	RestingECG     string
	MaxHeartRate   string
	ExerciseAngina bool
	STDepression   string
	STSlope        string
	MajorVessels   string
	Thalassemia    string
}

func formFromObservation(o clinical.Observation) formValues {
	return formValues{
		Age:            strconv.Itoa(o.Age),
		Sex:            o.Sex.String(),
		ChestPain:      o.ChestPain.String(),
		RestingBP:      strconv.Itoa(o.RestingBP),
		Cholesterol:    strconv.Itoa(o.Cholesterol),
		FastingSugar:   o.FastingBloodSugarHigh,
		RestingECG:     o.RestingECG.String(),
		MaxHeartRate:   strconv.Itoa(o.MaxHeartRate),
		ExerciseAngina: o.ExerciseAngina,
		STDepression:   strconv.FormatFloat(o.STDepression, 'f', 1, 64),
		STSlope:        o.STSlope.String(),
		MajorVessels:   strconv.Itoa(o.MajorVessels),
		Thalassemia:    o.Thalassemia.String(),
	}
}

func formFromRequest(r *http.Request) formValues {
	get := func(name string) string { return strings.TrimSpace(r.PostFormValue(name)) }
	on := func(name string) bool {
		v := get(name)
		return v == "on" || v == "true" || v == "1"
	}
	return formValues{
		Age:            get("age"),
		Sex:            get("sex"),
		ChestPain:      get("chest_pain_type"),
		RestingBP:      get("resting_bp"),
		Cholesterol:    get("cholesterol"),
		FastingSugar:   on("fasting_blood_sugar_high"),
		RestingECG:     get("resting_ecg"),
		MaxHeartRate:   get("max_heart_rate"),
		ExerciseAngina: on("exercise_angina"),
		STDepression:   get("st_depression"),
		STSlope:        get("st_slope"),
		MajorVessels:   get("major_vessels"),
		Thalassemia:    get("thalassemia"),
	}
}

// observation разбирает значения формы. Диапазоны проверяет Assess.
func (f formValues) observation() (clinical.Observation, error) {
	var (
		o   clinical.Observation
		err error
	)
	ints := []struct {
		field string
		raw   string
		dst   *int
	}{
		{"age", f.Age, &o.Age},
		{"resting_bp", f.RestingBP, &o.RestingBP},
		{"cholesterol", f.Cholesterol, &o.Cholesterol},
		{"max_heart_rate", f.MaxHeartRate, &o.MaxHeartRate},
		{"major_vessels", f.MajorVessels, &o.MajorVessels},
	}
	for _, in := range ints {
		if *in.dst, err = strconv.Atoi(in.raw); err != nil {
			return o, &clinical.InputValidationError{Field: in.field, Value: in.raw, Reason: "must be an integer"}
		}
	}
	if o.STDepression, err = strconv.ParseFloat(f.STDepression, 64); err != nil {
		return o, &clinical.InputValidationError{Field: "st_depression", Value: f.STDepression, Reason: "must be a number"}
	}

	if o.Sex, err = clinical.ParseSex(f.Sex); err != nil {
		return o, err
	}
	if o.ChestPain, err = clinical.ParseChestPainType(f.ChestPain); err != nil {
		return o, err
	}
	if o.RestingECG, err = clinical.ParseRestingECG(f.RestingECG); err != nil {
		return o, err
	}
	if o.STSlope, err = clinical.ParseSTSlope(f.STSlope); err != nil {
		return o, err
	}
	if o.Thalassemia, err = clinical.ParseThalassemia(f.Thalassemia); err != nil {
		return o, err
	}
	o.FastingBloodSugarHigh = f.FastingSugar
	o.ExerciseAngina = f.ExerciseAngina
	return o, nil
}

// Web HTML-форма оценки риска.
type Web struct {
	service *assessment.Service
	logger  *slog.Logger
}

func NewWeb(service *assessment.Service, logger *slog.Logger) *Web {
	if logger == nil {
		logger = slog.Default()
	}
	return &Web{service: service, logger: logger}
}

// RegisterRoutes регистрирует страницу формы
func (wb *Web) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", wb.Index).Methods(http.MethodGet)
	router.HandleFunc("/", wb.Submit).Methods(http.MethodPost)
}

// Index пустая форма со значениями по умолчанию.
func (wb *Web) Index(w http.ResponseWriter, r *http.Request) {
	wb.render(w, wb.page(formFromObservation(clinical.DefaultObservation())))
}

// Submit оценивает наблюдение из формы и показывает результат.
func (wb *Web) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	form := formFromRequest(r)
	data := wb.page(form)
	data.Submitted = true

	o, err := form.observation()
	if err != nil {
		data.InputError = err.Error()
		wb.render(w, data)
		return
	}

	result, err := wb.service.Assess(r.Context(), o)
	if result != nil {
		data.Advisories = result.Advisories
		data.Assessment = result.Assessment
	}

	var (
		ive *clinical.InputValidationError
		se  *scoring.ScoringError
	)
	switch {
	case err == nil:
		data.Danger = result.Assessment.Percentage > dangerPercentage
	case errors.As(err, &ive):
		data.InputError = ive.Error()
	case errors.Is(err, scoring.ErrModelUnavailable):
		data.ModelReady = false
	case errors.As(err, &se):
		data.ModelError = se.Error()
		data.Hint = se.Hint()
	default:
		wb.logger.Error("form assessment failed", slog.String("error", err.Error()))
		data.ModelError = err.Error()
	}
	wb.render(w, data)
}

func (wb *Web) page(form formValues) pageData {
	return pageData{
		Form: form,
		Options: map[string][]string{
			"sex":             clinical.SexOptions(),
			"chest_pain_type": clinical.ChestPainOptions(),
			"resting_ecg":     clinical.RestingECGOptions(),
			"st_slope":        clinical.STSlopeOptions(),
			"thalassemia":     clinical.ThalassemiaOptions(),
		},
		Reference:  clinical.Reference,
		Source:     clinical.ReferenceSource,
		ModelReady: wb.service.ModelAvailable(),
	}
}

func (wb *Web) render(w http.ResponseWriter, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		wb.logger.Error("failed to render page", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
