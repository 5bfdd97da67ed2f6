package httpapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krimson/heart-risk/internal/advisory"
	"github.com/Krimson/heart-risk/internal/scoring"
)

func healthyForm() url.Values {
	return url.Values{
		"age":             {"30"},
		"sex":             {"male"},
		"chest_pain_type": {"typical"},
		"resting_bp":      {"120"},
		"cholesterol":     {"200"},
		"resting_ecg":     {"normal"},
		"max_heart_rate":  {"160"},
		"st_depression":   {"0"},
		"st_slope":        {"upsloping"},
		"major_vessels":   {"0"},
		"thalassemia":     {"normal"},
	}
}

func submitForm(t *testing.T, h http.Handler, form url.Values) *goquery.Document {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestWebIndex_Defaults(t *testing.T) {
	h := newTestRouter(t, scoring.NewScorer(nil), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	age, _ := doc.Find(`input[name="age"]`).Attr("value")
	assert.Equal(t, "50", age)
	chol, _ := doc.Find(`input[name="cholesterol"]`).Attr("value")
	assert.Equal(t, "200", chol)
	sex, _ := doc.Find(`select[name="sex"] option[selected]`).Attr("value")
	assert.Equal(t, "male", sex)
	thal, _ := doc.Find(`select[name="thalassemia"] option[selected]`).Attr("value")
	assert.Equal(t, "normal", thal)
	assert.Equal(t, 4, doc.Find(`select[name="chest_pain_type"] option`).Length())

	assert.Equal(t, 1, doc.Find("#model-missing").Length())
	assert.Zero(t, doc.Find("#result").Length())
	assert.Contains(t, doc.Find("#source").Text(), "Cleveland")
	assert.Greater(t, doc.Find("#reference tr").Length(), 1)
}

func TestWebSubmit_Healthy(t *testing.T) {
	h := newTestRouter(t, fixtureScorer(t), nil)

	doc := submitForm(t, h, healthyForm())
	assert.Zero(t, doc.Find("#model-missing").Length())
	assert.Equal(t, "LOW RISK: 12.5%", strings.TrimSpace(doc.Find("#verdict").Text()))
	assert.Equal(t, "Within the safe range", doc.Find("#bar-text").Text())
	assert.Zero(t, doc.Find(".advisory").Length())
}

func TestWebSubmit_HighRiskWithAdvisory(t *testing.T) {
	h := newTestRouter(t, fixtureScorer(t), nil)

	form := healthyForm()
	form.Set("major_vessels", "2")
	form.Set("max_heart_rate", "70")
	form.Set("exercise_angina", "on")

	doc := submitForm(t, h, form)
	assert.Equal(t, "HIGH RISK: 75.0%", strings.TrimSpace(doc.Find("#verdict").Text()))
	assert.Contains(t, doc.Find("#conclusion").Text(), "See a doctor")
	assert.Equal(t, "Danger warning", doc.Find("#bar-text").Text())

	rule, _ := doc.Find(".advisory").First().Attr("data-rule")
	assert.Equal(t, advisory.RuleExertionalAnginaLow, rule)
	_, checked := doc.Find(`input[name="exercise_angina"]`).Attr("checked")
	assert.True(t, checked)
}

func TestWebSubmit_InputError(t *testing.T) {
	h := newTestRouter(t, fixtureScorer(t), nil)

	form := healthyForm()
	form.Set("age", "abc")
	doc := submitForm(t, h, form)
	assert.Contains(t, doc.Find("#input-error").Text(), "age")
	assert.Zero(t, doc.Find("#verdict").Length())

	form = healthyForm()
	form.Set("cholesterol", "650")
	doc = submitForm(t, h, form)
	assert.Contains(t, doc.Find("#input-error").Text(), "cholesterol")
	val, _ := doc.Find(`input[name="cholesterol"]`).Attr("value")
	assert.Equal(t, "650", val)
}

func TestWebSubmit_ModelErrors(t *testing.T) {
	h := newTestRouter(t, scoring.NewScorer(nil), nil)
	form := healthyForm()
	form.Set("age", "25")
	form.Set("cholesterol", "300")
	doc := submitForm(t, h, form)
	assert.Equal(t, 1, doc.Find("#model-missing").Length())
	assert.Equal(t, 1, doc.Find(".advisory").Length())
	assert.Zero(t, doc.Find("#verdict").Length())

	h = newTestRouter(t, scoring.NewScorer(brokenClassifier{}), nil)
	doc = submitForm(t, h, healthyForm())
	assert.Contains(t, doc.Find("#model-error").Text(), "expecting 18")
	assert.Equal(t, scoring.LayoutHint, doc.Find("#hint").Text())
}
