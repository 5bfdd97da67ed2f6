package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Krimson/heart-risk/internal/advisory"
	"github.com/Krimson/heart-risk/internal/assessment"
	"github.com/Krimson/heart-risk/internal/canary"
	"github.com/Krimson/heart-risk/internal/clinical"
	"github.com/Krimson/heart-risk/internal/features"
	"github.com/Krimson/heart-risk/internal/scoring"
)

// maxBodyBytes предел размера тела запроса.
const maxBodyBytes = 64 << 10

// AssessmentResponse ответ на запрос оценки.
type AssessmentResponse struct {
	ID         string              `json:"id"`
	Advisories []advisory.Message  `json:"advisories"`
	Assessment *scoring.Assessment `json:"assessment,omitempty"`
	Features   *FeaturesResponse   `json:"features,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// FeaturesResponse закодированный вектор признаков.
type FeaturesResponse struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

// AdvisoriesResponse сообщения валидатора.
type AdvisoriesResponse struct {
	Advisories []advisory.Message `json:"advisories"`
}

// LayoutResponse раскладка вектора признаков.
type LayoutResponse struct {
	Width   int              `json:"width"`
	Columns []string         `json:"columns"`
	Groups  []features.Group `json:"groups"`
}

// ReferenceResponse справочник показателей и допустимые значения полей.
type ReferenceResponse struct {
	Source  string                    `json:"source"`
	Entries []clinical.ReferenceEntry `json:"entries"`
	Options map[string][]string       `json:"options"`
}

// HealthResponse состояние сервиса.
type HealthResponse struct {
	Status         string         `json:"status"`
	ModelAvailable bool           `json:"model_available"`
	Canary         *canary.Result `json:"canary,omitempty"`
}

// ErrorResponse тело ответа с ошибкой.
type ErrorResponse struct {
	Error      string             `json:"error"`
	Field      string             `json:"field,omitempty"`
	Hint       string             `json:"hint,omitempty"`
	Advisories []advisory.Message `json:"advisories,omitempty"`
}

// Handler JSON API оценки риска.
type Handler struct {
	service *assessment.Service
	probe   *canary.Probe
	logger  *slog.Logger
}

// NewHandler probe может быть nil.
func NewHandler(service *assessment.Service, probe *canary.Probe, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, probe: probe, logger: logger}
}

// RegisterRoutes регистрирует маршруты API
func (h *Handler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/assessments", h.CreateAssessment).Methods(http.MethodPost)
	api.HandleFunc("/advisories", h.CheckAdvisories).Methods(http.MethodPost)
	api.HandleFunc("/features/encode", h.EncodeFeatures).Methods(http.MethodPost)
	api.HandleFunc("/features/layout", h.GetLayout).Methods(http.MethodGet)
	api.HandleFunc("/reference", h.GetReference).Methods(http.MethodGet)
	api.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
}

// CreateAssessment оценивает риск по клиническому наблюдению
// @Summary Оценить риск сердечно-сосудистого заболевания
// @Description Проверяет правдоподобие данных, кодирует признаки и вызывает классификатор. Наблюдение не сохраняется.
// @Tags Assessment
// @Accept json
// @Produce json
// @Param request body clinical.Observation true "Клиническое наблюдение"
// @Success 200 {object} AssessmentResponse "Результат оценки"
// @Failure 400 {object} ErrorResponse "Некорректные данные"
// @Failure 500 {object} ErrorResponse "Ошибка классификатора"
// @Failure 503 {object} ErrorResponse "Модель не загружена"
// @Router /api/assessments [post]
func (h *Handler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	o, ok := h.decodeObservation(w, r)
	if !ok {
		return
	}

	result, err := h.service.Assess(r.Context(), o)
	if err != nil {
		h.respondAssessmentError(w, result, err)
		return
	}

	respondJSON(w, http.StatusOK, AssessmentResponse{
		ID:         result.ID,
		Advisories: result.Advisories,
		Assessment: result.Assessment,
		Features:   featuresResponse(result.Features),
		CreatedAt:  result.CreatedAt,
	})
}

func (h *Handler) respondAssessmentError(w http.ResponseWriter, result *assessment.Result, err error) {
	var advisories []advisory.Message
	if result != nil {
		advisories = result.Advisories
	}

	var (
		ive *clinical.InputValidationError
		se  *scoring.ScoringError
	)
	switch {
	case errors.As(err, &ive):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: ive.Error(), Field: ive.Field})
	case errors.Is(err, scoring.ErrModelUnavailable):
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:      "model unavailable",
			Advisories: advisories,
		})
	case errors.As(err, &se):
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:      se.Error(),
			Hint:       se.Hint(),
			Advisories: advisories,
		})
	default:
		h.logger.Error("assessment failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "assessment failed")
	}
}

// CheckAdvisories только проверка правдоподобия
// @Summary Проверить правдоподобие показателей
// @Description Возвращает рекомендательные сообщения валидатора. Модель не требуется.
// @Tags Assessment
// @Accept json
// @Produce json
// @Param request body clinical.Observation true "Клиническое наблюдение"
// @Success 200 {object} AdvisoriesResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/advisories [post]
func (h *Handler) CheckAdvisories(w http.ResponseWriter, r *http.Request) {
	o, ok := h.decodeObservation(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, AdvisoriesResponse{Advisories: h.service.Advise(o)})
}

// EncodeFeatures кодирует наблюдение в вектор признаков
// @Summary Закодировать наблюдение
// @Tags Features
// @Accept json
// @Produce json
// @Param request body clinical.Observation true "Клиническое наблюдение"
// @Success 200 {object} FeaturesResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/features/encode [post]
func (h *Handler) EncodeFeatures(w http.ResponseWriter, r *http.Request) {
	o, ok := h.decodeObservation(w, r)
	if !ok {
		return
	}
	if err := o.Validate(); err != nil {
		h.respondAssessmentError(w, nil, err)
		return
	}
	respondJSON(w, http.StatusOK, featuresResponse(features.Encode(o)))
}

// GetLayout раскладка вектора признаков
// @Summary Порядок колонок модели
// @Tags Features
// @Produce json
// @Success 200 {object} LayoutResponse
// @Router /api/features/layout [get]
func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, LayoutResponse{
		Width:   features.Width,
		Columns: features.Columns[:],
		Groups:  features.Groups,
	})
}

// GetReference справочник показателей
// @Summary Значение клинических показателей
// @Tags Reference
// @Produce json
// @Success 200 {object} ReferenceResponse
// @Router /api/reference [get]
func (h *Handler) GetReference(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ReferenceResponse{
		Source:  clinical.ReferenceSource,
		Entries: clinical.Reference,
		Options: map[string][]string{
			"sex":             clinical.SexOptions(),
			"chest_pain_type": clinical.ChestPainOptions(),
			"resting_ecg":     clinical.RestingECGOptions(),
			"st_slope":        clinical.STSlopeOptions(),
			"thalassemia":     clinical.ThalassemiaOptions(),
		},
	})
}

// GetHealth состояние сервиса
// @Summary Проверка состояния
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", ModelAvailable: h.service.ModelAvailable()}
	if !resp.ModelAvailable {
		resp.Status = "degraded"
	}
	if h.probe != nil {
		if last, ok := h.probe.Last(); ok {
			resp.Canary = &last
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) decodeObservation(w http.ResponseWriter, r *http.Request) (clinical.Observation, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return clinical.Observation{}, false
	}

	o, err := clinical.DecodeJSON(data)
	if err != nil {
		var ive *clinical.InputValidationError
		if errors.As(err, &ive) {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: ive.Error(), Field: ive.Field})
		} else {
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return clinical.Observation{}, false
	}
	return o, true
}

func featuresResponse(v features.Vector) *FeaturesResponse {
	return &FeaturesResponse{Columns: features.Columns[:], Values: v.Slice()}
}

// ===== Утилиты =====

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
