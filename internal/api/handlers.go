// Package api exposes HTTP handlers for the carbon service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/carbon/internal/auth"
	"example.com/carbon/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/users", h.users)
	mux.HandleFunc("/v1/settings", h.settings)
	mux.HandleFunc("/v1/activity-types", h.activityTypes)
	mux.HandleFunc("/v1/emissions", h.emissions)
	mux.HandleFunc("/v1/emissions/total", h.totalEmissions)
	mux.HandleFunc("/v1/emissions/historical", h.historicalData)
	mux.HandleFunc("/v1/benchmark", h.benchmark)
	mux.HandleFunc("/v1/benchmark/comparison", h.compareEmissions)
	mux.HandleFunc("/v1/recommendations", h.recommendations)
	mux.HandleFunc("/v1/report", h.report)
	mux.HandleFunc("/v1/activity-history", h.activityHistory)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) users(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := requireScope(w, r, auth.ScopeEmissionsWrite)
	if !ok {
		return
	}

	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	user, err := h.service.RegisterUser(r.Context(), claims.Subject, req.Username)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserView(*user))
}

func (h *Handler) settings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		h.upsertSettings(w, r)
	case http.MethodGet:
		h.getSettings(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) upsertSettings(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeEmissionsWrite)
	if !ok {
		return
	}

	var req UserSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if strings.TrimSpace(req.PreferredUnits) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "preferred_units is required")
		return
	}

	settings, err := h.service.GenerateUserSettings(r.Context(), claims.Subject, req.PreferredUnits, req.NotificationsEnabled)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSettingsView(*settings))
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireRead(w, r)
	if !ok {
		return
	}

	settings, err := h.service.GetUserSettings(r.Context(), claims.Subject)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSettingsView(*settings))
}

func (h *Handler) activityTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	if _, ok := requireScope(w, r, auth.ScopeCatalogWrite); !ok {
		return
	}

	var req AddActivityTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activity, err := h.service.AddActivityType(r.Context(), domain.AddActivityTypeInput{
		Name:            req.Name,
		Description:     req.Description,
		EmissionsFactor: req.EmissionsFactor,
		Rate:            req.Rate,
		ReductionPct:    req.ReductionPct,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toActivityTypeView(*activity))
}

func (h *Handler) emissions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.recordEmission(w, r)
	case http.MethodGet:
		h.listEmissions(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) recordEmission(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeEmissionsWrite)
	if !ok {
		return
	}

	var req RecordEmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	var record *domain.EmissionRecord
	var err error
	if req.Quantity > 0 {
		record, err = h.service.CalculateEmissionsForQuantity(r.Context(), claims.Subject, req.ActivityType, req.Description, req.Quantity, req.Date)
	} else {
		record, err = h.service.CalculateEmissions(r.Context(), claims.Subject, req.ActivityType, req.Description)
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRecordView(*record))
}

func (h *Handler) listEmissions(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireRead(w, r)
	if !ok {
		return
	}

	records, err := h.service.GetEmissionsRecords(r.Context(), claims.Subject)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	items := make([]EmissionRecordView, 0, len(records))
	for _, record := range records {
		items = append(items, toRecordView(record))
	}
	writeJSON(w, http.StatusOK, ListEmissionsResponse{Items: items})
}

func (h *Handler) totalEmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := requireRead(w, r)
	if !ok {
		return
	}

	total, err := h.service.GetTotalEmissions(r.Context(), claims.Subject)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TotalEmissionsResponse{TotalEmissions: total, Unit: "kg CO2e"})
}

func (h *Handler) historicalData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := requireRead(w, r)
	if !ok {
		return
	}

	activityType := r.URL.Query().Get("activity_type")
	if strings.TrimSpace(activityType) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing activity_type parameter")
		return
	}

	values, err := h.service.GetHistoricalData(r.Context(), claims.Subject, activityType)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, HistoricalDataResponse{ActivityType: activityType, Emissions: values})
}

func (h *Handler) benchmark(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := requireScope(w, r, auth.ScopeEmissionsWrite)
	if !ok {
		return
	}

	var req BenchmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	benchmark, err := h.service.AddBenchmarkData(r.Context(), claims.Subject, req.Name, req.EmissionsThreshold)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBenchmarkView(*benchmark))
}

func (h *Handler) compareEmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := requireRead(w, r)
	if !ok {
		return
	}

	message, err := h.service.CompareEmissions(r.Context(), claims.Subject)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: message})
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := requireRead(w, r)
	if !ok {
		return
	}

	var target uint64
	if raw := r.URL.Query().Get("target_reduction"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "invalid target_reduction")
			return
		}
		target = parsed
	}

	recommendations, err := h.service.GetRecommendations(r.Context(), claims.Subject, target)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecommendationsResponse{Recommendations: recommendations})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := requireRead(w, r)
	if !ok {
		return
	}

	report, err := h.service.GenerateReport(r.Context(), claims.Subject)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ReportResponse{Report: report})
}

func (h *Handler) activityHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := requireScope(w, r, auth.ScopeEmissionsWrite)
	if !ok {
		return
	}

	var req ActivityHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	history := make([]domain.EmissionRecord, 0, len(req.History))
	for _, record := range req.History {
		history = append(history, domain.EmissionRecord{
			ID:           record.ID,
			ActivityType: record.ActivityType,
			Description:  record.Description,
			Emissions:    record.Emissions,
			Date:         record.Date,
			RecordedAt:   record.RecordedAt,
		})
	}

	snapshot, err := h.service.GenerateUserActivityHistory(r.Context(), claims.Subject, req.ActivityType, history)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toHistoryView(*snapshot))
}

func requireScope(w http.ResponseWriter, r *http.Request, scope string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(scope) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
		return nil, false
	}
	return claims, true
}

func requireRead(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	if !claims.HasScope(auth.ScopeEmissionsRead) && !claims.HasScope(auth.ScopeEmissionsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+auth.ScopeEmissionsRead+" required")
		return nil, false
	}
	return claims, true
}

func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrActivityNotFound),
		errors.Is(err, domain.ErrFactorNotFound),
		errors.Is(err, domain.ErrBenchmarkNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// RegisterUserRequest is the payload for POST /v1/users.
type RegisterUserRequest struct {
	Username string `json:"username"`
}

// Validate ensures request correctness.
func (r RegisterUserRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return errors.New("username is required")
	}
	return nil
}

// UserSettingsRequest is the payload for PUT /v1/settings.
type UserSettingsRequest struct {
	PreferredUnits       string `json:"preferred_units"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// AddActivityTypeRequest is the payload for POST /v1/activity-types.
type AddActivityTypeRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	EmissionsFactor float64 `json:"emissions_factor"`
	Rate            uint64  `json:"rate"`
	ReductionPct    uint64  `json:"reduction_pct"`
}

// Validate ensures request correctness.
func (r AddActivityTypeRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return errors.New("description is required")
	}
	if r.EmissionsFactor <= 0 {
		return errors.New("emissions_factor must be > 0")
	}
	if r.Rate == 0 {
		return errors.New("rate must be > 0")
	}
	return nil
}

// RecordEmissionRequest is the payload for POST /v1/emissions. A zero
// quantity selects the rate-based calculation from the catalog entry;
// otherwise emissions derive from quantity times the entry's factor.
type RecordEmissionRequest struct {
	ActivityType string `json:"activity_type"`
	Description  string `json:"description"`
	Quantity     uint64 `json:"quantity,omitempty"`
	Date         string `json:"date,omitempty"`
}

// Validate ensures request correctness.
func (r RecordEmissionRequest) Validate() error {
	if strings.TrimSpace(r.ActivityType) == "" {
		return errors.New("activity_type is required")
	}
	if r.Quantity > 0 {
		if strings.TrimSpace(r.Description) == "" {
			return errors.New("description is required")
		}
		if strings.TrimSpace(r.Date) == "" {
			return errors.New("date is required")
		}
	}
	return nil
}

// BenchmarkRequest is the payload for PUT /v1/benchmark.
type BenchmarkRequest struct {
	Name               string `json:"name"`
	EmissionsThreshold uint64 `json:"emissions_threshold"`
}

// Validate ensures request correctness.
func (r BenchmarkRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.EmissionsThreshold == 0 {
		return errors.New("emissions_threshold must be > 0")
	}
	return nil
}

// ActivityHistoryRequest is the payload for PUT /v1/activity-history.
type ActivityHistoryRequest struct {
	ActivityType string               `json:"activity_type"`
	History      []EmissionRecordView `json:"history"`
}

// Validate ensures request correctness.
func (r ActivityHistoryRequest) Validate() error {
	if strings.TrimSpace(r.ActivityType) == "" {
		return errors.New("activity_type is required")
	}
	if len(r.History) == 0 {
		return errors.New("history is required")
	}
	return nil
}

// UserView exposes a registered profile.
type UserView struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Records   int       `json:"records"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSettingsView exposes stored preferences.
type UserSettingsView struct {
	UserID               string `json:"user_id"`
	PreferredUnits       string `json:"preferred_units"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// ActivityTypeView exposes a catalog entry.
type ActivityTypeView struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	EmissionsFactor float64 `json:"emissions_factor"`
	Rate            uint64  `json:"rate"`
	ReductionPct    uint64  `json:"reduction_pct"`
}

// EmissionRecordView exposes one logged record.
type EmissionRecordView struct {
	ID           string    `json:"id"`
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	Emissions    uint64    `json:"emissions"`
	Date         string    `json:"date"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// ListEmissionsResponse packages list results.
type ListEmissionsResponse struct {
	Items []EmissionRecordView `json:"items"`
}

// TotalEmissionsResponse carries the aggregate.
type TotalEmissionsResponse struct {
	TotalEmissions uint64 `json:"total_emissions"`
	Unit           string `json:"unit"`
}

// HistoricalDataResponse carries matching emissions values in list order.
type HistoricalDataResponse struct {
	ActivityType string   `json:"activity_type"`
	Emissions    []uint64 `json:"emissions"`
}

// BenchmarkView exposes the stored benchmark.
type BenchmarkView struct {
	UserID             string `json:"user_id"`
	Name               string `json:"name"`
	EmissionsThreshold uint64 `json:"emissions_threshold"`
}

// MessageResponse wraps a single human-readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// RecommendationsResponse wraps recommendation strings.
type RecommendationsResponse struct {
	Recommendations []string `json:"recommendations"`
}

// ReportResponse wraps the generated report text.
type ReportResponse struct {
	Report string `json:"report"`
}

// ActivityHistoryView exposes the stored snapshot.
type ActivityHistoryView struct {
	UserID       string               `json:"user_id"`
	ActivityType string               `json:"activity_type"`
	History      []EmissionRecordView `json:"history"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toUserView(user domain.UserData) UserView {
	return UserView{
		UserID:    user.UserID,
		Username:  user.Username,
		Records:   len(user.EmissionsRecords),
		CreatedAt: user.CreatedAt,
	}
}

func toSettingsView(settings domain.UserSettings) UserSettingsView {
	return UserSettingsView{
		UserID:               settings.UserID,
		PreferredUnits:       settings.PreferredUnits,
		NotificationsEnabled: settings.NotificationsEnabled,
	}
}

func toActivityTypeView(activity domain.ActivityType) ActivityTypeView {
	return ActivityTypeView{
		ID:              activity.ID,
		Name:            activity.Name,
		Description:     activity.Description,
		EmissionsFactor: activity.EmissionsFactor,
		Rate:            activity.Rate,
		ReductionPct:    activity.ReductionPct,
	}
}

func toRecordView(record domain.EmissionRecord) EmissionRecordView {
	return EmissionRecordView{
		ID:           record.ID,
		ActivityType: record.ActivityType,
		Description:  record.Description,
		Emissions:    record.Emissions,
		Date:         record.Date,
		RecordedAt:   record.RecordedAt,
	}
}

func toBenchmarkView(benchmark domain.BenchmarkData) BenchmarkView {
	return BenchmarkView{
		UserID:             benchmark.UserID,
		Name:               benchmark.BenchmarkName,
		EmissionsThreshold: benchmark.EmissionsThreshold,
	}
}

func toHistoryView(history domain.UserActivityHistory) ActivityHistoryView {
	items := make([]EmissionRecordView, 0, len(history.History))
	for _, record := range history.History {
		items = append(items, toRecordView(record))
	}
	return ActivityHistoryView{
		UserID:       history.UserID,
		ActivityType: history.ActivityType,
		History:      items,
	}
}
