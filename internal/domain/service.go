package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/carbon/internal/observability"
)

const (
	msgBelowBenchmark  = "Your total emissions are lower than your benchmark. Keep it up!"
	msgAboveBenchmark  = "Your total emissions are higher than your benchmark. You can still turn it around!"
	msgConservationTip = "Please consider reducing energy consumption, using public transportation, and or choosing sustainable food options to reduce emissions."

	// reportThreshold is the fixed total above which the report switches to
	// the conservation recommendation.
	reportThreshold uint64 = 1000
)

// Service orchestrates all carbon tracking operations over a Store.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// RegisterUser creates a profile for the caller with an empty record list.
// Usernames are unique across users; the check is a linear scan over the
// profile collection.
func (s *Service) RegisterUser(ctx context.Context, userID, username string) (*UserData, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(username) == "" {
		return nil, ErrInvalidInput
	}

	users, err := s.store.Users(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range users {
		if existing.Username == username {
			return nil, ErrDuplicateUsername
		}
	}

	user := UserData{
		UserID:           userID,
		Username:         username,
		EmissionsRecords: []EmissionRecord{},
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.PutUser(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GenerateUserSettings upserts the caller's preferences. An explicit false
// for notifications is a valid value; only the units field is required.
func (s *Service) GenerateUserSettings(ctx context.Context, userID, preferredUnits string, notificationsEnabled bool) (*UserSettings, error) {
	if strings.TrimSpace(preferredUnits) == "" {
		return nil, ErrInvalidInput
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	settings := UserSettings{
		UserID:               userID,
		PreferredUnits:       preferredUnits,
		NotificationsEnabled: notificationsEnabled,
	}
	if err := s.store.PutSettings(ctx, settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetUserSettings returns the stored preferences for the caller.
func (s *Service) GetUserSettings(ctx context.Context, userID string) (*UserSettings, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, ErrUserNotFound
	}
	return settings, nil
}

// AddActivityTypeInput captures the catalog entry payload from the API layer.
type AddActivityTypeInput struct {
	Name            string
	Description     string
	EmissionsFactor float64
	Rate            uint64
	ReductionPct    uint64
}

// AddActivityType stores a new factor catalog entry under a fresh identifier.
// The reduction percentage is accepted as given, including values outside
// the 0-100 range.
func (s *Service) AddActivityType(ctx context.Context, input AddActivityTypeInput) (*ActivityType, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, ErrInvalidInput
	}
	if input.EmissionsFactor <= 0 || input.Rate == 0 {
		return nil, ErrInvalidInput
	}

	activity := ActivityType{
		ID:              uuid.NewString(),
		Name:            input.Name,
		Description:     input.Description,
		EmissionsFactor: input.EmissionsFactor,
		Rate:            input.Rate,
		ReductionPct:    input.ReductionPct,
	}
	if err := s.store.PutActivityType(ctx, activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// CalculateEmissions derives emissions from the named catalog entry's stored
// rate and appends a fresh record to the caller's list. The user's record
// list is untouched when the activity lookup misses.
func (s *Service) CalculateEmissions(ctx context.Context, userID, activityName, description string) (*EmissionRecord, error) {
	if strings.TrimSpace(activityName) == "" {
		return nil, ErrInvalidInput
	}

	activity, err := s.findActivityByName(ctx, activityName)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}

	record := s.newRecord(activity.Name, description, EmissionsForActivity(*activity), "")
	return s.appendRecord(ctx, userID, record)
}

// CalculateEmissionsForQuantity multiplies a caller-supplied quantity by the
// named entry's fractional factor and appends the resulting record.
func (s *Service) CalculateEmissionsForQuantity(ctx context.Context, userID, activityName, description string, quantity uint64, date string) (*EmissionRecord, error) {
	if strings.TrimSpace(activityName) == "" || strings.TrimSpace(description) == "" || quantity == 0 || strings.TrimSpace(date) == "" {
		return nil, ErrInvalidInput
	}

	activity, err := s.findActivityByName(ctx, activityName)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrFactorNotFound
	}

	record := s.newRecord(activity.Name, description, EmissionsForQuantity(quantity, activity.EmissionsFactor), date)
	return s.appendRecord(ctx, userID, record)
}

// GetTotalEmissions sums the caller's record list; an empty list totals zero.
func (s *Service) GetTotalEmissions(ctx context.Context, userID string) (uint64, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrUserNotFound
	}
	return totalEmissions(user.EmissionsRecords), nil
}

// GetEmissionsRecords returns the full record list in append order.
func (s *Service) GetEmissionsRecords(ctx context.Context, userID string) ([]EmissionRecord, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	records := make([]EmissionRecord, len(user.EmissionsRecords))
	copy(records, user.EmissionsRecords)
	return records, nil
}

// GetHistoricalData returns the emissions values of records whose activity
// label matches, preserving list order. No matches yields an empty slice,
// not an error.
func (s *Service) GetHistoricalData(ctx context.Context, userID, activityName string) ([]uint64, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	values := make([]uint64, 0)
	for _, record := range user.EmissionsRecords {
		if record.ActivityType == activityName {
			values = append(values, record.Emissions)
		}
	}
	return values, nil
}

// AddBenchmarkData upserts the caller's benchmark, one per user.
func (s *Service) AddBenchmarkData(ctx context.Context, userID, name string, threshold uint64) (*BenchmarkData, error) {
	if strings.TrimSpace(name) == "" || threshold == 0 {
		return nil, ErrInvalidInput
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	benchmark := BenchmarkData{
		UserID:             userID,
		BenchmarkName:      name,
		EmissionsThreshold: threshold,
	}
	if err := s.store.PutBenchmark(ctx, benchmark); err != nil {
		return nil, err
	}
	return &benchmark, nil
}

// CompareEmissions reports whether the caller's total sits above or below
// their stored benchmark threshold.
func (s *Service) CompareEmissions(ctx context.Context, userID string) (string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	benchmark, err := s.store.GetBenchmark(ctx, userID)
	if err != nil {
		return "", err
	}
	if benchmark == nil {
		return "", ErrBenchmarkNotFound
	}

	if totalEmissions(user.EmissionsRecords) > benchmark.EmissionsThreshold {
		return msgAboveBenchmark, nil
	}
	return msgBelowBenchmark, nil
}

// GetRecommendations compares current emissions against a reduction target.
// A user with no emissions yet gets the generic conservation tip rather than
// a divide-by-zero.
func (s *Service) GetRecommendations(ctx context.Context, userID string, targetReduction uint64) ([]string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	current := totalEmissions(user.EmissionsRecords)
	if current == 0 || targetReduction >= current {
		return []string{msgConservationTip}, nil
	}

	reductionPct := float64(current-targetReduction) / float64(current) * 100
	if reductionPct >= 10 {
		return []string{fmt.Sprintf("Great job %s! You are making a very significant impact on the environment, and for future generations.", user.Username)}, nil
	}
	return []string{msgConservationTip}, nil
}

// GenerateReport renders the fixed total-plus-recommendation text block.
func (s *Service) GenerateReport(ctx context.Context, userID string) (string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	total := totalEmissions(user.EmissionsRecords)
	recommendation := "Great job! You are making a very significant impact on the environment, and for future generations."
	if total > reportThreshold {
		recommendation = msgConservationTip
	}

	return fmt.Sprintf("Total emissions: %d kg CO2 equivalent\n\nRecommendations:\n%s", total, recommendation), nil
}

// GenerateUserActivityHistory overwrites the caller's stored snapshot for
// one activity label wholesale.
func (s *Service) GenerateUserActivityHistory(ctx context.Context, userID, activityName string, history []EmissionRecord) (*UserActivityHistory, error) {
	if strings.TrimSpace(activityName) == "" || len(history) == 0 {
		return nil, ErrInvalidInput
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	snapshot := UserActivityHistory{
		UserID:       userID,
		ActivityType: activityName,
		History:      history,
	}
	if err := s.store.PutHistory(ctx, snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// RebuildUserActivityHistory regenerates the snapshot from the user's stored
// records. The event consumer calls this so snapshots track newly recorded
// emissions without a client round trip.
func (s *Service) RebuildUserActivityHistory(ctx context.Context, userID, activityName string) (*UserActivityHistory, error) {
	if strings.TrimSpace(activityName) == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	matched := make([]EmissionRecord, 0)
	for _, record := range user.EmissionsRecords {
		if record.ActivityType == activityName {
			matched = append(matched, record)
		}
	}

	snapshot := UserActivityHistory{
		UserID:       userID,
		ActivityType: activityName,
		History:      matched,
	}
	if err := s.store.PutHistory(ctx, snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *Service) appendRecord(ctx context.Context, userID string, record EmissionRecord) (*EmissionRecord, error) {
	if _, err := s.store.AppendEmission(ctx, userID, record); err != nil {
		return nil, err
	}
	observability.RecordEmissionLogged(record.RecordedAt)
	return &record, nil
}

func (s *Service) newRecord(activityName, description string, emissions uint64, date string) EmissionRecord {
	now := time.Now().UTC()
	if date == "" {
		date = now.Format(time.RFC3339)
	}
	return EmissionRecord{
		ID:           uuid.NewString(),
		ActivityType: activityName,
		Description:  description,
		Emissions:    emissions,
		Date:         date,
		RecordedAt:   now,
	}
}

// findActivityByName scans the catalog; first match in iteration order wins.
func (s *Service) findActivityByName(ctx context.Context, name string) (*ActivityType, error) {
	activities, err := s.store.ActivityTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, activity := range activities {
		if activity.Name == name {
			return &activity, nil
		}
	}
	return nil, nil
}

func (s *Service) requireUser(ctx context.Context, userID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}

func totalEmissions(records []EmissionRecord) uint64 {
	var total uint64
	for _, record := range records {
		total += record.Emissions
	}
	return total
}
