package domain_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/carbon/internal/domain"
	"example.com/carbon/internal/store/memory"
)

func newService(t *testing.T) (*domain.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return domain.NewService(store), store
}

func registerUser(t *testing.T, service *domain.Service, userID, username string) {
	t.Helper()
	_, err := service.RegisterUser(context.Background(), userID, username)
	require.NoError(t, err)
}

func addActivity(t *testing.T, service *domain.Service, name string, factor float64, rate, reduction uint64) {
	t.Helper()
	_, err := service.AddActivityType(context.Background(), domain.AddActivityTypeInput{
		Name:            name,
		Description:     name + " emissions",
		EmissionsFactor: factor,
		Rate:            rate,
		ReductionPct:    reduction,
	})
	require.NoError(t, err)
}

func TestRegisterUserRejectsDuplicateUsername(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	first, err := service.RegisterUser(ctx, "user-1", "casey")
	require.NoError(t, err)
	require.Equal(t, "casey", first.Username)
	require.Empty(t, first.EmissionsRecords)

	_, err = service.RegisterUser(ctx, "user-2", "casey")
	require.ErrorIs(t, err, domain.ErrDuplicateUsername)

	// The original profile is untouched by the failed registration.
	records, err := service.GetEmissionsRecords(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestRegisterUserValidatesInput(t *testing.T) {
	service, _ := newService(t)

	_, err := service.RegisterUser(context.Background(), "user-1", "  ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.RegisterUser(context.Background(), "", "casey")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGenerateUserSettingsUpsertsIncludingFalse(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")

	settings, err := service.GenerateUserSettings(ctx, "user-1", "metric", true)
	require.NoError(t, err)
	require.True(t, settings.NotificationsEnabled)

	// An explicit false is a valid stored value, not a missing field.
	settings, err = service.GenerateUserSettings(ctx, "user-1", "imperial", false)
	require.NoError(t, err)
	require.False(t, settings.NotificationsEnabled)

	stored, err := service.GetUserSettings(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "imperial", stored.PreferredUnits)
	require.False(t, stored.NotificationsEnabled)
}

func TestGetUserSettingsMissing(t *testing.T) {
	service, _ := newService(t)

	_, err := service.GetUserSettings(context.Background(), "nobody")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestAddActivityTypeValidation(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	_, err := service.AddActivityType(ctx, domain.AddActivityTypeInput{Name: "", Description: "d", EmissionsFactor: 1, Rate: 1})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.AddActivityType(ctx, domain.AddActivityTypeInput{Name: "n", Description: "d", EmissionsFactor: 0, Rate: 1})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.AddActivityType(ctx, domain.AddActivityTypeInput{Name: "n", Description: "d", EmissionsFactor: 1, Rate: 0})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCalculateEmissionsAppendsRecord(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")
	addActivity(t, service, "commute", 2.0, 100, 10)

	record, err := service.CalculateEmissions(ctx, "user-1", "commute", "daily drive")
	require.NoError(t, err)
	require.Equal(t, uint64(180), record.Emissions)
	require.NotEmpty(t, record.ID)
	require.NotEmpty(t, record.Date)

	records, err := service.GetEmissionsRecords(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, record.ID, records[0].ID)
}

func TestCalculateEmissionsUnknownActivityLeavesUserUntouched(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")

	_, err := service.CalculateEmissions(ctx, "user-1", "spaceflight", "weekend trip")
	require.ErrorIs(t, err, domain.ErrActivityNotFound)

	records, err := service.GetEmissionsRecords(ctx, "user-1")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestCalculateEmissionsForQuantity(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")
	addActivity(t, service, "beef", 27.0, 1, 0)

	record, err := service.CalculateEmissionsForQuantity(ctx, "user-1", "beef", "bbq", 3, "2026-08-01")
	require.NoError(t, err)
	require.Equal(t, uint64(81), record.Emissions)
	require.Equal(t, "2026-08-01", record.Date)
}

func TestCalculateEmissionsForQuantityUnknownFactor(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")

	_, err := service.CalculateEmissionsForQuantity(ctx, "user-1", "beef", "bbq", 3, "2026-08-01")
	require.ErrorIs(t, err, domain.ErrFactorNotFound)
}

func TestCalculateEmissionsForQuantityValidation(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")
	addActivity(t, service, "beef", 27.0, 1, 0)

	_, err := service.CalculateEmissionsForQuantity(ctx, "user-1", "beef", "bbq", 0, "2026-08-01")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.CalculateEmissionsForQuantity(ctx, "user-1", "beef", "", 3, "2026-08-01")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.CalculateEmissionsForQuantity(ctx, "user-1", "beef", "bbq", 3, "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetTotalEmissions(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")
	addActivity(t, service, "commute", 1.0, 50, 0)

	total, err := service.GetTotalEmissions(ctx, "user-1")
	require.NoError(t, err)
	require.Zero(t, total)

	for i := 0; i < 3; i++ {
		_, err := service.CalculateEmissions(ctx, "user-1", "commute", "drive")
		require.NoError(t, err)
	}

	total, err = service.GetTotalEmissions(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, uint64(150), total)
}

func TestGetHistoricalDataFiltersByActivity(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")
	addActivity(t, service, "commute", 1.0, 50, 0)
	addActivity(t, service, "flight", 2.0, 400, 0)

	_, err := service.CalculateEmissions(ctx, "user-1", "commute", "drive")
	require.NoError(t, err)
	_, err = service.CalculateEmissions(ctx, "user-1", "flight", "holiday")
	require.NoError(t, err)
	_, err = service.CalculateEmissions(ctx, "user-1", "commute", "drive")
	require.NoError(t, err)

	values, err := service.GetHistoricalData(ctx, "user-1", "commute")
	require.NoError(t, err)
	require.Equal(t, []uint64{50, 50}, values)

	// No matches is an empty slice, not an error.
	values, err = service.GetHistoricalData(ctx, "user-1", "sailing")
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestCompareEmissionsFlipsAtThreshold(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")
	addActivity(t, service, "commute", 1.0, 100, 0)

	_, err := service.AddBenchmarkData(ctx, "user-1", "national average", 100)
	require.NoError(t, err)

	_, err = service.CalculateEmissions(ctx, "user-1", "commute", "drive")
	require.NoError(t, err)

	// Total equal to the threshold still counts as within the benchmark.
	message, err := service.CompareEmissions(ctx, "user-1")
	require.NoError(t, err)
	require.Contains(t, message, "lower than your benchmark")

	_, err = service.CalculateEmissions(ctx, "user-1", "commute", "drive")
	require.NoError(t, err)

	message, err = service.CompareEmissions(ctx, "user-1")
	require.NoError(t, err)
	require.Contains(t, message, "higher than your benchmark")
}

func TestCompareEmissionsWithoutBenchmark(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")

	_, err := service.CompareEmissions(ctx, "user-1")
	require.ErrorIs(t, err, domain.ErrBenchmarkNotFound)
}

func TestAddBenchmarkDataValidation(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")

	_, err := service.AddBenchmarkData(ctx, "user-1", "", 100)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.AddBenchmarkData(ctx, "user-1", "avg", 0)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.AddBenchmarkData(ctx, "ghost", "avg", 100)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGetRecommendations(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")
	addActivity(t, service, "commute", 1.0, 100, 0)

	// No emissions yet: generic tip, no division by zero.
	recs, err := service.GetRecommendations(ctx, "user-1", 50)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Contains(t, recs[0], "consider reducing energy consumption")

	_, err = service.CalculateEmissions(ctx, "user-1", "commute", "drive")
	require.NoError(t, err)

	// Target of 50 against 100 is a 50% cut: congratulate.
	recs, err = service.GetRecommendations(ctx, "user-1", 50)
	require.NoError(t, err)
	require.Contains(t, recs[0], "Great job casey!")

	// Target of 95 against 100 is only a 5% cut: generic tip.
	recs, err = service.GetRecommendations(ctx, "user-1", 95)
	require.NoError(t, err)
	require.Contains(t, recs[0], "consider reducing energy consumption")

	// Target at or above current total falls back to the tip.
	recs, err = service.GetRecommendations(ctx, "user-1", 100)
	require.NoError(t, err)
	require.Contains(t, recs[0], "consider reducing energy consumption")
}

func TestGenerateReport(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")
	addActivity(t, service, "commute", 1.0, 600, 0)

	report, err := service.GenerateReport(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(report, "Total emissions: 0 kg CO2 equivalent"))
	require.Contains(t, report, "Great job!")

	_, err = service.CalculateEmissions(ctx, "user-1", "commute", "drive")
	require.NoError(t, err)
	_, err = service.CalculateEmissions(ctx, "user-1", "commute", "drive")
	require.NoError(t, err)

	report, err = service.GenerateReport(ctx, "user-1")
	require.NoError(t, err)
	require.Contains(t, report, "Total emissions: 1200 kg CO2 equivalent")
	require.Contains(t, report, "consider reducing energy consumption")
}

func TestGenerateUserActivityHistoryOverwrites(t *testing.T) {
	service, store := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")

	first := []domain.EmissionRecord{{ID: "r-1", ActivityType: "commute", Emissions: 10}}
	_, err := service.GenerateUserActivityHistory(ctx, "user-1", "commute", first)
	require.NoError(t, err)

	second := []domain.EmissionRecord{{ID: "r-2", ActivityType: "flight", Emissions: 400}}
	snapshot, err := service.GenerateUserActivityHistory(ctx, "user-1", "flight", second)
	require.NoError(t, err)
	require.Equal(t, "flight", snapshot.ActivityType)

	stored, err := store.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "flight", stored.ActivityType)
	require.Len(t, stored.History, 1)
	require.Equal(t, "r-2", stored.History[0].ID)
}

func TestRebuildUserActivityHistory(t *testing.T) {
	service, store := newService(t)
	ctx := context.Background()
	registerUser(t, service, "user-1", "casey")
	addActivity(t, service, "commute", 1.0, 50, 0)
	addActivity(t, service, "flight", 2.0, 400, 0)

	_, err := service.CalculateEmissions(ctx, "user-1", "commute", "drive")
	require.NoError(t, err)
	_, err = service.CalculateEmissions(ctx, "user-1", "flight", "holiday")
	require.NoError(t, err)
	_, err = service.CalculateEmissions(ctx, "user-1", "commute", "drive")
	require.NoError(t, err)

	snapshot, err := service.RebuildUserActivityHistory(ctx, "user-1", "commute")
	require.NoError(t, err)
	require.Len(t, snapshot.History, 2)
	for _, record := range snapshot.History {
		require.Equal(t, "commute", record.ActivityType)
	}

	stored, err := store.GetHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "commute", stored.ActivityType)
	require.Len(t, stored.History, 2)
}
