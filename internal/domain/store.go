package domain

import "context"

// Store captures the keyed persistence contract: per-collection get by key
// (a miss returns nil, nil), insert/overwrite by key, and full-value listing
// for the linear scans the service performs. Implementations must make
// AppendEmission atomic per user key so concurrent appends to the same
// record list stay race-free under concurrent request dispatch.
type Store interface {
	GetUser(ctx context.Context, userID string) (*UserData, error)
	PutUser(ctx context.Context, user UserData) error
	Users(ctx context.Context) ([]UserData, error)

	// AppendEmission appends a record to the user's list and enqueues the
	// matching outbox event in the same atomic step. Returns ErrUserNotFound
	// when the profile is absent.
	AppendEmission(ctx context.Context, userID string, record EmissionRecord) (*UserData, error)

	PutActivityType(ctx context.Context, activity ActivityType) error
	ActivityTypes(ctx context.Context) ([]ActivityType, error)

	GetBenchmark(ctx context.Context, userID string) (*BenchmarkData, error)
	PutBenchmark(ctx context.Context, benchmark BenchmarkData) error
	Benchmarks(ctx context.Context) ([]BenchmarkData, error)

	GetSettings(ctx context.Context, userID string) (*UserSettings, error)
	PutSettings(ctx context.Context, settings UserSettings) error

	GetHistory(ctx context.Context, userID string) (*UserActivityHistory, error)
	PutHistory(ctx context.Context, history UserActivityHistory) error
}
