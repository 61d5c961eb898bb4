// Package postgres provides pgx-backed persistence for the carbon service.
//
// Each collection is a keyed JSONB document table, preserving the simple
// key-value contract while letting Postgres own durability. Read-modify-write
// sequences on user profiles run under SELECT ... FOR UPDATE so concurrent
// requests for the same key serialize.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/carbon/internal/domain"
	"example.com/carbon/internal/events"
	"example.com/carbon/internal/outbox"
)

// Store implements domain.Store and outbox.Source over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetUser implements domain.Store.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.UserData, error) {
	return getDoc[domain.UserData](ctx, s.pool, `SELECT doc FROM users WHERE user_id=$1`, userID)
}

// PutUser implements domain.Store.
func (s *Store) PutUser(ctx context.Context, user domain.UserData) error {
	return putDoc(ctx, s.pool, `INSERT INTO users (user_id, doc) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET doc = EXCLUDED.doc`, user.UserID, user)
}

// Users implements domain.Store.
func (s *Store) Users(ctx context.Context) ([]domain.UserData, error) {
	return listDocs[domain.UserData](ctx, s.pool, `SELECT doc FROM users ORDER BY created_at`)
}

// AppendEmission appends the record and inserts the outbox event inside a
// single transaction.
func (s *Store) AppendEmission(ctx context.Context, userID string, record domain.EmissionRecord) (*domain.UserData, error) {
	var updated *domain.UserData
	err := s.withUserLock(ctx, userID, func(tx pgx.Tx, user *domain.UserData) error {
		user.EmissionsRecords = append(user.EmissionsRecords, record)
		if err := writeUser(ctx, tx, *user); err != nil {
			return err
		}

		payload, err := json.Marshal(events.EmissionRecorded{
			RecordID:     record.ID,
			UserID:       userID,
			ActivityType: record.ActivityType,
			Description:  record.Description,
			Emissions:    record.Emissions,
			Date:         record.Date,
			RecordedAt:   record.RecordedAt,
		})
		if err != nil {
			return err
		}

		const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
            VALUES ($1,$2,$3,$4,$5,$6,$7)`
		if _, err := tx.Exec(ctx, stmt,
			"user",
			userID,
			events.TypeEmissionRecorded,
			events.TopicEmissions,
			events.SubjectEmissionRecorded,
			userID,
			payload,
		); err != nil {
			return err
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// PutActivityType implements domain.Store.
func (s *Store) PutActivityType(ctx context.Context, activity domain.ActivityType) error {
	return putDoc(ctx, s.pool, `INSERT INTO activity_types (id, doc) VALUES ($1, $2)
        ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`, activity.ID, activity)
}

// ActivityTypes implements domain.Store.
func (s *Store) ActivityTypes(ctx context.Context) ([]domain.ActivityType, error) {
	return listDocs[domain.ActivityType](ctx, s.pool, `SELECT doc FROM activity_types ORDER BY created_at`)
}

// GetBenchmark implements domain.Store.
func (s *Store) GetBenchmark(ctx context.Context, userID string) (*domain.BenchmarkData, error) {
	return getDoc[domain.BenchmarkData](ctx, s.pool, `SELECT doc FROM benchmarks WHERE user_id=$1`, userID)
}

// PutBenchmark implements domain.Store.
func (s *Store) PutBenchmark(ctx context.Context, benchmark domain.BenchmarkData) error {
	return putDoc(ctx, s.pool, `INSERT INTO benchmarks (user_id, doc) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET doc = EXCLUDED.doc`, benchmark.UserID, benchmark)
}

// Benchmarks implements domain.Store.
func (s *Store) Benchmarks(ctx context.Context) ([]domain.BenchmarkData, error) {
	return listDocs[domain.BenchmarkData](ctx, s.pool, `SELECT doc FROM benchmarks ORDER BY created_at`)
}

// GetSettings implements domain.Store.
func (s *Store) GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	return getDoc[domain.UserSettings](ctx, s.pool, `SELECT doc FROM user_settings WHERE user_id=$1`, userID)
}

// PutSettings implements domain.Store.
func (s *Store) PutSettings(ctx context.Context, settings domain.UserSettings) error {
	return putDoc(ctx, s.pool, `INSERT INTO user_settings (user_id, doc) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET doc = EXCLUDED.doc`, settings.UserID, settings)
}

// GetHistory implements domain.Store.
func (s *Store) GetHistory(ctx context.Context, userID string) (*domain.UserActivityHistory, error) {
	return getDoc[domain.UserActivityHistory](ctx, s.pool, `SELECT doc FROM activity_history WHERE user_id=$1`, userID)
}

// PutHistory implements domain.Store.
func (s *Store) PutHistory(ctx context.Context, history domain.UserActivityHistory) error {
	return putDoc(ctx, s.pool, `INSERT INTO activity_history (user_id, doc) VALUES ($1, $2)
        ON CONFLICT (user_id) DO UPDATE SET doc = EXCLUDED.doc`, history.UserID, history)
}

// FetchPending implements outbox.Source using FOR UPDATE SKIP LOCKED so
// multiple dispatchers never claim the same batch.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]outbox.Message, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const query = `SELECT event_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload
        FROM outbox
        WHERE published_at IS NULL
        ORDER BY event_id
        LIMIT $1
        FOR UPDATE SKIP LOCKED`

	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]outbox.Message, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var msg outbox.Message
		if err = rows.Scan(&msg.EventID, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &msg.Topic, &msg.SchemaSubject, &msg.PartitionKey, &msg.Payload); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
		ids = append(ids, msg.EventID)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, tx.Rollback(ctx)
	}

	if _, err = tx.Exec(ctx, `UPDATE outbox SET claimed_at = NOW() WHERE event_id = ANY($1)`, ids); err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return messages, nil
}

// MarkPublished implements outbox.Source.
func (s *Store) MarkPublished(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET published_at = NOW() WHERE event_id = ANY($1)`, ids)
	return err
}

func (s *Store) withUserLock(ctx context.Context, userID string, fn func(pgx.Tx, *domain.UserData) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var raw []byte
	row := tx.QueryRow(ctx, `SELECT doc FROM users WHERE user_id=$1 FOR UPDATE`, userID)
	if err = row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = domain.ErrUserNotFound
		}
		return err
	}

	var user domain.UserData
	if err = json.Unmarshal(raw, &user); err != nil {
		return fmt.Errorf("decode user %s: %w", userID, err)
	}

	if err = fn(tx, &user); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

func writeUser(ctx context.Context, tx pgx.Tx, user domain.UserData) error {
	doc, err := json.Marshal(user)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE users SET doc=$2 WHERE user_id=$1`, user.UserID, doc)
	return err
}

func getDoc[T any](ctx context.Context, pool *pgxpool.Pool, query, key string) (*T, error) {
	var raw []byte
	row := pool.QueryRow(ctx, query, key)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &value, nil
}

func putDoc(ctx context.Context, pool *pgxpool.Pool, stmt, key string, value any) error {
	doc, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, stmt, key, doc)
	return err
}

func listDocs[T any](ctx context.Context, pool *pgxpool.Pool, query string) ([]T, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var value T
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, rows.Err()
}
