package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-invoice/internal/db"
)

type fakeQueries struct {
	mu           sync.Mutex
	usersByEmail map[string]db.User
	usersByID    map[string]db.User
	failCreate   error
	failGet      error
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{
		usersByEmail: make(map[string]db.User),
		usersByID:    make(map[string]db.User),
	}
}

func (f *fakeQueries) CreateUser(_ context.Context, arg db.CreateUserParams) (db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return db.User{}, f.failCreate
	}
	if _, exists := f.usersByEmail[arg.Email]; exists {
		return db.User{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	}
	id := uuid.New()
	now := time.Now().UTC()
	user := db.User{
		ID:           pgtype.UUID{Bytes: id, Valid: true},
		Name:         arg.Name,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		CreatedAt:    pgtype.Timestamptz{Time: now, Valid: true},
		UpdatedAt:    pgtype.Timestamptz{Time: now, Valid: true},
	}
	f.usersByEmail[arg.Email] = user
	f.usersByID[id.String()] = user
	return user, nil
}

func (f *fakeQueries) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return db.User{}, f.failGet
	}
	user, ok := f.usersByEmail[email]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeQueries) GetUserByID(_ context.Context, id pgtype.UUID) (db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return db.User{}, f.failGet
	}
	user, ok := f.usersByID[uuidString(id)]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return user, nil
}

var errBoom = errors.New("boom")

func newTestService(queries Queries) *Service {
	svc, err := NewService(Config{
		Queries:        queries,
		Secret:         "super-secret-key",
		AccessTokenTTL: time.Hour,
	})
	if err != nil {
		panic(err)
	}
	return svc
}
