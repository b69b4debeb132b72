package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/db"
)

const defaultAccessTTL = time.Hour

// Queries is the subset of the database layer used for accounts.
type Queries interface {
	CreateUser(ctx context.Context, arg db.CreateUserParams) (db.User, error)
	GetUserByEmail(ctx context.Context, email string) (db.User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (db.User, error)
}

// Service registers users, verifies credentials and issues access tokens.
type Service struct {
	queries   Queries
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Queries        Queries
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// User represents a safe subset of the user model returned to clients.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResult bundles token material returned after a successful login.
type LoginResult struct {
	User         User      `json:"user"`
	AccessToken  string    `json:"token"`
	AccessExpiry time.Time `json:"expires_at"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-invoice"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "invoice-client"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		queries:   cfg.Queries,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates a new user. Input is expected to be validated by the caller.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.queries.CreateUser(ctx, db.CreateUserParams{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return convertUser(created), nil
}

// Login verifies credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	normalized := normalizeEmail(email)
	if normalized == "" || password == "" {
		return LoginResult{}, invalidCredentials()
	}

	dbUser, err := s.queries.GetUserByEmail(ctx, normalized)
	if errors.Is(err, pgx.ErrNoRows) {
		return LoginResult{}, invalidCredentials()
	}
	if err != nil {
		return LoginResult{}, common.PersistenceFailure(fmt.Errorf("get user by email: %w", err))
	}

	ok, err := argon2id.ComparePasswordAndHash(password, dbUser.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, invalidCredentials()
	}

	userID := uuidString(dbUser.ID)
	if userID == "" {
		return LoginResult{}, errors.New("auth: invalid user identifier")
	}

	accessToken, accessExpiry, err := s.signAccessToken(userID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}

	return LoginResult{
		User:         convertUser(dbUser),
		AccessToken:  accessToken,
		AccessExpiry: accessExpiry,
	}, nil
}

// Me fetches the current authenticated user.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	dbUser, err := s.lookup(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return convertUser(dbUser), nil
}

// Identity resolves the issuer of an invoice. Unknown or malformed ids are
// reported as Unauthenticated, store errors as PersistenceFailure.
func (s *Service) Identity(ctx context.Context, userID string) (common.Identity, error) {
	dbUser, err := s.lookup(ctx, userID)
	if err != nil {
		return common.Identity{}, err
	}
	return common.Identity{
		ID:    uuidString(dbUser.ID),
		Name:  dbUser.Name,
		Email: dbUser.Email,
	}, nil
}

func (s *Service) lookup(ctx context.Context, userID string) (db.User, error) {
	if strings.TrimSpace(userID) == "" {
		return db.User{}, common.Unauthenticated(nil)
	}
	id, err := pgUUIDFromString(userID)
	if err != nil {
		return db.User{}, common.Unauthenticated(err)
	}
	dbUser, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.User{}, common.Unauthenticated(err)
	}
	if err != nil {
		return db.User{}, common.PersistenceFailure(fmt.Errorf("get user by id: %w", err))
	}
	return dbUser, nil
}

// ParseAccessToken validates an access token and returns the subject (user ID).
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError(common.CodeUnauthorized, "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", fmt.Errorf("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(userID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(userID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func invalidCredentials() *common.AppError {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func convertUser(u db.User) User {
	return User{
		ID:        uuidString(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: toTime(u.CreatedAt),
	}
}

func pgUUIDFromString(value string) (pgtype.UUID, error) {
	var id pgtype.UUID
	if err := id.Scan(value); err != nil {
		return pgtype.UUID{}, err
	}
	return id, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	u, err := uuid.FromBytes(id.Bytes[:])
	if err != nil {
		return ""
	}
	return u.String()
}

func toTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}
