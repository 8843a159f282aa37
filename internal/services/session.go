package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"todo-manager/internal/models"
	"todo-manager/internal/repositories"
	"todo-manager/internal/session"
)

const DefaultIssuer = "todo-manager"

type SessionService interface {
	Start(ctx context.Context, user *models.User) (string, error)
	Resolve(ctx context.Context, token string) (*models.User, error)
	End(ctx context.Context, token string) error
}

type SessionConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type SessionServiceImpl struct {
	store  session.Store
	users  repositories.UserRepository
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	Name      string `json:"name"`
	jwt.RegisteredClaims
}

func NewSessionService(store session.Store, users repositories.UserRepository, cfg SessionConfig) *SessionServiceImpl {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &SessionServiceImpl{
		store:  store,
		users:  users,
		secret: []byte(cfg.Secret),
		issuer: issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for issuing and checking tokens.
func (s *SessionServiceImpl) WithClock(now func() time.Time) *SessionServiceImpl {
	s.now = now
	return s
}

func (s *SessionServiceImpl) Start(ctx context.Context, user *models.User) (string, error) {
	sid, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}

	now := s.now().UTC()
	record := session.Record{
		UserID:    user.ID,
		UserName:  user.Name,
		CreatedAt: now,
	}
	if err := s.store.Save(ctx, sid.String(), record, s.ttl); err != nil {
		return "", err
	}

	claims := sessionClaims{
		SessionID: sid.String(),
		Name:      user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatUint(uint64(user.ID), 10),
			Issuer:   s.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (s *SessionServiceImpl) parse(token string, opts ...jwt.ParserOption) (*sessionClaims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, errors.New("token has no session id")
	}
	return &claims, nil
}

// Resolve maps a token to its user. Tokens that do not verify, sessions that
// were ended and users that no longer exist all give ErrNoSession. Store
// failures are returned as they are.
func (s *SessionServiceImpl) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	claims, err := s.parse(token)
	if err != nil {
		return nil, ErrNoSession
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrNoSession
	}

	record, err := s.store.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if uint64(record.UserID) != userID {
		return nil, ErrNoSession
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	return user, nil
}

// End removes the session behind token. Tokens that do not verify are
// ignored, so calling End twice is fine.
func (s *SessionServiceImpl) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil
	}
	return s.store.Delete(ctx, claims.SessionID)
}
