package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
	"github.com/accessctl/identity-api/internal/pkg/metrics"
)

// Client-facing messages. Wrong password and unknown email share one.
const (
	msgCredentialsRequired  = "Username and password are required!"
	msgCredentialsWrong     = "Username or password wrong!"
	msgRefreshRequired      = "Username and refresh token are required!"
	msgRefreshWrong         = "Username or refresh token wrong!"
	msgEmailRequired        = "Email is required!"
	msgTokenRequired        = "Token is required!"
	msgTokenWrong           = "Token wrong!"
	dummyPasswordForTimings = "timing-equaliser-password"
)

// AuthPolicy holds the refresh-token policy switches.
type AuthPolicy struct {
	// RotateRefreshToken issues a new refresh token on every renewal and
	// invalidates the presented one.
	RotateRefreshToken bool
	// RevokeAllOnReuse clears every session of a user who presents a refresh
	// token that was already revoked.
	RevokeAllOnReuse bool
}

// AuthService implements login, renewal, registration and logout.
type AuthService struct {
	users    ports.UserRepository
	sessions *SessionRegistry
	issuer   ports.TokenIssuer
	hasher   ports.PasswordHasher
	policy   AuthPolicy
	log      zerolog.Logger
	now      func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthService(
	users ports.UserRepository,
	sessions *SessionRegistry,
	issuer ports.TokenIssuer,
	hasher ports.PasswordHasher,
	policy AuthPolicy,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		issuer:   issuer,
		hasher:   hasher,
		policy:   policy,
		log:      log,
		now:      time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (domain.UserView, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return domain.UserView{}, domain.Validation("email and password are required")
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.UserView{}, domain.Internal(err, "hash password")
	}

	now := s.now().UTC()
	user := &domain.User{
		Name:           strings.TrimSpace(in.Name),
		Surname:        strings.TrimSpace(in.Surname),
		Lastname:       strings.TrimSpace(in.Lastname),
		Email:          email,
		PasswordDigest: digest,
		Roles:          []string{},
		Groups:         []string{},
		Sessions:       []domain.Session{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return domain.UserView{}, err
	}
	s.log.Info().Str("user_id", created.ID).Str("email", email).Msg("user registered")
	return created.View(), nil
}

// Login checks credentials and opens a new session. Every credential
// failure yields the same Forbidden error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("forbidden").Inc()
		return nil, domain.Forbidden(msgCredentialsRequired)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			s.log.Error().Err(err).Str("email", email).Msg("login lookup failed")
			return nil, domain.Internal(err, "login")
		}
		// Burn a comparison so unknown emails cost the same as wrong passwords.
		s.hasher.Compare(password, s.dummy())
		metrics.LoginsTotal.WithLabelValues("forbidden").Inc()
		s.log.Debug().Str("email", email).Msg("login rejected")
		return nil, domain.Forbidden(msgCredentialsWrong)
	}

	if !s.hasher.Compare(password, user.PasswordDigest) {
		metrics.LoginsTotal.WithLabelValues("forbidden").Inc()
		s.log.Debug().Str("email", email).Msg("login rejected")
		return nil, domain.Forbidden(msgCredentialsWrong)
	}

	pair, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	session := domain.Session{ID: pair.SessionID, Token: pair.RefreshToken, IssuedAt: s.now().UTC()}
	if err := s.sessions.Add(ctx, user.ID, session); err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to persist session")
		return nil, internalUnlessTagged(err, "login")
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("user_id", user.ID).Str("session_id", pair.SessionID).Msg("user logged in")

	return &ports.LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    s.issuer.ExpiresIn(),
	}, nil
}

// Renew trades a live refresh token for a new access token. It does not need
// a valid access token.
func (s *AuthService) Renew(ctx context.Context, email, refreshToken string) (*ports.LoginResult, error) {
	rotated := strconv.FormatBool(s.policy.RotateRefreshToken)
	fail := func(err error) (*ports.LoginResult, error) {
		result := "forbidden"
		if domain.KindOf(err) == domain.KindInternal {
			result = "error"
		}
		metrics.TokenRenewalsTotal.WithLabelValues(result, rotated).Inc()
		return nil, err
	}

	email = domain.NormalizeEmail(email)
	if email == "" || refreshToken == "" {
		return fail(domain.Forbidden(msgRefreshRequired))
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fail(domain.Forbidden(msgRefreshWrong))
		}
		s.log.Error().Err(err).Str("email", email).Msg("renew lookup failed")
		return fail(domain.Internal(err, "renew"))
	}

	session, ok := user.SessionByToken(refreshToken)
	if !ok {
		s.detectReuse(ctx, user.ID, refreshToken)
		return fail(domain.Forbidden(msgRefreshWrong))
	}

	out := &ports.LoginResult{RefreshToken: refreshToken, ExpiresIn: s.issuer.ExpiresIn()}

	if s.policy.RotateRefreshToken {
		next, err := s.issuer.NewRefreshToken()
		if err != nil {
			return fail(err)
		}
		err = s.sessions.Rotate(ctx, user.ID, refreshToken, domain.Session{
			ID:       session.ID,
			Token:    next,
			IssuedAt: s.now().UTC(),
		})
		if err != nil {
			// Lost a race with logout or another renewal.
			if errors.Is(err, domain.ErrNotFound) {
				return fail(domain.Forbidden(msgRefreshWrong))
			}
			return fail(internalUnlessTagged(err, "renew"))
		}
		out.RefreshToken = next
	}

	access, err := s.issuer.IssueAccess(user.ID, user.Email, session.ID)
	if err != nil {
		return fail(err)
	}
	out.AccessToken = access

	metrics.TokenRenewalsTotal.WithLabelValues("success", rotated).Inc()
	s.log.Debug().Str("user_id", user.ID).Str("session_id", session.ID).Msg("access token renewed")
	return out, nil
}

func (s *AuthService) detectReuse(ctx context.Context, userID, token string) {
	owner, revoked := s.sessions.RevokedFor(ctx, token)
	if !revoked || owner != userID {
		return
	}
	metrics.RefreshTokenReuseTotal.Inc()
	s.log.Warn().Str("user_id", userID).Msg("revoked refresh token presented again")
	if !s.policy.RevokeAllOnReuse {
		return
	}
	if err := s.sessions.Clear(ctx, userID, "reuse"); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("failed to clear sessions after reuse")
	}
}

// UserData returns the profile of a logged-in user.
func (s *AuthService) UserData(ctx context.Context, email string) (domain.UserView, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.UserView{}, domain.Forbidden(msgEmailRequired)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return domain.UserView{}, err
	}
	if !user.LoggedIn {
		return domain.UserView{}, domain.Forbidden("User is not logged in")
	}
	return user.View(), nil
}

// Logout closes the session the bearer token belongs to. Closing an already
// closed session succeeds.
func (s *AuthService) Logout(ctx context.Context, claims domain.Claims) error {
	if claims.UserID == "" || claims.SessionID == "" {
		return domain.TokenNotValid(ErrTokenMalformed, "token carries no session")
	}
	if err := s.sessions.RemoveSession(ctx, claims.UserID, claims.SessionID, "logout"); err != nil {
		return internalUnlessTagged(err, "logout")
	}
	s.log.Info().Str("user_id", claims.UserID).Str("session_id", claims.SessionID).Msg("user logged out")
	return nil
}

// LogoutAll closes every session of the bearer's user.
func (s *AuthService) LogoutAll(ctx context.Context, claims domain.Claims) error {
	if claims.UserID == "" {
		return domain.TokenNotValid(ErrTokenMalformed, "token carries no subject")
	}
	if err := s.sessions.Clear(ctx, claims.UserID, "logout_all"); err != nil {
		return internalUnlessTagged(err, "logout")
	}
	s.log.Info().Str("user_id", claims.UserID).Msg("user logged out of all sessions")
	return nil
}

// LogoutByToken accepts either an access token (its session is closed) or a
// refresh token (it is removed from whoever holds it).
func (s *AuthService) LogoutByToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return domain.TokenNotValid(ErrTokenMalformed, "Token %s is not valid", token)
	case looksLikeJWT(token):
		claims, err := s.issuer.Validate(token)
		if err != nil {
			return err
		}
		return s.Logout(ctx, claims)
	case !validRefreshToken(token):
		return domain.TokenNotValid(ErrTokenMalformed, "Token %s is not valid", token)
	}

	owner, err := s.sessions.Remove(ctx, token, "logout_by_token")
	if err != nil {
		return internalUnlessTagged(err, "logout")
	}
	if owner == "" {
		return domain.NotFound("Token not found")
	}
	s.log.Info().Str("user_id", owner).Msg("session closed by token")
	return nil
}

// Reject revokes a refresh token without re-authentication.
func (s *AuthService) Reject(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return domain.Forbidden(msgTokenRequired)
	}
	if !validRefreshToken(refreshToken) {
		return domain.Forbidden(msgTokenWrong)
	}
	owner, err := s.sessions.Remove(ctx, refreshToken, "reject")
	if err != nil {
		return internalUnlessTagged(err, "reject token")
	}
	if owner != "" {
		s.log.Info().Str("user_id", owner).Msg("refresh token rejected")
	}
	return nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		d, err := s.hasher.Hash(dummyPasswordForTimings)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to prepare dummy digest")
		}
		s.dummyDigest = d
	})
	return s.dummyDigest
}

// internalUnlessTagged keeps tagged errors and wraps anything else as internal.
func internalUnlessTagged(err error, op string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.Internal(err, "%s", op)
}
