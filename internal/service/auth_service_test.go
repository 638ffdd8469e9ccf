package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tripwise-in/tripwise-api/internal/models"
	appErrors "github.com/tripwise-in/tripwise-api/pkg/errors"
)

type userRepoStub struct {
	users  map[string]*models.User
	tokens map[string]*models.RefreshToken
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]*models.User), tokens: make(map[string]*models.RefreshToken)}
}

func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (s *userRepoStub) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	s.tokens[token.Token] = token
	return nil
}

func (s *userRepoStub) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := s.tokens[token]; ok {
		copy := *stored
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range s.tokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (s *userRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, token := range s.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func newAuthServiceForTest(repo *userRepoStub) (*AuthService, *auditStub) {
	audit := &auditStub{}
	svc := NewAuthService(repo, audit, nil, nil, AuthConfig{
		AccessTokenSecret:  "test_secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "tripwise-test",
	})
	return svc, audit
}

func seedUser(repo *userRepoStub, role models.UserRole, active bool) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	user := &models.User{
		ID:           "user-1",
		Email:        "admin@tripwise.in",
		PasswordHash: string(hash),
		FullName:     "Admin One",
		Role:         role,
		Active:       active,
	}
	repo.users[user.ID] = user
	return user
}

func TestLoginSuccessIssuesTokens(t *testing.T) {
	repo := newUserRepoStub()
	seedUser(repo, models.RoleAdmin, true)
	svc, audit := newAuthServiceForTest(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@tripwise.in", Password: "s3cret!"})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.Equal(t, models.RoleAdmin, res.User.Role)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionLogin, audit.logs[0].Action)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newUserRepoStub()
	seedUser(repo, models.RoleAdmin, true)
	svc, _ := newAuthServiceForTest(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@tripwise.in", Password: "wrong"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newUserRepoStub()
	seedUser(repo, models.RoleAdmin, false)
	svc, _ := newAuthServiceForTest(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@tripwise.in", Password: "s3cret!"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestLegacySuperadminRoleNormalized(t *testing.T) {
	repo := newUserRepoStub()
	user := seedUser(repo, models.UserRole("Super Admin"), true)
	svc, _ := newAuthServiceForTest(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "s3cret!"})
	require.NoError(t, err)
	require.Equal(t, models.RoleSuperadmin, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	require.True(t, claims.IsSuperadmin())
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newUserRepoStub()
	seedUser(repo, models.RoleAdmin, true)
	svc, _ := newAuthServiceForTest(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@tripwise.in", Password: "s3cret!"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := newUserRepoStub()
	seedUser(repo, models.RoleAdmin, true)
	svc, _ := newAuthServiceForTest(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@tripwise.in", Password: "s3cret!"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, "user-1"))

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	repo := newUserRepoStub()
	seedUser(repo, models.RoleAdmin, true)
	svc, _ := newAuthServiceForTest(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@tripwise.in", Password: "s3cret!"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, "someone-else")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	repo := newUserRepoStub()
	svc, _ := newAuthServiceForTest(repo)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
