package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"historando-backend/internal/middleware"
	"historando-backend/internal/models"
	"historando-backend/internal/repository"
)

// Token lifetimes for the walker onboarding and session flows. Refresh
// tokens rotate on every use, so the 7-day window restarts whenever the
// app is actually opened.
const (
	verifyTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
	resendCooldown  = 60 * time.Second

	bcryptCost = 12
)

// Redis keys for the opaque auth tokens. Access tokens are stateless
// JWTs; everything else lives here.
func verifyKey(token string) string     { return "email_verify:" + token }
func refreshKey(token string) string    { return "refresh:" + token }
func resendKey(userID uuid.UUID) string { return "resend_limit:" + userID.String() }

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthService owns registration, email verification, login, token
// rotation and Google sign-in. It never returns raw bcrypt or token
// errors to callers that could leak whether an email exists.
type AuthService struct {
	userRepo       *repository.UserRepo
	redis          *redis.Client
	jwt            *middleware.JWTAuth
	email          *EmailService
	googleClientID string
}

func NewAuthService(userRepo *repository.UserRepo, redisClient *redis.Client, jwt *middleware.JWTAuth, email *EmailService, googleClientID string) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		redis:          redisClient,
		jwt:            jwt,
		email:          email,
		googleClientID: googleClientID,
	}
}

// Register creates an unverified walker account and emails a one-time
// verification link. The token is also returned so the handler can
// expose it in dev mode.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error) {
	if fields := validateRegistration(req); len(fields) > 0 {
		return nil, "", &ValidationError{Fields: fields}
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, "", &ConflictError{Message: "Email already in use"}
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		IsVerified:   false,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.storeVerifyToken(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	go s.email.SendVerificationEmail(user.Email, token)

	return user, token, nil
}

func validateRegistration(req models.RegisterRequest) map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(req.FullName) == "" {
		fields["full_name"] = "Full name is required"
	}
	if !emailPattern.MatchString(req.Email) {
		fields["email"] = "Invalid email format"
	}
	if err := validatePassword(req.Password); err != nil {
		fields["password"] = err.Error()
	}
	return fields
}

// storeVerifyToken mints a fresh verification token for the user. Old
// tokens are not revoked; they simply expire.
func (s *AuthService) storeVerifyToken(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := randomHex(32)
	if err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, verifyKey(token), userID.String(), verifyTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("store verification token: %w", err)
	}
	return token, nil
}

// VerifyEmail consumes a verification token and signs the walker in.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.AuthTokens, error) {
	userIDStr, err := s.redis.Get(ctx, verifyKey(token)).Result()
	if err != nil {
		return nil, &NotFoundError{Message: "Invalid or expired verification token"}
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("verification token payload: %w", err)
	}

	if err := s.userRepo.VerifyEmail(ctx, userID); err != nil {
		return nil, err
	}
	s.redis.Del(ctx, verifyKey(token))

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Same message as a bad password so the endpoint cannot be
			// used to enumerate accounts.
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		return nil, err
	}

	if !user.IsVerified {
		return nil, &ForbiddenError{Message: "Please verify your email before signing in."}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, &UnauthorizedError{Message: "Invalid email or password"}
	}

	return s.signIn(ctx, user)
}

// RefreshToken rotates a refresh token: the presented token is burned
// before new ones are issued, so a replayed token fails.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	userIDStr, err := s.redis.Get(ctx, refreshKey(refreshToken)).Result()
	if err != nil {
		return nil, &UnauthorizedError{Message: "Invalid or expired refresh token. Please log in again."}
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("refresh token payload: %w", err)
	}

	s.redis.Del(ctx, refreshKey(refreshToken))

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}
	return s.issueTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.redis.Del(ctx, refreshKey(refreshToken)).Err()
}

// ResendVerification re-sends the verification email, at most once per
// minute per account.
func (s *AuthService) ResendVerification(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", &NotFoundError{Message: "Email not found"}
	}
	if user.IsVerified {
		return "", &ConflictError{Message: "Email is already verified"}
	}

	exists, _ := s.redis.Exists(ctx, resendKey(user.ID)).Result()
	if exists > 0 {
		return "", &RateLimitError{Message: "Please wait 60 seconds before requesting another verification email"}
	}

	token, err := s.storeVerifyToken(ctx, user.ID)
	if err != nil {
		return "", err
	}
	s.redis.Set(ctx, resendKey(user.ID), "1", resendCooldown)
	go s.email.SendVerificationEmail(user.Email, token)

	return token, nil
}

// signIn is the shared tail of every successful credential check.
func (s *AuthService) signIn(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	if !user.IsActive {
		return nil, &UnauthorizedError{Message: "Account is deactivated"}
	}
	s.userRepo.UpdateLastLogin(ctx, user.ID)
	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.AuthTokens, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := randomHex(64)
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, refreshKey(refreshToken), user.ID.String(), refreshTokenTTL).Err(); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(middleware.AccessTokenTTL / time.Second),
	}, nil
}

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

var googleHTTPClient = &http.Client{Timeout: 10 * time.Second}

type googleTokenInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Aud           string `json:"aud"`
}

// GoogleLogin exchanges a Google ID token for HistoRando tokens. Three
// cases, in order: a returning Google user, an email/password user who
// gets their Google account linked, and a brand-new walker.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*models.AuthTokens, error) {
	if s.googleClientID == "" {
		return nil, &ValidationError{Fields: map[string]string{"google": "Google sign-in is not configured"}}
	}

	info, err := s.fetchGoogleTokenInfo(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if info.Aud != s.googleClientID {
		return nil, &UnauthorizedError{Message: "Google token audience mismatch"}
	}
	if info.Email == "" || info.Sub == "" {
		return nil, &ValidationError{Fields: map[string]string{"google": "Google account missing email"}}
	}

	user, err := s.userRepo.GetByGoogleID(ctx, info.Sub)
	if err == nil {
		return s.signIn(ctx, user)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	user, err = s.userRepo.GetByEmail(ctx, info.Email)
	if err == nil {
		if !user.IsActive {
			return nil, &UnauthorizedError{Message: "Account is deactivated"}
		}
		s.userRepo.LinkGoogle(ctx, user.ID, info.Sub)
		s.userRepo.UpdateLastLogin(ctx, user.ID)
		return s.issueTokens(ctx, user)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	newUser := &models.User{
		Email:        info.Email,
		FullName:     info.Name,
		IsVerified:   true, // Google already verified the address
		AuthProvider: "google",
		GoogleID:     &info.Sub,
	}
	if info.Picture != "" {
		newUser.AvatarURL = &info.Picture
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, newUser)
}

func (s *AuthService) fetchGoogleTokenInfo(ctx context.Context, idToken string) (*googleTokenInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		googleTokenInfoURL+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, err
	}
	resp, err := googleHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify Google token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UnauthorizedError{Message: "Invalid Google token"}
	}
	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode Google token info: %w", err)
	}
	return &info, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return fmt.Errorf("Password must be at least 8 characters")
	}
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			return nil
		}
	}
	return fmt.Errorf("Password must contain at least one number")
}
