// Package auth 实现凭据网关：密码凭据与联合身份断言换取会话令牌与档案快照。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cpslearn/dsa-mentor/internal/cache"
	"github.com/cpslearn/dsa-mentor/internal/config"
	"github.com/cpslearn/dsa-mentor/internal/model"
	"github.com/cpslearn/dsa-mentor/internal/repository"
)

var (
	jwtSecretOnce sync.Once
	jwtSecret     string
)

// resolveJwtSecret 获取 JWT 密钥；未配置时生成随机密钥
func resolveJwtSecret(configured string) string {
	jwtSecretOnce.Do(func() {
		if s := strings.TrimSpace(configured); s != "" {
			jwtSecret = s
			return
		}
		randomBytes := make([]byte, 32)
		if _, err := rand.Read(randomBytes); err != nil {
			panic(fmt.Sprintf("failed to generate JWT secret: %v", err))
		}
		jwtSecret = base64.StdEncoding.EncodeToString(randomBytes)
	})
	return jwtSecret
}

// Service 认证服务
type Service struct {
	repo      *repository.Repositories
	cache     *cache.Store
	providers Chain
	cfg       *config.AuthConfig
	secret    string
}

// NewService 创建认证服务。登录按提供方链顺序尝试：
// 主存储优先，主存储不可达时回退本地缓存（可配置关闭）。
func NewService(repo *repository.Repositories, store *cache.Store, cfg *config.AuthConfig, historyLimit int) *Service {
	providers := Chain{NewStoreProvider(repo, historyLimit)}
	if cfg.EnableLocal {
		providers = append(providers, NewCacheProvider(store))
	}
	return &Service{
		repo:      repo,
		cache:     store,
		providers: providers,
		cfg:       cfg,
		secret:    resolveJwtSecret(cfg.JWTSecret),
	}
}

// SignupRequest 注册请求
type SignupRequest struct {
	Email       string            `json:"email" binding:"required,email"`
	Password    string            `json:"password" binding:"required,min=6"`
	FullName    string            `json:"full_name" binding:"required"`
	SkillLevel  string            `json:"skill_level"`
	ProfileData model.ProfileData `json:"profile_data"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// IdentityAssertion 联合身份断言（弹窗/重定向流程的产物）
type IdentityAssertion struct {
	UID           string `json:"uid" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	DisplayName   string `json:"display_name"`
	PhotoURL      string `json:"photo_url"`
	EmailVerified bool   `json:"email_verified"`
}

// LoginResponse 登录/注册响应
type LoginResponse struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	User        *model.User         `json:"user"`
	ChatHistory []*model.ChatRecord `json:"chat_history"`
	Token       string              `json:"token,omitempty"`
}

// userIDFromEmail 由邮箱派生用户 ID
func userIDFromEmail(email string) string {
	id := strings.Replace(email, "@", "_", 1)
	return strings.ReplaceAll(id, ".", "_")
}

// newUser 构造默认档案
func newUser(email, fullName, skillLevel string, profileData model.ProfileData) *model.User {
	if skillLevel == "" {
		skillLevel = model.SkillBeginner
	}
	if fullName == "" {
		fullName = strings.Split(email, "@")[0]
	}
	return &model.User{
		UserID:          userIDFromEmail(email),
		Email:           email,
		FullName:        fullName,
		SkillLevel:      skillLevel,
		IsActive:        true,
		CompletedTopics: []string{},
		Statistics:      model.Statistics{}.AsJSON(),
		ProfileData:     profileData.AsJSON(),
	}
}

// Signup 邮箱密码注册。主存储不可达且启用回退时写入本地缓存。
func (s *Service) Signup(ctx context.Context, req *SignupRequest) (*LoginResponse, error) {
	cost := s.cfg.BcryptCost
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := newUser(req.Email, req.FullName, req.SkillLevel, req.ProfileData)
	user.PasswordHash = string(hash)

	existing, err := s.repo.User.GetUserByEmail(req.Email)
	switch {
	case err == nil && existing != nil:
		return &LoginResponse{Success: false, Message: "User with this email already exists", ChatHistory: []*model.ChatRecord{}}, nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		// 主存储不可达：回退到本地缓存注册
		if !s.cfg.EnableLocal {
			return nil, fmt.Errorf("signup failed: %w", err)
		}
		if cacheErr := s.signupToCache(ctx, user); cacheErr != nil {
			return nil, fmt.Errorf("signup failed: %w", errors.Join(err, cacheErr))
		}
	default:
		if err := s.repo.User.CreateUser(user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}

	return s.establishSession(ctx, user, []*model.ChatRecord{}, "Signup successful")
}

// signupToCache 把新用户写入本地凭据记录
func (s *Service) signupToCache(ctx context.Context, user *model.User) error {
	if existing, err := s.cache.GetLocalUserByEmail(ctx, user.Email); err == nil && existing != nil {
		return ErrEmailTaken
	}
	return s.cache.SetLocalUser(ctx, user.Email, &cache.LocalUser{
		User:         user,
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now(),
	})
}

// Login 邮箱密码登录：提供方链按序尝试，先成功者胜。
// 主存储的瞬时故障在回退成功时不暴露给用户。
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, history, err := s.providers.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidPassword):
			return &LoginResponse{Success: false, Message: "Invalid email or password", ChatHistory: []*model.ChatRecord{}}, nil
		case errors.Is(err, ErrAccountDisabled):
			return &LoginResponse{Success: false, Message: "Account is disabled", ChatHistory: []*model.ChatRecord{}}, nil
		default:
			return nil, fmt.Errorf("login failed: %w", err)
		}
	}

	return s.establishSession(ctx, user, history, "Login successful")
}

// Federated 联合身份换取会话。后端从未见过的账号按默认档案创建。
func (s *Service) Federated(ctx context.Context, assertion *IdentityAssertion) (*LoginResponse, error) {
	if !assertion.EmailVerified {
		return nil, ErrUnverifiedIdentity
	}

	user, err := s.repo.User.GetUserByEmail(assertion.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			// 主存储不可达：尝试本地缓存
			if s.cfg.EnableLocal {
				if record, cacheErr := s.cache.GetLocalUserByEmail(ctx, assertion.Email); cacheErr == nil {
					history, _ := s.cache.GetHistory(ctx, record.User.UserID)
					return s.establishSession(ctx, record.User, history, "Login successful")
				}
			}
			return nil, fmt.Errorf("federated login failed: %w", err)
		}

		// 新账号：默认 beginner、空历史
		user = newUser(assertion.Email, assertion.DisplayName, model.SkillBeginner, model.ProfileData{})
		user.AvatarURL = assertion.PhotoURL
		if createErr := s.repo.User.CreateUser(user); createErr != nil {
			if !s.cfg.EnableLocal {
				return nil, fmt.Errorf("failed to create user: %w", createErr)
			}
			if cacheErr := s.signupToCache(ctx, user); cacheErr != nil {
				return nil, fmt.Errorf("failed to create user: %w", errors.Join(createErr, cacheErr))
			}
		}
		return s.establishSession(ctx, user, []*model.ChatRecord{}, "Login successful")
	}

	history, err := s.repo.History.GetRecordsByUser(user.UserID, 0)
	if err != nil {
		history = nil
	}
	return s.establishSession(ctx, user, history, "Login successful")
}

// establishSession 签发令牌并把档案与历史快照写入本地缓存
func (s *Service) establishSession(ctx context.Context, user *model.User, history []*model.ChatRecord, message string) (*LoginResponse, error) {
	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	if history == nil {
		history = []*model.ChatRecord{}
	}

	// 快照写入失败不阻断登录
	if err := s.cache.SetProfile(ctx, user); err != nil {
		log.Printf("Warning: failed to cache profile for %s: %v", user.UserID, err)
	}
	if err := s.cache.SetHistory(ctx, user.UserID, history); err != nil {
		log.Printf("Warning: failed to cache history for %s: %v", user.UserID, err)
	}
	if err := s.cache.SetCurrentUser(ctx, user.UserID); err != nil {
		log.Printf("Warning: failed to record current user: %v", err)
	}

	return &LoginResponse{
		Success:     true,
		Message:     message,
		User:        user,
		ChatHistory: history,
		Token:       token,
	}, nil
}

// issueToken 签发 7 天有效期的会话令牌
func (s *Service) issueToken(user *model.User) (string, error) {
	ttl := time.Duration(s.cfg.TokenTTL) * time.Hour
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	expiresAt := time.Now().Add(ttl)

	claims := jwt.MapClaims{
		"user_id": user.UserID,
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	// 令牌记录写入失败不阻断（主存储可能正处于回退状态）
	record := &model.AuthToken{
		ID:        uuid.New().String(),
		UserID:    user.UserID,
		Token:     token,
		TokenType: "access_token",
		ExpiresAt: expiresAt,
	}
	if err := s.repo.Auth.CreateToken(record); err != nil {
		log.Printf("Warning: failed to persist token record for %s: %v", user.UserID, err)
	}

	return token, nil
}

// ValidateToken 验证令牌并返回用户
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*model.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid user ID in token")
	}

	user, err := s.repo.User.GetUserByID(userID)
	if err != nil {
		// 主存储不可达时退回缓存快照
		if cached, cacheErr := s.cache.GetProfile(ctx, userID); cacheErr == nil {
			return cached, nil
		}
		return nil, errors.New("user not found")
	}
	return user, nil
}

// Logout 撤销令牌并清除当前会话用户
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.repo.Auth.RevokeTokensByUserID(userID); err != nil {
		log.Printf("Warning: failed to revoke tokens for %s: %v", userID, err)
	}
	return s.cache.ClearCurrentUser(ctx)
}
