package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cpslearn/dsa-mentor/internal/cache"
	"github.com/cpslearn/dsa-mentor/internal/model"
	"github.com/cpslearn/dsa-mentor/internal/repository"
)

// 认证失败分类
var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrInvalidPassword 密码不匹配
	ErrInvalidPassword = errors.New("auth: invalid password")
	// ErrAccountDisabled 账号被停用
	ErrAccountDisabled = errors.New("auth: account is disabled")
	// ErrStoreUnavailable 凭据存储不可达（可回退）
	ErrStoreUnavailable = errors.New("auth: credential store unavailable")
	// ErrUnverifiedIdentity 身份断言未经验证
	ErrUnverifiedIdentity = errors.New("auth: identity assertion not verified")
	// ErrEmailTaken 邮箱已被占用
	ErrEmailTaken = errors.New("auth: user with this email already exists")
)

// Provider 凭据提供方。按序尝试，返回档案与历史快照。
// 仅 ErrStoreUnavailable 允许落入下一个提供方；
// 可达存储给出的拒绝（用户不存在、密码错误）是终态。
type Provider interface {
	Name() string
	Authenticate(ctx context.Context, email, password string) (*model.User, []*model.ChatRecord, error)
}

// Chain 提供方链：先成功者胜
type Chain []Provider

// Authenticate 依次尝试各提供方
func (c Chain) Authenticate(ctx context.Context, email, password string) (*model.User, []*model.ChatRecord, error) {
	var lastErr error = ErrStoreUnavailable
	for _, p := range c {
		user, history, err := p.Authenticate(ctx, email, password)
		if err == nil {
			return user, history, nil
		}
		if !errors.Is(err, ErrStoreUnavailable) {
			return nil, nil, err
		}
		lastErr = err
	}
	return nil, nil, lastErr
}

// StoreProvider 主存储（数据库）认证
type StoreProvider struct {
	repo         *repository.Repositories
	historyLimit int
}

// NewStoreProvider 创建主存储提供方
func NewStoreProvider(repo *repository.Repositories, historyLimit int) *StoreProvider {
	return &StoreProvider{repo: repo, historyLimit: historyLimit}
}

// Name 提供方名称
func (p *StoreProvider) Name() string { return "store" }

// Authenticate 校验邮箱密码并取回档案与历史
func (p *StoreProvider) Authenticate(ctx context.Context, email, password string) (*model.User, []*model.ChatRecord, error) {
	user, err := p.repo.User.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, errors.Join(ErrStoreUnavailable, err)
	}

	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidPassword
	}

	history, err := p.repo.History.GetRecordsByUser(user.UserID, p.historyLimit)
	if err != nil {
		// 档案已验证，历史拉取失败不阻断登录
		history = nil
	}
	return user, history, nil
}

// CacheProvider 本地缓存回退认证（主存储不可达时使用）
type CacheProvider struct {
	store *cache.Store
}

// NewCacheProvider 创建缓存提供方
func NewCacheProvider(store *cache.Store) *CacheProvider {
	return &CacheProvider{store: store}
}

// Name 提供方名称
func (p *CacheProvider) Name() string { return "cache" }

// Authenticate 用本地凭据记录校验
func (p *CacheProvider) Authenticate(ctx context.Context, email, password string) (*model.User, []*model.ChatRecord, error) {
	record, err := p.store.GetLocalUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, errors.Join(ErrStoreUnavailable, err)
	}

	if record.PasswordHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
			return nil, nil, ErrInvalidPassword
		}
	}

	history, err := p.store.GetHistory(ctx, record.User.UserID)
	if err != nil {
		history = nil
	}
	return record.User, history, nil
}
