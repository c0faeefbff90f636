package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cpslearn/dsa-mentor/internal/cache"
	"github.com/cpslearn/dsa-mentor/internal/config"
	"github.com/cpslearn/dsa-mentor/internal/model"
	"github.com/cpslearn/dsa-mentor/internal/repository"
	"github.com/cpslearn/dsa-mentor/internal/service/auth"
	"github.com/cpslearn/dsa-mentor/internal/service/enrich"
	"github.com/cpslearn/dsa-mentor/internal/service/guard"
	"github.com/cpslearn/dsa-mentor/internal/service/profile"
	"github.com/cpslearn/dsa-mentor/internal/service/progress"
	"github.com/cpslearn/dsa-mentor/internal/service/session"
	"github.com/cpslearn/dsa-mentor/internal/service/tutor"
)

// Services 服务集合
type Services struct {
	Auth     *auth.Service
	Profile  *profile.Service
	Sessions *session.Manager
	Progress *progress.Router
	Guard    *guard.Guard
	Cache    *cache.Store
	Config   *config.Config
}

// NewServices 创建所有服务
func NewServices(repos *repository.Repositories, cfg *config.Config, redisClient *redis.Client) *Services {
	store := cache.NewStore(redisClient)
	tutorClient := tutor.NewClient(&cfg.Tutor)
	resolver := enrich.NewResolver(&cfg.Preview)
	notifier := logNotifier{}

	authSvc := auth.NewService(repos, store, &cfg.Auth, cfg.Session.HistoryLimit)
	profileSvc := profile.NewService(repos, store)

	sessions := session.NewManager(session.Deps{
		Responder: tutorClient,
		Resolver:  resolver,
		Cache:     store,
		Sink:      exchangeSink{profiles: profileSvc},
		Notifier:  notifier,
		Config: session.Config{
			ContextSize: cfg.Session.ContextSize,
			MinReply:    time.Duration(cfg.Session.MinReplyMs) * time.Millisecond,
			MaxReply:    time.Duration(cfg.Session.MaxReplyMs) * time.Millisecond,
		},
	})

	return &Services{
		Auth:     authSvc,
		Profile:  profileSvc,
		Sessions: sessions,
		Progress: progress.NewRouter(notifier),
		Guard:    guard.New(&cacheSessionState{store: store}),
		Cache:    store,
		Config:   cfg,
	}
}

// logNotifier 把用户可见通知落到服务端日志；
// 浏览器端的实际展示由 API 响应承载
type logNotifier struct{}

func (logNotifier) Info(msg string)    { log.Printf("[notice] %s", msg) }
func (logNotifier) Success(msg string) { log.Printf("[notice] %s", msg) }
func (logNotifier) Error(msg string)   { log.Printf("[notice] error: %s", msg) }

// exchangeSink 会话引擎的交换持久化出口
type exchangeSink struct {
	profiles *profile.Service
}

// Record 写入远端存储并更新统计
func (s exchangeSink) Record(ctx context.Context, record *model.ChatRecord) error {
	return s.profiles.RecordExchange(ctx, record)
}

// cacheSessionState 以缓存为后盾的会话状态源。
// 缓存可达时状态总是确定的；缓存不可达视为未定，闸门会等待。
type cacheSessionState struct {
	store *cache.Store
}

// CurrentUser 当前会话用户
func (s *cacheSessionState) CurrentUser(ctx context.Context) (string, bool) {
	userID, err := s.store.GetCurrentUser(ctx)
	if err == nil {
		return userID, true
	}
	if errors.Is(err, cache.ErrNotFound) {
		return "", true
	}
	return "", false
}

// Onboarded 引导完成标记；键缺失视为确定的未完成
func (s *cacheSessionState) Onboarded(ctx context.Context, userID string) (bool, bool) {
	done, err := s.store.GetOnboarded(ctx, userID)
	if err == nil {
		return done, true
	}
	if errors.Is(err, cache.ErrNotFound) {
		return false, true
	}
	return false, false
}
