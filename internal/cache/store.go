// Package cache 提供键值快照存储，作为主存储不可达时的本地回退层。
// 每个键整体覆盖写入；损坏的 JSON 视为不存在而不是错误。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cpslearn/dsa-mentor/internal/model"
)

const (
	profileKeyPrefix   = "profile:"
	historyKeyPrefix   = "chat_history:"
	onboardKeyPrefix   = "onboarding:"
	localUserKeyPrefix = "local_user:"
	currentUserKey     = "current_user"
)

// ErrNotFound 键不存在（或内容无法解析）
var ErrNotFound = errors.New("cache: not found")

// Store 快照存储
type Store struct {
	redis *redis.Client
}

// NewStore 创建快照存储
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

// setJSON 整体覆盖写入一个 JSON 键
func (s *Store) setJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, 0).Err()
}

// getJSON 读取并解析一个 JSON 键；解析失败按不存在处理
func (s *Store) getJSON(ctx context.Context, key string, out interface{}) error {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("Warning: discarding malformed cache entry %s: %v", key, err)
		return ErrNotFound
	}
	return nil
}

// SetProfile 写入档案快照
func (s *Store) SetProfile(ctx context.Context, user *model.User) error {
	return s.setJSON(ctx, profileKeyPrefix+user.UserID, user)
}

// GetProfile 读取档案快照
func (s *Store) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := s.getJSON(ctx, profileKeyPrefix+userID, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetHistory 写入历史快照
func (s *Store) SetHistory(ctx context.Context, userID string, records []*model.ChatRecord) error {
	return s.setJSON(ctx, historyKeyPrefix+userID, records)
}

// GetHistory 读取历史快照
func (s *Store) GetHistory(ctx context.Context, userID string) ([]*model.ChatRecord, error) {
	var records []*model.ChatRecord
	if err := s.getJSON(ctx, historyKeyPrefix+userID, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// appendRetries WATCH 冲突时的重试上限
const appendRetries = 10

// AppendHistory 向历史快照追加一次交换（页面重载不丢消息的持久化措施）。
// 读改写经 WATCH 乐观事务执行，并发追加不会互相覆盖。
func (s *Store) AppendHistory(ctx context.Context, userID string, record *model.ChatRecord) error {
	key := historyKeyPrefix + userID

	txf := func(tx *redis.Tx) error {
		var records []*model.ChatRecord
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// 首次追加，从空快照开始
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(data, &records); err != nil {
				log.Printf("Warning: discarding malformed cache entry %s: %v", key, err)
				records = nil
			}
		}

		records = append(records, record)
		payload, err := json.Marshal(records)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < appendRetries; i++ {
		err = s.redis.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

// SetCurrentUser 记录当前会话用户
func (s *Store) SetCurrentUser(ctx context.Context, userID string) error {
	return s.redis.Set(ctx, currentUserKey, userID, 0).Err()
}

// GetCurrentUser 读取当前会话用户
func (s *Store) GetCurrentUser(ctx context.Context) (string, error) {
	userID, err := s.redis.Get(ctx, currentUserKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return userID, nil
}

// ClearCurrentUser 清除当前会话用户
func (s *Store) ClearCurrentUser(ctx context.Context) error {
	return s.redis.Del(ctx, currentUserKey).Err()
}

// SetOnboarded 写入引导完成标记
func (s *Store) SetOnboarded(ctx context.Context, userID string, done bool) error {
	return s.redis.Set(ctx, onboardKeyPrefix+userID, done, 0).Err()
}

// GetOnboarded 读取引导完成标记；键缺失时返回 ErrNotFound
func (s *Store) GetOnboarded(ctx context.Context, userID string) (bool, error) {
	done, err := s.redis.Get(ctx, onboardKeyPrefix+userID).Bool()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, ErrNotFound
		}
		return false, err
	}
	return done, nil
}

// LocalUser 回退认证用的本地凭据记录
type LocalUser struct {
	User         *model.User `json:"user"`
	PasswordHash string      `json:"password_hash,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// SetLocalUser 写入本地凭据记录
func (s *Store) SetLocalUser(ctx context.Context, email string, record *LocalUser) error {
	return s.setJSON(ctx, localUserKeyPrefix+email, record)
}

// GetLocalUserByEmail 读取本地凭据记录
func (s *Store) GetLocalUserByEmail(ctx context.Context, email string) (*LocalUser, error) {
	var record LocalUser
	if err := s.getJSON(ctx, localUserKeyPrefix+email, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
