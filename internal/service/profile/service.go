// Package profile 实现档案存储适配：读写单个用户档案、
// 拉取聊天历史、导出档案数据。所有失败以带类型的结果上抛，
// 由调用方决定是否回退本地缓存。
package profile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/cpslearn/dsa-mentor/internal/cache"
	"github.com/cpslearn/dsa-mentor/internal/model"
	"github.com/cpslearn/dsa-mentor/internal/repository"
)

// FailureKind 存储失败分类
type FailureKind int

const (
	// FailureNotFound 记录不存在
	FailureNotFound FailureKind = iota
	// FailureUnavailable 存储不可达
	FailureUnavailable
	// FailureInternal 其他内部错误
	FailureInternal
)

// StoreError 带分类的存储失败
type StoreError struct {
	Kind FailureKind
	Err  error
}

// Error 实现 error 接口
func (e *StoreError) Error() string {
	switch e.Kind {
	case FailureNotFound:
		return "profile: not found"
	case FailureUnavailable:
		return fmt.Sprintf("profile: store unavailable: %v", e.Err)
	default:
		return fmt.Sprintf("profile: %v", e.Err)
	}
}

// Unwrap 支持 errors.Is/As
func (e *StoreError) Unwrap() error { return e.Err }

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == FailureNotFound
}

// Service 档案服务
type Service struct {
	repo  *repository.Repositories
	cache *cache.Store
}

// NewService 创建档案服务
func NewService(repo *repository.Repositories, store *cache.Store) *Service {
	return &Service{repo: repo, cache: store}
}

// classify 把仓库错误转换为带类型的存储失败
func classify(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &StoreError{Kind: FailureNotFound, Err: err}
	}
	return &StoreError{Kind: FailureUnavailable, Err: err}
}

// GetProfile 读取档案
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.User.GetUserByID(userID)
	if err != nil {
		return nil, classify(err)
	}
	return user, nil
}

// UpdateRequest 档案部分更新请求；仅更新提供的字段
type UpdateRequest struct {
	FullName        *string           `json:"full_name"`
	SkillLevel      *string           `json:"skill_level"`
	AvatarURL       *string           `json:"avatar_url"`
	CompletedTopics *[]string         `json:"completed_topics"`
	ProfileData     *ProfileDataPatch `json:"profile_data"`
}

// ProfileDataPatch 自由档案字段的部分更新
type ProfileDataPatch struct {
	University           *string   `json:"university"`
	Degree               *string   `json:"degree"`
	Year                 *string   `json:"year"`
	Interests            *[]string `json:"interests"`
	ProgrammingLanguages *[]string `json:"programming_languages"`
	Goals                *[]string `json:"goals"`
}

// UpdateProfile 部分合并更新并返回完整的结果档案。
// 调用方必须用返回值整体替换本地副本，避免与服务端派生字段漂移。
func (s *Service) UpdateProfile(ctx context.Context, userID string, req *UpdateRequest) (*model.User, error) {
	user, err := s.repo.User.GetUserByID(userID)
	if err != nil {
		return nil, classify(err)
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.SkillLevel != nil {
		user.SkillLevel = *req.SkillLevel
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.CompletedTopics != nil {
		user.CompletedTopics = *req.CompletedTopics
		stats := user.Statistics.Data()
		stats.TopicsCompleted = len(*req.CompletedTopics)
		user.Statistics = stats.AsJSON()
	}
	if req.ProfileData != nil {
		data := user.ProfileData.Data()
		patch := req.ProfileData
		if patch.University != nil {
			data.University = *patch.University
		}
		if patch.Degree != nil {
			data.Degree = *patch.Degree
		}
		if patch.Year != nil {
			data.Year = *patch.Year
		}
		if patch.Interests != nil {
			data.Interests = *patch.Interests
		}
		if patch.ProgrammingLanguages != nil {
			data.ProgrammingLanguages = *patch.ProgrammingLanguages
		}
		if patch.Goals != nil {
			data.Goals = *patch.Goals
		}
		user.ProfileData = data.AsJSON()
	}

	if err := s.repo.User.UpdateUser(user); err != nil {
		return nil, classify(err)
	}

	// 同步档案快照
	if err := s.cache.SetProfile(ctx, user); err != nil {
		log.Printf("Warning: failed to refresh cached profile for %s: %v", userID, err)
	}
	return user, nil
}

// GetChatHistory 拉取最近 limit 条交换（时间升序）
func (s *Service) GetChatHistory(ctx context.Context, userID string, limit int) ([]*model.ChatRecord, error) {
	records, err := s.repo.History.GetRecordsByUser(userID, limit)
	if err != nil {
		return nil, classify(err)
	}
	return records, nil
}

// CachedHistory 本地缓存中的历史快照；缺失或损坏按空处理
func (s *Service) CachedHistory(ctx context.Context, userID string) []*model.ChatRecord {
	records, err := s.cache.GetHistory(ctx, userID)
	if err != nil {
		return nil
	}
	return records
}

// ExportData 档案导出数据
type ExportData struct {
	Profile       *model.User         `json:"profile"`
	ChatHistory   []*model.ChatRecord `json:"chat_history"`
	TotalMessages int64               `json:"total_messages"`
	ExportedAt    time.Time           `json:"exported_at"`
}

// Export 聚合档案与全部历史。只读操作，失败不影响任何内存状态。
func (s *Service) Export(ctx context.Context, userID string) (*ExportData, error) {
	user, err := s.repo.User.GetUserByID(userID)
	if err != nil {
		return nil, classify(err)
	}
	records, err := s.repo.History.GetRecordsByUser(userID, 0)
	if err != nil {
		return nil, classify(err)
	}
	total, err := s.repo.History.CountRecordsByUser(userID)
	if err != nil {
		total = int64(len(records))
	}

	return &ExportData{
		Profile:       user,
		ChatHistory:   records,
		TotalMessages: total,
		ExportedAt:    time.Now(),
	}, nil
}

// RecordExchange 持久化一次成功交换并更新统计计数。
// 作为会话引擎的交换出口使用。
func (s *Service) RecordExchange(ctx context.Context, record *model.ChatRecord) error {
	if err := s.repo.History.CreateRecord(record); err != nil {
		return classify(err)
	}

	user, err := s.repo.User.GetUserByID(record.UserID)
	if err != nil {
		return nil // 统计更新是尽力而为
	}
	stats := user.Statistics.Data()
	stats.TotalQueries++
	stats.LastActive = time.Now().Format(time.RFC3339)
	user.Statistics = stats.AsJSON()
	if err := s.repo.User.UpdateUser(user); err != nil {
		log.Printf("Warning: failed to update statistics for %s: %v", record.UserID, err)
	}
	return nil
}
