package model

import (
	"time"

	"gorm.io/datatypes"
)

// SkillLevel 技能等级取值
const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
)

// User 学习者档案
type User struct {
	UserID          string                          `gorm:"primaryKey;size:255" json:"user_id"`
	Email           string                          `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName        string                          `gorm:"size:255" json:"full_name"`
	PasswordHash    string                          `gorm:"size:255" json:"-"`
	SkillLevel      string                          `gorm:"size:20;default:beginner" json:"skill_level"`
	AvatarURL       string                          `gorm:"size:500" json:"avatar_url,omitempty"`
	IsActive        bool                            `gorm:"default:true" json:"is_active"`
	CompletedTopics datatypes.JSONSlice[string]     `json:"completed_topics"`
	Statistics      datatypes.JSONType[Statistics]  `json:"statistics"`
	ProfileData     datatypes.JSONType[ProfileData] `json:"profile_data"`
	CreatedAt       time.Time                       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Statistics 学习统计（服务端派生字段）
type Statistics struct {
	TotalQueries      int    `json:"total_queries"`
	TopicsCompleted   int    `json:"topics_completed"`
	TotalStudyTime    int    `json:"total_study_time"`
	StreakDays        int    `json:"streak_days,omitempty"`
	SessionsCompleted int    `json:"sessions_completed,omitempty"`
	LastActive        string `json:"last_active,omitempty"`
}

// AsJSON 包装为 JSON 列值
func (s Statistics) AsJSON() datatypes.JSONType[Statistics] {
	return datatypes.NewJSONType(s)
}

// ProfileData 自由档案字段
type ProfileData struct {
	University           string   `json:"university"`
	Degree               string   `json:"degree"`
	Year                 string   `json:"year"`
	Interests            []string `json:"interests"`
	ProgrammingLanguages []string `json:"programming_languages"`
	Goals                []string `json:"goals,omitempty"`
}

// AsJSON 包装为 JSON 列值
func (p ProfileData) AsJSON() datatypes.JSONType[ProfileData] {
	return datatypes.NewJSONType(p)
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
