// Package auth 服务辅助函数单元测试
package auth

import (
	"testing"

	"github.com/cpslearn/dsa-mentor/internal/model"
)

// ========== userIDFromEmail 测试 ==========

func TestUserIDFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@example.com", "alice_example_com"},
		{"bob.smith@mail.co.uk", "bob_smith_mail_co_uk"},
		{"x@y.io", "x_y_io"},
	}

	for _, tt := range tests {
		if got := userIDFromEmail(tt.email); got != tt.want {
			t.Errorf("userIDFromEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

// ========== newUser 测试 ==========

func TestNewUser_Defaults(t *testing.T) {
	user := newUser("alice@example.com", "", "", model.ProfileData{})

	if user.UserID != "alice_example_com" {
		t.Errorf("UserID = %q", user.UserID)
	}
	if user.SkillLevel != model.SkillBeginner {
		t.Errorf("SkillLevel = %q, want beginner default", user.SkillLevel)
	}
	// 姓名缺省取邮箱本地部分
	if user.FullName != "alice" {
		t.Errorf("FullName = %q, want %q", user.FullName, "alice")
	}
	if !user.IsActive {
		t.Error("new user not active")
	}
	if user.CompletedTopics == nil || len(user.CompletedTopics) != 0 {
		t.Errorf("CompletedTopics = %v, want empty slice", user.CompletedTopics)
	}
}

func TestNewUser_ExplicitFields(t *testing.T) {
	user := newUser("bob@example.com", "Bob Smith", model.SkillAdvanced, model.ProfileData{})

	if user.FullName != "Bob Smith" {
		t.Errorf("FullName = %q", user.FullName)
	}
	if user.SkillLevel != model.SkillAdvanced {
		t.Errorf("SkillLevel = %q", user.SkillLevel)
	}
}
