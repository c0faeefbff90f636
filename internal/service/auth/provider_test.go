// Package auth 提供方链单元测试
package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/cpslearn/dsa-mentor/internal/model"
)

// fakeProvider 固定结果的提供方
type fakeProvider struct {
	name   string
	user   *model.User
	err    error
	called bool
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Authenticate(ctx context.Context, email, password string) (*model.User, []*model.ChatRecord, error) {
	p.called = true
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.user, nil, nil
}

// ========== Chain 测试 ==========

func TestChain_FirstSuccessWins(t *testing.T) {
	primary := &fakeProvider{name: "store", user: &model.User{UserID: "u1"}}
	fallback := &fakeProvider{name: "cache", user: &model.User{UserID: "u1-cached"}}

	user, _, err := Chain{primary, fallback}.Authenticate(context.Background(), "a@b.com", "pw")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if user.UserID != "u1" {
		t.Errorf("UserID = %q, want from primary", user.UserID)
	}
	if fallback.called {
		t.Error("fallback consulted after primary success")
	}
}

func TestChain_StoreUnavailableFallsThrough(t *testing.T) {
	primary := &fakeProvider{name: "store", err: errors.Join(ErrStoreUnavailable, errors.New("dial tcp: refused"))}
	fallback := &fakeProvider{name: "cache", user: &model.User{UserID: "u1-cached"}}

	user, _, err := Chain{primary, fallback}.Authenticate(context.Background(), "a@b.com", "pw")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if user.UserID != "u1-cached" {
		t.Errorf("UserID = %q, want from fallback", user.UserID)
	}
	if !fallback.called {
		t.Error("fallback not consulted")
	}
}

// 可达存储的拒绝是终态，不再尝试后续提供方
func TestChain_TerminalRejectionStops(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"invalid password", ErrInvalidPassword},
		{"user not found", ErrUserNotFound},
		{"account disabled", ErrAccountDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &fakeProvider{name: "store", err: tt.err}
			fallback := &fakeProvider{name: "cache", user: &model.User{UserID: "u1"}}

			_, _, err := Chain{primary, fallback}.Authenticate(context.Background(), "a@b.com", "pw")
			if !errors.Is(err, tt.err) {
				t.Errorf("error = %v, want %v", err, tt.err)
			}
			if fallback.called {
				t.Error("fallback consulted after terminal rejection")
			}
		})
	}
}

func TestChain_AllUnavailable(t *testing.T) {
	p1 := &fakeProvider{name: "store", err: ErrStoreUnavailable}
	p2 := &fakeProvider{name: "cache", err: ErrStoreUnavailable}

	_, _, err := Chain{p1, p2}.Authenticate(context.Background(), "a@b.com", "pw")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("error = %v, want ErrStoreUnavailable", err)
	}
}

func TestChain_Empty(t *testing.T) {
	_, _, err := Chain{}.Authenticate(context.Background(), "a@b.com", "pw")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("error = %v, want ErrStoreUnavailable", err)
	}
}
