// Package profile 存储失败分类单元测试
package profile

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

// ========== classify / IsNotFound 测试 ==========

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind FailureKind
	}{
		{"record not found", gorm.ErrRecordNotFound, FailureNotFound},
		{"wrapped not found", errors.Join(errors.New("query users"), gorm.ErrRecordNotFound), FailureNotFound},
		{"connection refused", errors.New("dial tcp: connection refused"), FailureUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err)

			var se *StoreError
			if !errors.As(err, &se) {
				t.Fatalf("classify() type = %T", err)
			}
			if se.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", se.Kind, tt.wantKind)
			}
			// 原始错误可继续用 errors.Is 判定
			if !errors.Is(err, tt.err) && !errors.Is(tt.err, gorm.ErrRecordNotFound) {
				t.Errorf("classified error lost cause: %v", err)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(classify(gorm.ErrRecordNotFound)) {
		t.Error("IsNotFound(not-found classification) = false")
	}
	if IsNotFound(classify(errors.New("timeout"))) {
		t.Error("IsNotFound(unavailable classification) = true")
	}
	if IsNotFound(nil) {
		t.Error("IsNotFound(nil) = true")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound(plain error) = true")
	}
}
