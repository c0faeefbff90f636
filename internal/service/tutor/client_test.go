// Package tutor 应答服务客户端单元测试
package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cpslearn/dsa-mentor/internal/config"
)

func testClient(baseURL string) *Client {
	return NewClient(&config.TutorConfig{BaseURL: baseURL, Timeout: 5})
}

// ========== Send 测试 ==========

func TestSend_Success(t *testing.T) {
	var gotPath string
	var gotReq ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"response": "A heap is a complete binary tree",
			"videos": [{"title": "Heaps", "url": "https://youtu.be/abc"}],
			"analysis": {"profile_updated": true}
		}`))
	}))
	defer srv.Close()

	req := &ChatRequest{Message: "what is a heap?", UserID: "u1"}
	resp, err := testClient(srv.URL).Send(context.Background(), req)
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	if gotPath != "/api/chat" {
		t.Errorf("path = %q, want /api/chat", gotPath)
	}
	if gotReq.Message != "what is a heap?" || gotReq.UserID != "u1" {
		t.Errorf("forwarded request = %+v", gotReq)
	}
	if resp.Response != "A heap is a complete binary tree" {
		t.Errorf("Response = %q", resp.Response)
	}
	if len(resp.Videos) != 1 || resp.Videos[0].Title != "Heaps" {
		t.Errorf("Videos = %+v", resp.Videos)
	}
	if resp.Analysis == nil || !resp.Analysis.ProfileUpdated {
		t.Errorf("Analysis = %+v", resp.Analysis)
	}
}

func TestSend_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail": "model backend unavailable"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Send(context.Background(), &ChatRequest{Message: "hi"})
	if err == nil {
		t.Fatal("Send() error = nil")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T", err)
	}
	if reqErr.Kind != FailureServer || reqErr.Status != http.StatusBadGateway {
		t.Errorf("error = %+v", reqErr)
	}
	if reqErr.Msg != "model backend unavailable" {
		t.Errorf("Msg = %q", reqErr.Msg)
	}
}

func TestSend_NetworkError(t *testing.T) {
	// 无监听端口
	_, err := testClient("http://127.0.0.1:1").Send(context.Background(), &ChatRequest{Message: "hi"})
	if err == nil {
		t.Fatal("Send() error = nil")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T", err)
	}
	if reqErr.Kind != FailureNetwork {
		t.Errorf("Kind = %v, want FailureNetwork", reqErr.Kind)
	}
}

func TestSend_RepairsCorruptBody(t *testing.T) {
	// 模型透传输出常见的损坏形式：末尾缺右花括号
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response": "repaired fine"`))
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).Send(context.Background(), &ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if resp.Response != "repaired fine" {
		t.Errorf("Response = %q", resp.Response)
	}
}

func TestSend_UnrepairableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Send(context.Background(), &ChatRequest{Message: "hi"})
	if err == nil {
		t.Fatal("Send() error = nil")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T", err)
	}
	if reqErr.Kind != FailureDecode {
		t.Errorf("Kind = %v, want FailureDecode", reqErr.Kind)
	}
}

// ========== DecodeAnalysis 测试 ==========

func TestDecodeAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantNil bool
		check   func(t *testing.T, a *Analysis)
	}{
		{
			name: "valid payload",
			raw:  `{"profile_updated": true, "learning_session_active": true}`,
			check: func(t *testing.T, a *Analysis) {
				if !a.ProfileUpdated || !a.LearningSessionActive {
					t.Errorf("analysis = %+v", a)
				}
			},
		},
		{
			name: "corrupt payload repaired",
			raw:  `{"path_completed": true,}`,
			check: func(t *testing.T, a *Analysis) {
				if !a.PathCompleted {
					t.Errorf("analysis = %+v", a)
				}
			},
		},
		{name: "empty", raw: "", wantNil: true},
		{name: "null", raw: "null", wantNil: true},
		{name: "unreadable treated as missing", raw: "][", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DecodeAnalysis(json.RawMessage(tt.raw))
			if tt.wantNil {
				if a != nil {
					t.Errorf("DecodeAnalysis(%q) = %+v, want nil", tt.raw, a)
				}
				return
			}
			if a == nil {
				t.Fatalf("DecodeAnalysis(%q) = nil", tt.raw)
			}
			tt.check(t, a)
		})
	}
}

// ========== serverMessage 测试 ==========

func TestServerMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message": "bad input"}`, "bad input"},
		{"detail field", `{"detail": "rate limited"}`, "rate limited"},
		{"message wins over detail", `{"message": "m", "detail": "d"}`, "m"},
		{"plain text passthrough", "  upstream exploded  ", "upstream exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serverMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("serverMessage(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}
