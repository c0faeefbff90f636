// Package tutor 封装对外部应答生成服务的调用。
// 该服务是外部协作方：提交问题与上下文，取回回复文本、推荐视频与分析载荷。
package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/cpslearn/dsa-mentor/internal/config"
)

// FailureKind 失败分类
type FailureKind int

const (
	// FailureTimeout 请求超时
	FailureTimeout FailureKind = iota
	// FailureNetwork 连接失败
	FailureNetwork
	// FailureServer 服务端以 4xx/5xx 拒绝
	FailureServer
	// FailureDecode 响应无法解析
	FailureDecode
)

// RequestError 带分类的请求失败
type RequestError struct {
	Kind   FailureKind
	Status int
	Msg    string
}

// Error 实现 error 接口
func (e *RequestError) Error() string {
	switch e.Kind {
	case FailureTimeout:
		return "tutor: request timed out"
	case FailureNetwork:
		return fmt.Sprintf("tutor: request failed: %s", e.Msg)
	case FailureServer:
		return fmt.Sprintf("tutor: server rejected request (%d): %s", e.Status, e.Msg)
	default:
		return fmt.Sprintf("tutor: bad response: %s", e.Msg)
	}
}

// Client 应答生成服务客户端
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient 创建客户端
func NewClient(cfg *config.TutorConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Send 提交一次问答请求。失败不自动重试，分类后原样上抛。
func (c *Client) Send(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("tutor: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tutor: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, &RequestError{Kind: FailureTimeout}
		}
		return nil, &RequestError{Kind: FailureNetwork, Msg: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Kind: FailureNetwork, Msg: err.Error()}
	}

	if resp.StatusCode >= 400 {
		return nil, &RequestError{Kind: FailureServer, Status: resp.StatusCode, Msg: serverMessage(data)}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		// 部分后端会透传模型输出，偶见轻微损坏的 JSON；修复后再试一次
		repaired, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil || json.Unmarshal([]byte(repaired), &chatResp) != nil {
			return nil, &RequestError{Kind: FailureDecode, Msg: err.Error()}
		}
	}

	chatResp.Analysis = DecodeAnalysis(chatResp.RawAnalysis)
	return &chatResp, nil
}

// DecodeAnalysis 解码分析载荷；损坏的载荷按缺失处理而不是报错
func DecodeAnalysis(raw json.RawMessage) *Analysis {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var analysis Analysis
	if err := json.Unmarshal(raw, &analysis); err == nil {
		return &analysis
	}

	repaired, err := jsonrepair.JSONRepair(string(raw))
	if err != nil {
		log.Printf("Warning: discarding unreadable analysis payload: %v", err)
		return nil
	}
	if err := json.Unmarshal([]byte(repaired), &analysis); err != nil {
		log.Printf("Warning: discarding unreadable analysis payload: %v", err)
		return nil
	}
	return &analysis
}

// serverMessage 从错误响应体中提取服务端消息
func serverMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return strings.TrimSpace(string(data))
}

// isTimeout 判断是否为超时错误
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
