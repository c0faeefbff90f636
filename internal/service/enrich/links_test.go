// Package enrich 链接提取与视频映射单元测试
package enrich

import (
	"fmt"
	"testing"

	"github.com/cpslearn/dsa-mentor/internal/service/tutor"
)

// ========== ExtractLinks 测试 ==========

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "no links",
			text: "plain text without any urls",
			want: nil,
		},
		{
			name: "single link",
			text: "check https://leetcode.com/problems/two-sum/ first",
			want: []string{"https://leetcode.com/problems/two-sum/"},
		},
		{
			name: "trailing punctuation stripped",
			text: "read https://github.com/golang/go.",
			want: []string{"https://github.com/golang/go"},
		},
		{
			name: "closing paren stripped",
			text: "(see https://stackoverflow.com/q/12345)",
			want: []string{"https://stackoverflow.com/q/12345"},
		},
		{
			name: "multiple links in order",
			text: "compare http://a.example.com and https://b.example.com, then decide",
			want: []string{"http://a.example.com", "https://b.example.com"},
		},
		{
			name: "query string preserved",
			text: "watch https://www.youtube.com/watch?v=abc123",
			want: []string{"https://www.youtube.com/watch?v=abc123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLinks(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractLinks() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ExtractLinks()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// ========== DomainOf 测试 ==========

func TestDomainOf(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://www.youtube.com/watch?v=abc", "youtube.com"},
		{"https://github.com/golang/go", "github.com"},
		{"http://leetcode.com:8080/problems", "leetcode.com"},
		{"not a url", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DomainOf(tt.rawURL); got != tt.want {
			t.Errorf("DomainOf(%q) = %q, want %q", tt.rawURL, got, tt.want)
		}
	}
}

// ========== 占位与失败预览测试 ==========

func TestSpeculative(t *testing.T) {
	p := Speculative("https://www.github.com/golang/go")

	if !p.Loading || p.Error {
		t.Errorf("Speculative() state = loading:%v error:%v", p.Loading, p.Error)
	}
	if p.URL != "https://www.github.com/golang/go" || p.Domain != "github.com" {
		t.Errorf("Speculative() = %+v", p)
	}
	if p.Title != "" || p.Image != "" {
		t.Errorf("speculative preview carries resolved fields: %+v", p)
	}
}

func TestErrorPreview(t *testing.T) {
	p := ErrorPreview("https://unreachable.example.com/page")

	if p.Loading || !p.Error {
		t.Errorf("ErrorPreview() state = loading:%v error:%v", p.Loading, p.Error)
	}
	if p.Domain != "unreachable.example.com" {
		t.Errorf("Domain = %q", p.Domain)
	}
}

// ========== badgeFor 测试 ==========

func TestBadgeFor(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"youtube.com", "YouTube"},
		{"youtu.be", "YouTube"},
		{"m.youtube.com", "YouTube"},
		{"github.com", "GitHub"},
		{"stackoverflow.com", "Stack Overflow"},
		{"leetcode.com", "LeetCode"},
		{"example.com", ""},
	}

	for _, tt := range tests {
		if got := badgeFor(tt.domain); got != tt.want {
			t.Errorf("badgeFor(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}

// ========== youtubeID 测试 ==========

func TestYoutubeID(t *testing.T) {
	tests := []struct {
		rawURL string
		want   string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/playlist?list=PL123", ""},
		{"https://example.com/watch?v=abc", "abc"}, // v 参数优先，不校验域名
	}

	for _, tt := range tests {
		if got := youtubeID(tt.rawURL); got != tt.want {
			t.Errorf("youtubeID(%q) = %q, want %q", tt.rawURL, got, tt.want)
		}
	}
}

// ========== VideoPreviews 测试 ==========

func TestVideoPreviews(t *testing.T) {
	videos := []tutor.VideoData{
		{Title: "Heaps Explained", URL: "https://www.youtube.com/watch?v=abc123", Description: "intro"},
		{Title: "No ID", URL: "https://www.youtube.com/playlist?list=PL1"},
	}

	previews := VideoPreviews(videos)
	if len(previews) != 2 {
		t.Fatalf("VideoPreviews() len = %d, want 2", len(previews))
	}

	first := previews[0]
	if first.Badge != "YouTube" || first.Domain != "youtube.com" {
		t.Errorf("first preview = %+v", first)
	}
	if first.Image != "https://i.ytimg.com/vi/abc123/hqdefault.jpg" {
		t.Errorf("Image = %q", first.Image)
	}
	if first.Title != "Heaps Explained" || first.Description != "intro" {
		t.Errorf("metadata not carried over: %+v", first)
	}
	if first.Loading || first.Error {
		t.Errorf("video preview state = loading:%v error:%v", first.Loading, first.Error)
	}

	// 无法提取 ID 时不合成缩略图
	if previews[1].Image != "" {
		t.Errorf("second preview Image = %q, want empty", previews[1].Image)
	}
}

// ========== SplitNextStep 测试 ==========

func TestSplitNextStep(t *testing.T) {
	makeVideos := func(n int) []tutor.VideoData {
		videos := make([]tutor.VideoData, n)
		for i := range videos {
			videos[i] = tutor.VideoData{
				Title: fmt.Sprintf("video %d", i),
				URL:   fmt.Sprintf("https://www.youtube.com/watch?v=id%d", i),
			}
		}
		return videos
	}

	tests := []struct {
		name     string
		count    int
		wantLen  int
		wantMore int
	}{
		{"empty", 0, 0, 0},
		{"under cap", 2, 2, 0},
		{"at cap", 4, 4, 0},
		{"over cap", 7, 4, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previews, more := SplitNextStep(makeVideos(tt.count))
			if len(previews) != tt.wantLen || more != tt.wantMore {
				t.Errorf("SplitNextStep(%d videos) = (%d, %d), want (%d, %d)",
					tt.count, len(previews), more, tt.wantLen, tt.wantMore)
			}
		})
	}
}
