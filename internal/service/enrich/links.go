// Package enrich 实现消息富化：链接提取、预览解析与推荐视频映射。
package enrich

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/cpslearn/dsa-mentor/internal/service/tutor"
)

// NextStepDisplayCap 分析视图中下一步视频的展示上限
const NextStepDisplayCap = 4

// LinkPreview 链接预览。URL 检测到的瞬间以 Loading 态占位创建，
// 解析完成或失败后原位替换；不会同时处于 Loading 态又带已解析字段。
type LinkPreview struct {
	URL         string `json:"url"`
	Domain      string `json:"domain"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
	Badge       string `json:"badge,omitempty"`
	Loading     bool   `json:"loading"`
	Error       bool   `json:"error"`
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// ExtractLinks 提取文本中的 URL（纯函数，按出现顺序）
func ExtractLinks(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		// 去掉句尾标点
		m = strings.TrimRight(m, ".,;:!?)")
		if m != "" {
			urls = append(urls, m)
		}
	}
	return urls
}

// DomainOf 取 URL 的主机名并去掉前缀 www.
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// Speculative 创建占位预览（仅 URL 与域名，Loading 态）
func Speculative(rawURL string) LinkPreview {
	return LinkPreview{
		URL:     rawURL,
		Domain:  DomainOf(rawURL),
		Loading: true,
	}
}

// ErrorPreview 创建解析失败预览
func ErrorPreview(rawURL string) LinkPreview {
	return LinkPreview{
		URL:    rawURL,
		Domain: DomainOf(rawURL),
		Error:  true,
	}
}

// badgeFor 按来源域名选择角标
func badgeFor(domain string) string {
	switch {
	case domain == "youtube.com" || domain == "youtu.be" || strings.HasSuffix(domain, ".youtube.com"):
		return "YouTube"
	case domain == "github.com":
		return "GitHub"
	case domain == "stackoverflow.com":
		return "Stack Overflow"
	case domain == "leetcode.com":
		return "LeetCode"
	default:
		return ""
	}
}

// youtubeID 从视频 URL 中提取视频 ID
func youtubeID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if id := u.Query().Get("v"); id != "" {
		return id
	}
	if u.Hostname() == "youtu.be" {
		return strings.TrimPrefix(u.Path, "/")
	}
	return ""
}

// VideoPreviews 把 AI 推荐视频映射为预览。视频元数据由应答服务直接提供，
// 无需再走解析流程；缩略图按视频 ID 合成。
func VideoPreviews(videos []tutor.VideoData) []LinkPreview {
	previews := make([]LinkPreview, 0, len(videos))
	for _, v := range videos {
		preview := LinkPreview{
			URL:         v.URL,
			Domain:      "youtube.com",
			Title:       v.Title,
			Description: v.Description,
			Favicon:     "https://www.youtube.com/s/desktop/6d45fb89/img/favicon.ico",
			Badge:       "YouTube",
		}
		if id := youtubeID(v.URL); id != "" {
			preview.Image = "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg"
		}
		previews = append(previews, preview)
	}
	return previews
}

// SplitNextStep 下一步视频只在分析视图内展示，并按上限截断。
// 返回展示列表与超出上限的剩余数量。
func SplitNextStep(videos []tutor.VideoData) ([]LinkPreview, int) {
	previews := VideoPreviews(videos)
	if len(previews) <= NextStepDisplayCap {
		return previews, 0
	}
	return previews[:NextStepDisplayCap], len(previews) - NextStepDisplayCap
}
