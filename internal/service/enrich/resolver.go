package enrich

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/cpslearn/dsa-mentor/internal/config"
)

// Resolver 链接预览解析器
type Resolver struct {
	http      *http.Client
	userAgent string
}

// NewResolver 创建解析器
func NewResolver(cfg *config.PreviewConfig) *Resolver {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		http:      &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
	}
}

// Resolve 解析单个 URL 的预览元数据。
// 永不返回 error：任何失败都落为 Error 态预览（仅 URL 与域名）。
func (r *Resolver) Resolve(ctx context.Context, rawURL string) LinkPreview {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ErrorPreview(rawURL)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return ErrorPreview(rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return ErrorPreview(rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ErrorPreview(rawURL)
	}

	domain := DomainOf(rawURL)
	preview := LinkPreview{
		URL:         rawURL,
		Domain:      domain,
		Title:       metaContent(doc, "og:title"),
		Description: metaContent(doc, "og:description"),
		Image:       metaContent(doc, "og:image"),
		Badge:       badgeFor(domain),
	}

	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if preview.Description == "" {
		preview.Description, _ = doc.Find(`meta[name="description"]`).Attr("content")
	}
	preview.Favicon = faviconURL(doc, rawURL)

	return preview
}

// ResolveAll 并发解析多个 URL；单个失败不影响其余，结果保持输入顺序。
func (r *Resolver) ResolveAll(ctx context.Context, urls []string) []LinkPreview {
	previews := make([]LinkPreview, len(urls))
	done := make(chan struct{})

	for i, u := range urls {
		go func(i int, u string) {
			previews[i] = r.Resolve(ctx, u)
			done <- struct{}{}
		}(i, u)
	}
	for range urls {
		<-done
	}
	return previews
}

// metaContent 读取 og meta 标签内容
func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find(`meta[property="` + property + `"]`).Attr("content")
	return strings.TrimSpace(content)
}

// faviconURL 解析站点图标地址，相对路径按页面 URL 补全
func faviconURL(doc *goquery.Document, pageURL string) string {
	href, ok := doc.Find(`link[rel="icon"], link[rel="shortcut icon"]`).Attr("href")
	if !ok || href == "" {
		base, err := url.Parse(pageURL)
		if err != nil {
			return ""
		}
		return base.Scheme + "://" + base.Host + "/favicon.ico"
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
