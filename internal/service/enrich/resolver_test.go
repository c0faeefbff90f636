// Package enrich 预览解析器单元测试
package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cpslearn/dsa-mentor/internal/config"
)

func testResolver() *Resolver {
	return NewResolver(&config.PreviewConfig{Timeout: 5, UserAgent: "test-agent"})
}

// ========== Resolve 测试 ==========

func TestResolve_OpenGraphTags(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<meta property="og:title" content="Two Sum - LeetCode">
			<meta property="og:description" content="Practice problem">
			<meta property="og:image" content="https://cdn.example.com/card.png">
			<link rel="icon" href="/static/favicon.ico">
			<title>fallback title</title>
		</head><body></body></html>`))
	}))
	defer srv.Close()

	p := testResolver().Resolve(context.Background(), srv.URL+"/page")

	if p.Error || p.Loading {
		t.Fatalf("preview state = %+v", p)
	}
	if p.Title != "Two Sum - LeetCode" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Description != "Practice problem" {
		t.Errorf("Description = %q", p.Description)
	}
	if p.Image != "https://cdn.example.com/card.png" {
		t.Errorf("Image = %q", p.Image)
	}
	if p.Favicon != srv.URL+"/static/favicon.ico" {
		t.Errorf("Favicon = %q", p.Favicon)
	}
	if gotUA != "test-agent" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestResolve_FallsBackToTitleTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<title>  Plain Page  </title>
			<meta name="description" content="plain description">
		</head><body></body></html>`))
	}))
	defer srv.Close()

	p := testResolver().Resolve(context.Background(), srv.URL)

	if p.Title != "Plain Page" {
		t.Errorf("Title = %q, want %q", p.Title, "Plain Page")
	}
	if p.Description != "plain description" {
		t.Errorf("Description = %q", p.Description)
	}
	// 页面没声明图标时退到约定路径
	if p.Favicon != srv.URL+"/favicon.ico" {
		t.Errorf("Favicon = %q", p.Favicon)
	}
}

func TestResolve_ErrorStates(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer notFound.Close()

	tests := []struct {
		name   string
		rawURL string
	}{
		{"http error status", notFound.URL + "/missing"},
		{"unreachable host", "http://127.0.0.1:1/nothing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testResolver().Resolve(context.Background(), tt.rawURL)
			if !p.Error {
				t.Errorf("Resolve(%q).Error = false, want true", tt.rawURL)
			}
			if p.URL != tt.rawURL {
				t.Errorf("URL = %q, want %q", p.URL, tt.rawURL)
			}
			if p.Title != "" {
				t.Errorf("error preview carries title %q", p.Title)
			}
		})
	}
}

// ========== ResolveAll 测试 ==========

func TestResolveAll_PreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>` + r.URL.Path + `</title></head></html>`))
	}))
	defer srv.Close()

	urls := []string{
		srv.URL + "/first",
		"http://127.0.0.1:1/broken",
		srv.URL + "/third",
	}

	previews := testResolver().ResolveAll(context.Background(), urls)
	if len(previews) != 3 {
		t.Fatalf("ResolveAll() len = %d, want 3", len(previews))
	}
	if previews[0].Title != "/first" || previews[2].Title != "/third" {
		t.Errorf("titles = %q, %q", previews[0].Title, previews[2].Title)
	}
	// 失败的条目落为 Error 态，不影响其余
	if !previews[1].Error {
		t.Errorf("previews[1] = %+v, want error state", previews[1])
	}
}
