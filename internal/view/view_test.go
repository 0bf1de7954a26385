package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/shared/prismic/richtext"
	"golang.org/x/text/language"
)

func TestDateFormatter_Format(t *testing.T) {
	date := time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)
	early := time.Date(2021, 2, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		locale   language.Tag
		date     *time.Time
		expected string
	}{
		{name: "Brazilian Portuguese", locale: language.BrazilianPortuguese, date: &date, expected: "25 mar 2021"},
		{name: "Zero padded day", locale: language.BrazilianPortuguese, date: &early, expected: "05 fev 2021"},
		{name: "Portuguese", locale: language.Portuguese, date: &early, expected: "05 fev 2021"},
		{name: "English", locale: language.AmericanEnglish, date: &date, expected: "25 Mar 2021"},
		{name: "Unsupported falls back to English", locale: language.Japanese, date: &date, expected: "25 Mar 2021"},
		{name: "Missing date", locale: language.BrazilianPortuguese, date: nil, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewDateFormatter(tt.locale).Format(tt.date)
			if result != tt.expected {
				t.Errorf("Format() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func newTestRenderer(t *testing.T, opts Options) *Renderer {
	t.Helper()
	if opts.SiteTitle == "" {
		opts.SiteTitle = "spacetraveling"
	}
	if opts.Locale == language.Und {
		opts.Locale = language.BrazilianPortuguese
	}
	r, err := NewRenderer(opts)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r
}

func TestRenderer_Home(t *testing.T) {
	r := newTestRenderer(t, Options{LoadMoreEndpoint: "/posts/v1/"})
	published := time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)

	var buf bytes.Buffer
	err := r.Home(&buf, domain.ListingPage{
		Results: []domain.PostSummary{
			{UID: "como-utilizar-hooks", Title: "Como utilizar Hooks", Subtitle: "Pensando", Author: "Joseph Oliveira", FirstPublicationDate: &published},
			{UID: "script", Title: "<script>alert(1)</script>", Author: "Ana"},
		},
		NextPage: "https://repo.cdn.prismic.io/api/v2/documents/search?page=2",
	})
	if err != nil {
		t.Fatalf("Home() error = %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		`<html lang="pt-BR">`,
		`href="/post/como-utilizar-hooks"`,
		"Como utilizar Hooks",
		"25 mar 2021",
		"Joseph Oliveira",
		"Carregar mais posts",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Home() output missing %q", want)
		}
	}
	if !strings.Contains(html, "posts/v1/") && !strings.Contains(html, `posts\/v1\/`) {
		t.Error("Home() output missing the load more endpoint")
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("Home() did not escape the post title")
	}
}

func TestRenderer_HomeWithoutNextPage(t *testing.T) {
	r := newTestRenderer(t, Options{})

	var buf bytes.Buffer
	if err := r.Home(&buf, domain.ListingPage{Results: []domain.PostSummary{{UID: "a", Title: "A"}}}); err != nil {
		t.Fatalf("Home() error = %v", err)
	}
	if strings.Contains(buf.String(), `id="load-more"`) {
		t.Error("Home() rendered the load more button without a next page")
	}
}

func TestRenderer_HomeIntro(t *testing.T) {
	r := newTestRenderer(t, Options{
		BaseURL: "https://blog.example.com",
		Intro:   "Welcome to **space**. See [about](about.md).",
	})

	var buf bytes.Buffer
	if err := r.Home(&buf, domain.ListingPage{}); err != nil {
		t.Fatalf("Home() error = %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "<strong>space</strong>") {
		t.Errorf("intro markdown not rendered: %s", html)
	}
	if !strings.Contains(html, `href="https://blog.example.com/post/about"`) {
		t.Errorf("intro link not resolved: %s", html)
	}
}

func TestRenderer_Post(t *testing.T) {
	r := newTestRenderer(t, Options{})
	published := time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)

	post := &domain.PostDetail{
		UID:                  "hooks",
		FirstPublicationDate: &published,
		Title:                "Hooks",
		Author:               "Ana",
		BannerURL:            "https://images.prismic.io/banner.png",
		Content: []domain.ContentBlock{
			{
				Heading: "Proin et varius",
				Body: richtext.RichText{{
					Type:  richtext.TypeParagraph,
					Text:  "Lorem ipsum",
					Spans: []richtext.Span{{Start: 0, End: 5, Type: richtext.SpanStrong}},
				}},
			},
			{
				Heading: "Links",
				Body: richtext.RichText{{
					Type: richtext.TypeParagraph,
					Text: "other post",
					Spans: []richtext.Span{{
						Start: 0, End: 5, Type: richtext.SpanHyperlink,
						Data: &richtext.SpanData{Link: richtext.Link{LinkType: richtext.LinkTypeDocument, UID: "other"}},
					}},
				}},
			},
		},
	}

	var buf bytes.Buffer
	if err := r.Post(&buf, post); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"<title>Hooks | spacetraveling</title>",
		`src="https://images.prismic.io/banner.png"`,
		"25 mar 2021",
		"2 min",
		"<h2>Proin et varius</h2>",
		"<p><strong>Lorem</strong> ipsum</p>",
		`href="/post/other"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Post() output missing %q", want)
		}
	}
}

func TestRenderer_NotFound(t *testing.T) {
	r := newTestRenderer(t, Options{})

	var buf bytes.Buffer
	if err := r.NotFound(&buf); err != nil {
		t.Fatalf("NotFound() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Post não encontrado") {
		t.Errorf("NotFound() output = %s", buf.String())
	}
}

func TestResolveLink(t *testing.T) {
	tests := []struct {
		name     string
		link     richtext.Link
		expected string
	}{
		{name: "Document", link: richtext.Link{LinkType: richtext.LinkTypeDocument, UID: "a"}, expected: "/post/a"},
		{name: "Document without uid", link: richtext.Link{LinkType: richtext.LinkTypeDocument}, expected: "#"},
		{name: "Web", link: richtext.Link{LinkType: richtext.LinkTypeWeb, URL: "https://example.com"}, expected: "https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := resolveLink(tt.link); result != tt.expected {
				t.Errorf("resolveLink() = %q, want %q", result, tt.expected)
			}
		})
	}
}
