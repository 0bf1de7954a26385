// Package view renders the blog's HTML pages from embedded templates.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/dfryer1193/spacetraveling/blog/application"
	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/shared/prismic/richtext"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	loadMoreLabel = "Carregar mais posts"
	retryLabel    = "Erro ao carregar. Tentar novamente"
)

// Options configures a Renderer.
type Options struct {
	SiteTitle string
	BaseURL   string
	Locale    language.Tag
	// Intro is markdown shown above the listing. Empty hides the section.
	Intro string
	// LoadMoreEndpoint is the JSON endpoint the listing page calls with the
	// next page cursor. When empty the page fetches the cursor URL itself,
	// which is what statically built sites do.
	LoadMoreEndpoint string
}

// Renderer executes the page templates.
type Renderer struct {
	pages    map[string]*template.Template
	dates    DateFormatter
	site     siteData
	endpoint string
}

type siteData struct {
	Title     string
	BaseURL   string
	Lang      string
	IntroHTML template.HTML
}

type postCard struct {
	UID      string
	Title    string
	Subtitle string
	Author   string
	Date     string
}

type homeData struct {
	Site          siteData
	Posts         []postCard
	NextPage      string
	Endpoint      string
	Months        []string
	LoadMoreLabel string
	RetryLabel    string
}

type section struct {
	Heading string
	Body    template.HTML
}

type postData struct {
	Site        siteData
	Title       string
	Subtitle    string
	Author      string
	Date        string
	BannerURL   string
	ReadingTime int
	Sections    []section
}

type notFoundData struct {
	Site siteData
}

// NewRenderer parses the embedded templates and renders the site intro.
func NewRenderer(opts Options) (*Renderer, error) {
	r := &Renderer{
		pages:    make(map[string]*template.Template),
		dates:    NewDateFormatter(opts.Locale),
		endpoint: opts.LoadMoreEndpoint,
		site: siteData{
			Title:   opts.SiteTitle,
			BaseURL: opts.BaseURL,
			Lang:    opts.Locale.String(),
		},
	}

	if opts.Intro != "" {
		rendered, err := application.NewMarkdownRenderer(opts.BaseURL).Render([]byte(opts.Intro))
		if err != nil {
			return nil, fmt.Errorf("failed to render site intro: %w", err)
		}
		r.site.IntroHTML = template.HTML(rendered.HTMLContent)
	}

	for _, page := range []string{"home.html", "post.html", "notfound.html"} {
		tmpl, err := template.New(page).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}

	return r, nil
}

// Home renders the listing page for the first page of posts.
func (r *Renderer) Home(w io.Writer, page domain.ListingPage) error {
	data := homeData{
		Site:          r.site,
		Posts:         make([]postCard, 0, len(page.Results)),
		NextPage:      page.NextPage,
		Endpoint:      r.endpoint,
		Months:        r.dates.Months(),
		LoadMoreLabel: loadMoreLabel,
		RetryLabel:    retryLabel,
	}
	for _, p := range page.Results {
		data.Posts = append(data.Posts, postCard{
			UID:      p.UID,
			Title:    p.Title,
			Subtitle: p.Subtitle,
			Author:   p.Author,
			Date:     r.dates.Format(p.FirstPublicationDate),
		})
	}
	return r.execute(w, "home.html", data)
}

// Post renders a post page.
func (r *Renderer) Post(w io.Writer, post *domain.PostDetail) error {
	data := postData{
		Site:        r.site,
		Title:       post.Title,
		Subtitle:    post.Subtitle,
		Author:      post.Author,
		Date:        r.dates.Format(post.FirstPublicationDate),
		BannerURL:   post.BannerURL,
		ReadingTime: application.EstimateReadingTime(post.Content),
		Sections:    make([]section, 0, len(post.Content)),
	}
	for _, block := range post.Content {
		data.Sections = append(data.Sections, section{
			Heading: block.Heading,
			Body:    template.HTML(richtext.AsHTML(block.Body, resolveLink)),
		})
	}
	return r.execute(w, "post.html", data)
}

// NotFound renders the 404 page.
func (r *Renderer) NotFound(w io.Writer) error {
	return r.execute(w, "notfound.html", notFoundData{Site: r.site})
}

// execute renders the page into a buffer before writing it to w.
func (r *Renderer) execute(w io.Writer, page string, data any) error {
	var buf bytes.Buffer
	if err := r.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// resolveLink points document links at their post page.
func resolveLink(l richtext.Link) string {
	if l.LinkType == richtext.LinkTypeDocument {
		if l.UID == "" {
			return "#"
		}
		return "/post/" + l.UID
	}
	return l.URL
}
