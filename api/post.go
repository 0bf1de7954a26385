// Package api holds the JSON shapes served by the HTTP API. They mirror the
// Prismic document shape so the listing page script can consume either.
package api

import (
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/shared/prismic/richtext"
)

// DateLayout is the Prismic timestamp layout used for first_publication_date.
const DateLayout = "2006-01-02T15:04:05-0700"

type PostSummaryData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

type PostSummary struct {
	UID                  string          `json:"uid"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	Data                 PostSummaryData `json:"data"`
}

type ListingPage struct {
	Results  []PostSummary `json:"results"`
	NextPage *string       `json:"next_page"`
}

type Banner struct {
	URL string `json:"url"`
}

type Content struct {
	Heading string            `json:"heading"`
	Body    richtext.RichText `json:"body"`
}

type PostDetailData struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Author   string    `json:"author"`
	Banner   Banner    `json:"banner"`
	Content  []Content `json:"content"`
}

type PostDetail struct {
	UID                  string         `json:"uid"`
	FirstPublicationDate *string        `json:"first_publication_date"`
	ReadingTime          int            `json:"reading_time"`
	Data                 PostDetailData `json:"data"`
}

type Error struct {
	Error string `json:"error"`
}

func NewPostSummary(p domain.PostSummary) PostSummary {
	return PostSummary{
		UID:                  p.UID,
		FirstPublicationDate: formatDate(p.FirstPublicationDate),
		Data: PostSummaryData{
			Title:    p.Title,
			Subtitle: p.Subtitle,
			Author:   p.Author,
		},
	}
}

// NewListingPage converts a listing page. An exhausted listing has a null next_page.
func NewListingPage(page domain.ListingPage) ListingPage {
	result := ListingPage{Results: make([]PostSummary, 0, len(page.Results))}
	for _, p := range page.Results {
		result.Results = append(result.Results, NewPostSummary(p))
	}
	if page.NextPage != "" {
		next := page.NextPage
		result.NextPage = &next
	}
	return result
}

func NewPostDetail(p *domain.PostDetail, readingTime int) PostDetail {
	detail := PostDetail{
		UID:                  p.UID,
		FirstPublicationDate: formatDate(p.FirstPublicationDate),
		ReadingTime:          readingTime,
		Data: PostDetailData{
			Title:    p.Title,
			Subtitle: p.Subtitle,
			Author:   p.Author,
			Banner:   Banner{URL: p.BannerURL},
			Content:  make([]Content, 0, len(p.Content)),
		},
	}
	for _, c := range p.Content {
		detail.Data.Content = append(detail.Data.Content, Content{Heading: c.Heading, Body: c.Body})
	}
	return detail
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
