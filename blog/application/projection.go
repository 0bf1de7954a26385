package application

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/shared/prismic"
	"github.com/dfryer1193/spacetraveling/shared/prismic/richtext"
)

// Prismic formats publication dates without a colon in the zone offset.
const publicationDateLayout = "2006-01-02T15:04:05-0700"

// postData mirrors the data section of a posts document. Fields not listed
// here are dropped during decoding.
type postData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
	Banner   *struct {
		URL string `json:"url"`
	} `json:"banner"`
	Content []struct {
		Heading string            `json:"heading"`
		Body    richtext.RichText `json:"body"`
	} `json:"content"`
}

func decodePostData(doc *prismic.Document) (*postData, error) {
	if doc.UID == "" {
		return nil, &domain.ValidationError{Field: "uid", Reason: "is empty"}
	}

	var data postData
	if len(doc.Data) == 0 || string(doc.Data) == "null" {
		return nil, &domain.ValidationError{UID: doc.UID, Field: "data", Reason: "is missing"}
	}
	if err := json.Unmarshal(doc.Data, &data); err != nil {
		return nil, &domain.ValidationError{UID: doc.UID, Field: "data", Reason: fmt.Sprintf("cannot be decoded: %v", err)}
	}
	if data.Title == "" {
		return nil, &domain.ValidationError{UID: doc.UID, Field: "title", Reason: "is empty"}
	}
	return &data, nil
}

// ProjectSummary converts a raw posts document into a PostSummary, keeping only
// uid, first_publication_date, title, subtitle and author.
func ProjectSummary(doc *prismic.Document) (domain.PostSummary, error) {
	data, err := decodePostData(doc)
	if err != nil {
		return domain.PostSummary{}, err
	}

	published, err := parsePublicationDate(doc.UID, doc.FirstPublicationDate)
	if err != nil {
		return domain.PostSummary{}, err
	}

	return domain.PostSummary{
		UID:                  doc.UID,
		FirstPublicationDate: published,
		Title:                data.Title,
		Subtitle:             data.Subtitle,
		Author:               data.Author,
	}, nil
}

// ProjectDetail converts a raw posts document into a PostDetail.
func ProjectDetail(doc *prismic.Document) (*domain.PostDetail, error) {
	data, err := decodePostData(doc)
	if err != nil {
		return nil, err
	}

	published, err := parsePublicationDate(doc.UID, doc.FirstPublicationDate)
	if err != nil {
		return nil, err
	}

	post := &domain.PostDetail{
		UID:                  doc.UID,
		FirstPublicationDate: published,
		Title:                data.Title,
		Subtitle:             data.Subtitle,
		Author:               data.Author,
		Content:              make([]domain.ContentBlock, 0, len(data.Content)),
	}
	if data.Banner != nil {
		post.BannerURL = data.Banner.URL
	}
	for _, c := range data.Content {
		post.Content = append(post.Content, domain.ContentBlock{
			Heading: c.Heading,
			Body:    richtext.Clone(c.Body),
		})
	}

	return post, nil
}

// projectPage converts a search response into a ListingPage. Any invalid
// record fails the whole page.
// projectPage converts a search response. The access token Prismic echoes into
// next_page is dropped unless keepToken is set.
func projectPage(resp *prismic.SearchResponse, keepToken bool) (domain.ListingPage, error) {
	page := domain.ListingPage{
		Results: make([]domain.PostSummary, 0, len(resp.Results)),
	}
	for i := range resp.Results {
		summary, err := ProjectSummary(&resp.Results[i])
		if err != nil {
			return domain.ListingPage{}, err
		}
		page.Results = append(page.Results, summary)
	}
	if resp.NextPage != nil {
		page.NextPage = *resp.NextPage
		if !keepToken {
			page.NextPage = prismic.StripToken(page.NextPage)
		}
	}
	return page, nil
}

func parsePublicationDate(uid string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	for _, layout := range []string{publicationDateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t, nil
		}
	}
	return nil, &domain.ValidationError{
		UID:    uid,
		Field:  "first_publication_date",
		Reason: fmt.Sprintf("has unexpected format %q", *raw),
	}
}
