package domain

import (
	"time"

	"github.com/dfryer1193/spacetraveling/shared/prismic/richtext"
)

// PostSummary is the listing view of a post. UID is unique within a listing.
type PostSummary struct {
	UID                  string
	FirstPublicationDate *time.Time
	Title                string
	Subtitle             string
	Author               string
}

// PostDetail is a fully projected post, built fresh for every render.
type PostDetail struct {
	UID                  string
	FirstPublicationDate *time.Time
	Title                string
	Subtitle             string
	Author               string
	BannerURL            string
	Content              []ContentBlock
}

// Summary returns the listing view of the post.
func (p *PostDetail) Summary() PostSummary {
	return PostSummary{
		UID:                  p.UID,
		FirstPublicationDate: p.FirstPublicationDate,
		Title:                p.Title,
		Subtitle:             p.Subtitle,
		Author:               p.Author,
	}
}

// ContentBlock is one titled section of a post body.
type ContentBlock struct {
	Heading string
	Body    richtext.RichText
}

// ListingPage is one page of post summaries. An empty NextPage means there are no further pages.
type ListingPage struct {
	Results  []PostSummary
	NextPage string
}
