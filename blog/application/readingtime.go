package application

import (
	"strings"

	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/shared/prismic/richtext"
)

// WordsPerMinute is the reading speed used by EstimateReadingTime.
const WordsPerMinute = 150

// EstimateReadingTime returns the minutes needed to read the given content.
// Every block is rounded up on its own and the per-block minutes are summed,
// so many short blocks read longer than one block with the same words.
func EstimateReadingTime(blocks []domain.ContentBlock) int {
	minutes := 0
	for _, b := range blocks {
		text := b.Heading + " " + richtext.AsText(b.Body, richtext.DefaultSeparator)
		words := len(strings.Fields(text))
		minutes += (words + WordsPerMinute - 1) / WordsPerMinute
	}
	return minutes
}
