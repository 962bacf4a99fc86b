package validate

import (
	"fmt"
	"regexp"
)

// Request input limits for the public catalog and playback endpoints.
const (
	MaxSearchQueryLength  = 200
	MaxCollectionIDLength = 100
	MaxEpisodeIDLength    = 64
	MaxDocumentKeyLength  = 255
)

var collectionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func SearchQuery(s string) string { return checkLen(s, MaxSearchQueryLength, "search query") }
func EpisodeID(s string) string   { return checkLen(s, MaxEpisodeIDLength, "episode id") }
func DocumentKey(s string) string { return checkLen(s, MaxDocumentKeyLength, "document key") }

// CollectionID returns "" for a well-formed collection id, else a message.
func CollectionID(s string) string {
	if msg := checkLen(s, MaxCollectionIDLength, "collection id"); msg != "" {
		return msg
	}
	if !collectionIDPattern.MatchString(s) {
		return "collection id may only contain letters, digits, '-' and '_'"
	}
	return ""
}
