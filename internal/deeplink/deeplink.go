// Package deeplink maps episode identifiers to shareable URL paths and back.
//
// Paths take the forms
//
//	/{lang}/episodes/{season}/{episode}
//	/{lang}/specials/{n}
//	/{lang}/jackandthepack/{n}
//	/{lang}/fan/{n}
//	/tugs/{n}
//
// where lang is a region code such as "en-gb".
package deeplink

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Section string

const (
	Episodes       Section = "episodes"
	Specials       Section = "specials"
	JackAndThePack Section = "jackandthepack"
	Tugs           Section = "tugs"
	Fan            Section = "fan"
)

var ErrInvalidID = errors.New("invalid episode identifier")

var langPattern = regexp.MustCompile(`^[a-z]{2}-[a-z]{2}$`)

// EpisodeID identifies one episode across every section of the catalog.
// Season is only set for the Episodes section.
type EpisodeID struct {
	Section Section
	Season  int
	Number  int
}

func (id EpisodeID) IsZero() bool {
	return id == EpisodeID{}
}

// String renders the identifier in its canonical internal form, e.g.
// "episodes/3/7" or "specials/2".
func (id EpisodeID) String() string {
	if id.IsZero() {
		return ""
	}
	if id.Section == Episodes {
		return fmt.Sprintf("%s/%d/%d", id.Section, id.Season, id.Number)
	}
	return fmt.Sprintf("%s/%d", id.Section, id.Number)
}

func (id EpisodeID) Valid() bool {
	if id.Number < 1 {
		return false
	}
	switch id.Section {
	case Episodes:
		return id.Season >= 1
	case Specials, JackAndThePack, Tugs, Fan:
		return id.Season == 0
	}
	return false
}

// ParseID is the inverse of EpisodeID.String.
func ParseID(s string) (EpisodeID, error) {
	id, ok := parseSegments(strings.Split(strings.Trim(s, "/"), "/"))
	if !ok {
		return EpisodeID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// IsLang reports whether s looks like a region code path segment.
func IsLang(s string) bool {
	return langPattern.MatchString(strings.ToLower(s))
}

// Home is the path restored when playback closes.
func Home(lang string) string {
	if lang == "" {
		return "/"
	}
	return "/" + strings.ToLower(lang) + "/"
}

// Encode returns the deep-link path for id under lang.
func Encode(lang string, id EpisodeID) string {
	if id.Section == Tugs || lang == "" {
		return "/" + id.String()
	}
	return "/" + strings.ToLower(lang) + "/" + id.String()
}

// Decode parses a request path. lang is empty for paths without a region
// segment, such as /tugs/{n}.
func Decode(path string) (lang string, id EpisodeID, ok bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) > 0 && IsLang(segments[0]) {
		lang = strings.ToLower(segments[0])
		segments = segments[1:]
		if len(segments) > 0 && Section(segments[0]) == Tugs {
			return "", EpisodeID{}, false
		}
	} else if len(segments) == 0 || Section(segments[0]) != Tugs {
		return "", EpisodeID{}, false
	}

	id, ok = parseSegments(segments)
	if !ok {
		return "", EpisodeID{}, false
	}
	return lang, id, true
}

// LangOf returns the leading region segment of path, if any.
func LangOf(path string) string {
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if IsLang(first) {
		return strings.ToLower(first)
	}
	return ""
}

// Code returns the compact "SSEE" form used by preview pages. Only
// seasonal episodes have one.
func Code(id EpisodeID) (string, bool) {
	if id.Section != Episodes || !id.Valid() {
		return "", false
	}
	return fmt.Sprintf("%02d%02d", id.Season, id.Number), true
}

// ParseCode is the inverse of Code. The last two digits are the episode
// number, the rest the season.
func ParseCode(code string) (EpisodeID, error) {
	if len(code) < 4 {
		return EpisodeID{}, fmt.Errorf("%w: code %q too short", ErrInvalidID, code)
	}
	season, err := strconv.Atoi(code[:len(code)-2])
	if err != nil {
		return EpisodeID{}, fmt.Errorf("%w: code %q", ErrInvalidID, code)
	}
	number, err := strconv.Atoi(code[len(code)-2:])
	if err != nil {
		return EpisodeID{}, fmt.Errorf("%w: code %q", ErrInvalidID, code)
	}
	id := EpisodeID{Section: Episodes, Season: season, Number: number}
	if !id.Valid() {
		return EpisodeID{}, fmt.Errorf("%w: code %q", ErrInvalidID, code)
	}
	return id, nil
}

func parseSegments(segments []string) (EpisodeID, bool) {
	if len(segments) < 2 {
		return EpisodeID{}, false
	}
	section := Section(segments[0])
	var id EpisodeID
	switch section {
	case Episodes:
		if len(segments) != 3 {
			return EpisodeID{}, false
		}
		season, err := strconv.Atoi(segments[1])
		if err != nil {
			return EpisodeID{}, false
		}
		number, err := strconv.Atoi(segments[2])
		if err != nil {
			return EpisodeID{}, false
		}
		id = EpisodeID{Section: Episodes, Season: season, Number: number}
	case Specials, JackAndThePack, Tugs, Fan:
		if len(segments) != 2 {
			return EpisodeID{}, false
		}
		number, err := strconv.Atoi(segments[1])
		if err != nil {
			return EpisodeID{}, false
		}
		id = EpisodeID{Section: section, Number: number}
	default:
		return EpisodeID{}, false
	}
	return id, id.Valid()
}
