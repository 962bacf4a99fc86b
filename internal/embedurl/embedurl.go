// Package embedurl rewrites playable links into the URLs the player frame loads.
package embedurl

import (
	"net/url"
	"strings"
)

const (
	youtubeEmbedBase = "https://www.youtube.com/embed/"
	youtubeEmbedArgs = "?autoplay=1&modestbranding=1&rel=0"
)

// Normalize maps YouTube and Google Drive links to their embeddable form.
// Other links are returned unchanged. Normalize(Normalize(u)) == Normalize(u).
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return raw
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
		return normalizeYouTube(trimmed, u)
	case "youtu.be":
		if id := firstSegment(u.Path); id != "" {
			return youtubeEmbedBase + id + youtubeEmbedArgs
		}
	case "drive.google.com":
		if id := driveFileID(u); id != "" {
			return "https://drive.google.com/file/d/" + id + "/preview"
		}
	}
	return raw
}

// YouTubeID extracts the video ID from any recognised YouTube link.
func YouTubeID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "youtu.be" {
		return firstSegment(u.Path)
	}
	if !strings.Contains(host, "youtube") {
		return ""
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	for _, prefix := range []string{"/embed/", "/shorts/", "/live/", "/v/"} {
		if strings.HasPrefix(u.Path, prefix) {
			return firstSegment(strings.TrimPrefix(u.Path, prefix))
		}
	}
	return ""
}

func normalizeYouTube(raw string, u *url.URL) string {
	if strings.HasPrefix(u.Path, "/embed/") {
		if u.Query().Has("autoplay") {
			return raw
		}
		if u.RawQuery == "" {
			u.RawQuery = "autoplay=1"
		} else {
			u.RawQuery += "&autoplay=1"
		}
		return u.String()
	}
	if id := YouTubeID(raw); id != "" {
		return youtubeEmbedBase + id + youtubeEmbedArgs
	}
	return raw
}

func driveFileID(u *url.URL) string {
	if strings.HasPrefix(u.Path, "/file/d/") {
		return firstSegment(strings.TrimPrefix(u.Path, "/file/d/"))
	}
	if u.Path == "/open" || u.Path == "/uc" {
		return u.Query().Get("id")
	}
	return ""
}

func firstSegment(p string) string {
	p = strings.TrimPrefix(p, "/")
	seg, _, _ := strings.Cut(p, "/")
	return seg
}
