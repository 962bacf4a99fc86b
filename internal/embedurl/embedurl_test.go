package embedurl

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"watch link", "https://www.youtube.com/watch?v=abc123XYZ_-", "https://www.youtube.com/embed/abc123XYZ_-?autoplay=1&modestbranding=1&rel=0"},
		{"watch link with extra params", "https://youtube.com/watch?v=abc123&t=42s", "https://www.youtube.com/embed/abc123?autoplay=1&modestbranding=1&rel=0"},
		{"short link", "https://youtu.be/abc123", "https://www.youtube.com/embed/abc123?autoplay=1&modestbranding=1&rel=0"},
		{"mobile", "https://m.youtube.com/watch?v=abc123", "https://www.youtube.com/embed/abc123?autoplay=1&modestbranding=1&rel=0"},
		{"shorts", "https://www.youtube.com/shorts/abc123", "https://www.youtube.com/embed/abc123?autoplay=1&modestbranding=1&rel=0"},
		{"embed without query", "https://www.youtube.com/embed/VIDEO_ID_1", "https://www.youtube.com/embed/VIDEO_ID_1?autoplay=1"},
		{"embed with query", "https://www.youtube.com/embed/VIDEO_ID_1?start=10", "https://www.youtube.com/embed/VIDEO_ID_1?start=10&autoplay=1"},
		{"embed with fragment", "https://www.youtube.com/embed/abc#t=10", "https://www.youtube.com/embed/abc?autoplay=1#t=10"},
		{"embed with query and fragment", "https://www.youtube.com/embed/abc?start=5#t=10", "https://www.youtube.com/embed/abc?start=5&autoplay=1#t=10"},
		{"drive view", "https://drive.google.com/file/d/1AbCdEf/view?usp=sharing", "https://drive.google.com/file/d/1AbCdEf/preview"},
		{"drive bare", "https://drive.google.com/file/d/1AbCdEf/", "https://drive.google.com/file/d/1AbCdEf/preview"},
		{"drive open", "https://drive.google.com/open?id=1AbCdEf", "https://drive.google.com/file/d/1AbCdEf/preview"},
		{"other host", "https://cdn.example.com/ep1.mp4", "https://cdn.example.com/ep1.mp4"},
		{"relative", "/videos/ep1.mp4", "/videos/ep1.mp4"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"https://www.youtube.com/watch?v=abc123",
		"https://youtu.be/abc123",
		"https://www.youtube.com/embed/abc123",
		"https://www.youtube.com/embed/abc123?autoplay=1&modestbranding=1&rel=0",
		"https://www.youtube.com/embed/abc123#t=10",
		"https://www.youtube.com/embed/abc123?start=5#t=10",
		"https://drive.google.com/file/d/1AbCdEf/view",
		"https://drive.google.com/file/d/1AbCdEf/preview",
		"https://cdn.example.com/ep1.mp4",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestYouTubeID(t *testing.T) {
	tests := map[string]string{
		"https://www.youtube.com/watch?v=zbKjqHqy2no": "zbKjqHqy2no",
		"https://youtu.be/zbKjqHqy2no?t=3":            "zbKjqHqy2no",
		"https://www.youtube.com/embed/zbKjqHqy2no":   "zbKjqHqy2no",
		"https://vimeo.com/12345":                     "",
	}
	for in, want := range tests {
		if got := YouTubeID(in); got != want {
			t.Errorf("YouTubeID(%q) = %q, want %q", in, got, want)
		}
	}
}
