package blob

import "testing"

func TestFileNameFromURL(t *testing.T) {
	cases := []struct {
		name   string
		url    string
		bucket string
		want   string
	}{
		{
			name:   "standard public url",
			url:    "http://localhost:9000/storage/v1/object/public/files/editor-1-cat.png",
			bucket: "files",
			want:   "editor-1-cat.png",
		},
		{
			name:   "key with nested path",
			url:    "https://cdn.example.com/storage/v1/object/public/files/editor-2/photo.jpg",
			bucket: "files",
			want:   "editor-2/photo.jpg",
		},
		{
			name:   "different bucket does not match",
			url:    "http://localhost:9000/storage/v1/object/public/avatars/me.png",
			bucket: "files",
			want:   "",
		},
		{
			name:   "external image url",
			url:    "https://imgur.com/xyz.png",
			bucket: "files",
			want:   "",
		},
		{
			name:   "empty url",
			url:    "",
			bucket: "files",
			want:   "",
		},
		{
			name:   "data uri",
			url:    "data:image/png;base64,AAAA",
			bucket: "files",
			want:   "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FileNameFromURL(tc.url, tc.bucket); got != tc.want {
				t.Errorf("FileNameFromURL(%q, %q) = %q, want %q", tc.url, tc.bucket, got, tc.want)
			}
		})
	}
}

func TestURLForRoundTrip(t *testing.T) {
	s := &Storage{bucket: "files", publicURL: "http://localhost:9000/storage/v1/object"}

	url := s.URLFor("editor-1-cat.png")
	if url != "http://localhost:9000/storage/v1/object/public/files/editor-1-cat.png" {
		t.Fatalf("unexpected URL: %s", url)
	}
	if got := s.FileName(url); got != "editor-1-cat.png" {
		t.Errorf("FileName(URLFor(key)) = %q, want original key", got)
	}
}
