package mimetype

import "testing"

func TestDetectBySuffix(t *testing.T) {
	cases := []struct {
		name string
		path string
		want string
	}{
		{"pdf", "report.pdf", "application/pdf"},
		{"markdown", "readme.md", "text/markdown"},
		{"plain", "notes.txt", "text/plain"},
		{"html", "index.html", "text/html"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Detect(tc.path, nil, false)
			if err != nil {
				t.Fatalf("Detect(%q) error: %v", tc.path, err)
			}
			if got != tc.want {
				t.Errorf("Detect(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestDetectBySniff(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"pdf magic", []byte("%PDF-1.4 rest of doc"), "application/pdf"},
		{"png magic", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}, "image/png"},
		{"gif magic", []byte("GIF89a"), "image/gif"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Detect("", tc.data, true)
			if err != nil {
				t.Fatalf("Detect() error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Detect() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDetectUnsupported(t *testing.T) {
	_, err := Detect("", []byte{0x00, 0x01, 0x02}, true)
	if err == nil {
		t.Fatal("expected error for unrecognized content")
	}
}
