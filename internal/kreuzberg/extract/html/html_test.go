package html

import (
	"context"
	"strings"
	"testing"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
)

const sample = `<!DOCTYPE html>
<html>
<head>
<title>Example Page</title>
<meta property="og:title" content="Example OG Title">
<meta property="og:image" content="https://example.com/img.png">
<meta name="twitter:card" content="summary">
<script type="application/ld+json">{"@type": "Article", "name": "Example"}</script>
</head>
<body>
<h1 id="intro">Introduction</h1>
<p>Hello world, this is a paragraph.</p>
<a href="https://other.example.com/page">outbound link</a>
<img src="pic.png" alt="a picture" width="10" height="20">
</body>
</html>`

func TestExtractBytesCapturesMetadataAndText(t *testing.T) {
	e := New()
	cfg := kconfig.Default()
	cfg.OutputFormat = kconfig.OutputMarkdown
	result, err := e.ExtractBytes(context.Background(), []byte(sample), "text/html", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Content, "# Introduction") {
		t.Errorf("expected markdown heading in content, got %q", result.Content)
	}
	if !strings.Contains(result.Content, "Hello world") {
		t.Errorf("expected paragraph text, got %q", result.Content)
	}
	if result.Metadata.HTML == nil {
		t.Fatal("expected HTML metadata to be populated")
	}
	if result.Metadata.HTML.OpenGraph == nil || result.Metadata.HTML.OpenGraph.Title != "Example OG Title" {
		t.Errorf("expected og:title to be captured, got %+v", result.Metadata.HTML.OpenGraph)
	}
	if result.Metadata.HTML.TwitterCard == nil || result.Metadata.HTML.TwitterCard.Card != "summary" {
		t.Errorf("expected twitter:card to be captured, got %+v", result.Metadata.HTML.TwitterCard)
	}
	if len(result.Metadata.HTML.Links) != 1 || result.Metadata.HTML.Links[0].Domain != "other.example.com" {
		t.Errorf("expected one external link, got %+v", result.Metadata.HTML.Links)
	}
	if len(result.Metadata.HTML.Images) != 1 || result.Metadata.HTML.Images[0].Width != 10 {
		t.Errorf("expected one image with width 10, got %+v", result.Metadata.HTML.Images)
	}
	if len(result.Metadata.HTML.StructuredData) != 1 {
		t.Errorf("expected one JSON-LD block, got %d", len(result.Metadata.HTML.StructuredData))
	}
}

func TestExtractBytesRejectsOversizedInput(t *testing.T) {
	e := New()
	big := make([]byte, maxNativeSize+1)
	_, err := e.ExtractBytes(context.Background(), big, "text/html", kconfig.Default())
	if err == nil {
		t.Fatal("expected an error for oversized input")
	}
}
