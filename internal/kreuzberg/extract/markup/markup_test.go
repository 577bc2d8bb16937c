package markup

import (
	"context"
	"strings"
	"testing"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
)

func TestSplitFrontmatterExtractsYAMLBlock(t *testing.T) {
	content := "---\ntitle: Hello\n---\nBody text\n"
	yamlBlock, body, found := splitFrontmatter(content)
	if !found {
		t.Fatal("expected frontmatter to be found")
	}
	if !strings.Contains(yamlBlock, "title: Hello") {
		t.Errorf("unexpected yaml block: %q", yamlBlock)
	}
	if strings.TrimSpace(body) != "Body text" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestSplitFrontmatterNoneFound(t *testing.T) {
	_, body, found := splitFrontmatter("# Just a heading\n")
	if found {
		t.Fatal("expected no frontmatter")
	}
	if !strings.Contains(body, "Just a heading") {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestMarkdownExtractorUsesFrontmatterTitle(t *testing.T) {
	content := "---\ntitle: My Doc\ntags: [a, b]\n---\n# Heading\n\nSome text.\n\n| a | b |\n| --- | --- |\n| 1 | 2 |\n"
	e := NewMarkdown()
	result, err := e.ExtractBytes(context.Background(), []byte(content), "text/markdown", kconfig.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metadata.Title != "My Doc" {
		t.Errorf("expected frontmatter title, got %q", result.Metadata.Title)
	}
	if len(result.Metadata.Keywords) != 2 {
		t.Errorf("expected 2 keywords, got %v", result.Metadata.Keywords)
	}
	if len(result.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(result.Tables))
	}
}

func TestMarkdownExtractorFallsBackToFirstHeading(t *testing.T) {
	e := NewMarkdown()
	result, err := e.ExtractBytes(context.Background(), []byte("# First Heading\n\nbody\n"), "text/markdown", kconfig.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metadata.Title != "First Heading" {
		t.Errorf("expected title from first heading, got %q", result.Metadata.Title)
	}
}

func TestDjotExtractorParsesHeadingsAndTables(t *testing.T) {
	content := "# Title One\n\nparagraph text\n\n| x | y |\n| --- | --- |\n| 1 | 2 |\n"
	e := NewDjot()
	result, err := e.ExtractBytes(context.Background(), []byte(content), "text/x-djot", kconfig.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metadata.Title != "Title One" {
		t.Errorf("expected title Title One, got %q", result.Metadata.Title)
	}
	if len(result.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(result.Tables))
	}
}

const jatsSample = `<article article-type="research-article">
<front>
<journal-meta><journal-title-group><journal-title>Example Journal</journal-title></journal-title-group></journal-meta>
<article-meta>
<article-id pub-id-type="doi">10.1000/example</article-id>
<title-group><article-title>Example Article</article-title></title-group>
<contrib-group><contrib><name><surname>Doe</surname><given-names>Jane</given-names></name></contrib></contrib-group>
<kwd-group><kwd>science</kwd><kwd>research</kwd></kwd-group>
<volume>12</volume><issue>3</issue><fpage>100</fpage><lpage>110</lpage>
</article-meta>
</front>
<body><sec><title>Introduction</title><p>Some intro text.</p></sec></body>
</article>`

func TestJATSExtractorBuildsSubjectJoin(t *testing.T) {
	e := NewJATS()
	result, err := e.ExtractBytes(context.Background(), []byte(jatsSample), "application/jats+xml", kconfig.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metadata.Title != "Example Article" {
		t.Errorf("expected title Example Article, got %q", result.Metadata.Title)
	}
	if !strings.Contains(result.Metadata.Subject, "DOI: 10.1000/example") {
		t.Errorf("expected DOI in subject join, got %q", result.Metadata.Subject)
	}
	if !strings.Contains(result.Content, "# Introduction") {
		t.Errorf("expected flattened section heading, got %q", result.Content)
	}
}
