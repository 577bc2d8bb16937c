package markup

import (
	"context"
	"encoding/xml"
	"strings"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/extract"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kconfig"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kerrors"
)

// JATSExtractor walks the JATS XML schema (title, subtitle, contributors,
// affiliations, identifiers, keywords, dates, volume/issue/pages, journal
// title, article type, abstract, corresponding author) and flattens section
// hierarchy into markdown headings, per spec §4.5.5.
type JATSExtractor struct {
	extract.Stateless
}

func NewJATS() *JATSExtractor { return &JATSExtractor{} }

func (e *JATSExtractor) Name() string { return "jats" }

func (e *JATSExtractor) SupportedMIMETypes() []string {
	return []string{"application/jats+xml"}
}

type jatsArticle struct {
	ArticleType string `xml:"article-type,attr"`
	Front       struct {
		JournalMeta struct {
			JournalTitle string `xml:"journal-title-group>journal-title"`
		} `xml:"journal-meta"`
		ArticleMeta struct {
			ArticleIDs []struct {
				Type  string `xml:"pub-id-type,attr"`
				Value string `xml:",chardata"`
			} `xml:"article-id"`
			TitleGroup struct {
				ArticleTitle string `xml:"article-title"`
				Subtitle     string `xml:"subtitle"`
			} `xml:"title-group"`
			ContribGroup struct {
				Contribs []struct {
					Surname  string `xml:"name>surname"`
					GivenNames string `xml:"name>given-names"`
					Corresp  string `xml:"corresp,attr"`
				} `xml:"contrib"`
			} `xml:"contrib-group"`
			Affs []struct {
				Text string `xml:",chardata"`
			} `xml:"aff"`
			KwdGroup struct {
				Kwds []string `xml:"kwd"`
			} `xml:"kwd-group"`
			PubDate struct {
				Year  string `xml:"year"`
				Month string `xml:"month"`
				Day   string `xml:"day"`
			} `xml:"pub-date"`
			Volume  string `xml:"volume"`
			Issue   string `xml:"issue"`
			FPage   string `xml:"fpage"`
			LPage   string `xml:"lpage"`
			Abstract struct {
				Text string `xml:",innerxml"`
			} `xml:"abstract"`
		} `xml:"article-meta"`
	} `xml:"front"`
	Body struct {
		Secs []jatsSection `xml:"sec"`
	} `xml:"body"`
}

type jatsSection struct {
	Title string        `xml:"title"`
	Ps    []string      `xml:"p"`
	Secs  []jatsSection `xml:"sec"`
	Tables []jatsTableWrap `xml:"table-wrap"`
}

type jatsTableWrap struct {
	Label string `xml:"label"`
	Table struct {
		Thead struct {
			Rows []jatsTR `xml:"tr"`
		} `xml:"thead"`
		Tbody struct {
			Rows []jatsTR `xml:"tr"`
		} `xml:"tbody"`
	} `xml:"table"`
}

type jatsTR struct {
	Cells []string `xml:"td"`
}

func (e *JATSExtractor) ExtractBytes(ctx context.Context, content []byte, mimeHint string, cfg *kconfig.ExtractionConfig) (*kdoc.ExtractionResult, error) {
	var a jatsArticle
	if err := xml.Unmarshal(content, &a); err != nil {
		return nil, kerrors.NewParsing("jats", err)
	}

	am := a.Front.ArticleMeta
	var doi, pii string
	for _, id := range am.ArticleIDs {
		switch id.Type {
		case "doi":
			doi = strings.TrimSpace(id.Value)
		case "pii":
			pii = strings.TrimSpace(id.Value)
		}
	}

	var authors []string
	var corresponding string
	for _, c := range am.ContribGroup.Contribs {
		name := strings.TrimSpace(c.GivenNames + " " + c.Surname)
		authors = append(authors, name)
		if c.Corresp == "yes" {
			corresponding = name
		}
	}

	var affiliations []string
	for _, aff := range am.Affs {
		affiliations = append(affiliations, strings.TrimSpace(aff.Text))
	}

	pubDate := strings.TrimSpace(am.PubDate.Year + "-" + am.PubDate.Month + "-" + am.PubDate.Day)

	var body strings.Builder
	var tables []kdoc.Table
	renderSections(a.Body.Secs, 1, &body, &tables)

	subjectFields := []struct{ key, value string }{
		{"Title", am.TitleGroup.ArticleTitle},
		{"Subtitle", am.TitleGroup.Subtitle},
		{"Authors", strings.Join(authors, "; ")},
		{"Affiliations", strings.Join(affiliations, "; ")},
		{"DOI", doi},
		{"PII", pii},
		{"Keywords", strings.Join(am.KwdGroup.Kwds, ", ")},
		{"Publication date", pubDate},
		{"Volume", am.Volume},
		{"Issue", am.Issue},
		{"Pages", strings.TrimSpace(am.FPage + "-" + am.LPage)},
		{"Journal", a.Front.JournalMeta.JournalTitle},
		{"Article type", a.ArticleType},
		{"Corresponding author", corresponding},
	}
	var subjectParts []string
	for _, f := range subjectFields {
		if f.value != "" && f.value != "-" {
			subjectParts = append(subjectParts, f.key+": "+f.value)
		}
	}

	meta := kdoc.Metadata{
		Title:     am.TitleGroup.ArticleTitle,
		Authors:   authors,
		Keywords:  am.KwdGroup.Kwds,
		CreatedAt: pubDate,
		Subject:   strings.Join(subjectParts, " | "),
	}
	meta.WithXML(kdoc.XMLMetadata{RootElement: "article"})

	return &kdoc.ExtractionResult{
		Content:  strings.TrimSpace(body.String()),
		MimeType: "application/jats+xml",
		Metadata: meta,
		Tables:   tables,
	}, nil
}

func renderSections(secs []jatsSection, level int, body *strings.Builder, tables *[]kdoc.Table) {
	for _, s := range secs {
		if s.Title != "" {
			body.WriteString(strings.Repeat("#", level) + " " + s.Title + "\n\n")
		}
		for _, p := range s.Ps {
			body.WriteString(strings.TrimSpace(p) + "\n\n")
		}
		for _, tw := range s.Tables {
			rows := jatsTableRows(tw)
			md := renderPipeTableMarkdown(rows)
			body.WriteString(md + "\n\n")
			*tables = append(*tables, kdoc.Table{Cells: rows, Markdown: md})
		}
		if len(s.Secs) > 0 {
			renderSections(s.Secs, level+1, body, tables)
		}
	}
}

func jatsTableRows(tw jatsTableWrap) [][]string {
	var rows [][]string
	for _, r := range tw.Table.Thead.Rows {
		rows = append(rows, r.Cells)
	}
	for _, r := range tw.Table.Tbody.Rows {
		rows = append(rows, r.Cells)
	}
	return rows
}
