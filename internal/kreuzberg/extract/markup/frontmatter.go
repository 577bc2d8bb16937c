// Package markup implements the Markdown, Djot, and JATS extractors
// (C5.5), sharing a single YAML-frontmatter parser per spec §4.5.5.
package markup

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
)

// frontmatterResult is the decoded "---\n...\n---" preamble, mapped onto the
// common metadata fields with anything unrecognized preserved in Additional.
type frontmatterResult struct {
	meta kdoc.Metadata
	body string
}

func splitFrontmatter(content string) (yamlBlock string, body string, found bool) {
	trimmed := strings.TrimLeft(content, "﻿")
	if !strings.HasPrefix(trimmed, "---") {
		return "", content, false
	}
	rest := trimmed[3:]
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", content, false
	}
	yamlBlock = rest[:end]
	afterMarker := rest[end+4:]
	afterMarker = strings.TrimPrefix(afterMarker, "\r\n")
	afterMarker = strings.TrimPrefix(afterMarker, "\n")
	return yamlBlock, afterMarker, true
}

func parseFrontmatter(content string) frontmatterResult {
	yamlBlock, body, found := splitFrontmatter(content)
	result := frontmatterResult{body: body}
	if !found {
		result.body = content
		return result
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlBlock), &raw); err != nil {
		// Malformed frontmatter is left in the body untouched.
		result.body = content
		return result
	}

	m := kdoc.Metadata{Additional: map[string]interface{}{}}
	for k, v := range raw {
		switch strings.ToLower(k) {
		case "title":
			m.Title = toStr(v)
		case "author":
			m.Authors = append(m.Authors, toStr(v))
		case "authors":
			m.Authors = append(m.Authors, toStrSlice(v)...)
		case "date":
			m.CreatedAt = toStr(v)
		case "keywords", "tags":
			m.Keywords = append(m.Keywords, toStrSlice(v)...)
		case "description":
			m.Subject = toStr(v)
		case "subject":
			if m.Subject == "" {
				m.Subject = toStr(v)
			}
		case "language":
			m.Language = toStr(v)
		case "abstract", "category", "version":
			m.Additional[strings.ToLower(k)] = v
		default:
			m.Additional[k] = v
		}
	}
	if len(m.Additional) == 0 {
		m.Additional = nil
	}
	result.meta = m
	return result
}

func toStr(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return yamlScalarString(v)
	}
}

func yamlScalarString(v interface{}) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func toStrSlice(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, toStr(item))
		}
		return out
	case string:
		return []string{t}
	default:
		return nil
	}
}
