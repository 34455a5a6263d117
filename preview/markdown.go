// Package preview renders Confluence content as Markdown, so it can be looked at before being
// copied.
package preview

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	mdplugin "github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/toothbrush/confluence-copy/confluence"
)

// Header is the YAML front matter of a rendered document.
type Header struct {
	Title         string    `yaml:"title"`
	Timestamp     time.Time `yaml:"date,omitempty"`
	Version       int       `yaml:"version,omitempty"`
	ObjectID      string    `yaml:"object_id"`
	URI           string    `yaml:"uri,omitempty"`
	Status        string    `yaml:"status,omitempty"`
	ObjectType    string    `yaml:"object_type"`
	Space         string    `yaml:"space,omitempty"`
	AncestorNames []string  `yaml:"ancestor_names,omitempty"`
	AncestorIDs   []string  `yaml:"ancestor_ids,omitempty"`
}

type Document struct {
	Header   Header
	Markdown string

	// RelativePath is space key, then ancestor slugs, then the document's own slug.
	RelativePath string
}

// String is the document as it would be written to disk: front matter, then Markdown.
func (d Document) String() string {
	yamlHeader, err := yaml.Marshal(d.Header)
	if err != nil {
		// Header only holds plain values.
		panic(err)
	}

	return fmt.Sprintf(`---
%s
---
%s
`,
		strings.TrimSpace(string(yamlHeader)),
		d.Markdown)
}

type Converter struct {
	baseURI   *url.URL
	converter *md.Converter
}

func NewConverter(baseURI *url.URL) *Converter {
	// md.NewConverter only accepts a hostname, not a base URI, so the scheme gets patched in
	// here.  See https://github.com/JohannesKaufmann/html-to-markdown/issues/44
	opt := &md.Options{
		GetAbsoluteURL: func(_ *goquery.Selection, rawURL string, domain string) string {
			if domain == "" {
				return rawURL
			}

			u, err := url.Parse(rawURL)
			if err != nil {
				return rawURL
			}

			if u.Scheme == "data" {
				// inline base64 image and friends
				return rawURL
			}

			if u.Scheme == "" {
				u.Scheme = baseURI.Scheme
			}
			if u.Host == "" {
				u.Host = domain
			}

			return u.String()
		},
	}

	converter := md.NewConverter(baseURI.Host, true, opt)
	converter.Use(mdplugin.GitHubFlavored())

	return &Converter{baseURI: baseURI, converter: converter}
}

// Convert renders content.  The rendered view body is used when it was expanded, the storage
// body otherwise.
func (c *Converter) Convert(content confluence.Content) (Document, error) {
	if content.Body == nil {
		return Document{}, errors.Errorf("preview: content %s has no body, was it expanded?", content.ID)
	}
	html := content.Body.Storage.Value
	if content.Body.View != nil {
		html = content.Body.View.Value
	}

	markdown, err := c.converter.ConvertString(html)
	if err != nil {
		return Document{}, errors.Errorf("preview: failed to convert to Markdown: %w", err)
	}

	header := Header{
		Title:      content.Title,
		ObjectID:   content.ID,
		Status:     content.Status,
		ObjectType: content.Type,
	}

	if content.Links.WebUI != "" {
		webURI, err := c.baseURI.Parse(strings.TrimPrefix(content.Links.WebUI, "/"))
		if err != nil {
			return Document{}, errors.Errorf("preview: generated URL is bunk: %w", err)
		}
		header.URI = webURI.String()
	}

	if content.Space != nil {
		header.Space = content.Space.Key
	}

	if content.Version != nil {
		header.Version = content.Version.Number
		if content.Version.When != "" {
			timestamp, err := time.Parse(time.RFC3339, content.Version.When)
			if err != nil {
				return Document{}, errors.Errorf("preview: couldn't parse timestamp %s: %w", content.Version.When, err)
			}
			header.Timestamp = timestamp
		}
	}

	pathParts := []string{header.Space}
	for _, ancestor := range content.Ancestors {
		header.AncestorIDs = append(header.AncestorIDs, ancestor.ID)
		header.AncestorNames = append(header.AncestorNames, ancestor.Title)
		pathParts = append(pathParts, slugOrID(ancestor.Title, ancestor.ID))
	}
	pathParts = append(pathParts, slugOrID(content.Title, content.ID)+".md")

	return Document{
		Header:       header,
		Markdown:     markdown,
		RelativePath: path.Join(pathParts...),
	}, nil
}

func slugOrID(title, id string) string {
	slug, err := canonicalise(title)
	if err != nil {
		return id
	}
	return slug
}
