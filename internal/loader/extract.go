package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"docchat/internal/domain"
)

func extractText(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []domain.Document{{Content: string(data)}}, nil
}

func extractMarkdown(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []domain.Document{{Content: StripMarkdown(string(data))}}, nil
}

var (
	mdCodeFence  = regexp.MustCompile("(?s)```[^\n]*\n?(.*?)```")
	mdInlineCode = regexp.MustCompile("`([^`]+)`")
	mdImage      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading    = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	mdEmphasis   = regexp.MustCompile(`(\*\*|__|\*|_)([^*_\n]+)(\*\*|__|\*|_)`)
	mdQuote      = regexp.MustCompile(`(?m)^>[ \t]?`)
	mdRule       = regexp.MustCompile(`(?m)^[-*_]{3,}[ \t]*$`)
	mdBullet     = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	mdNumbered   = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	mdBlankRuns  = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown reduces markdown to plain text. Code contents are kept since
// they often carry the answer to a question about the document.
func StripMarkdown(content string) string {
	content = mdCodeFence.ReplaceAllString(content, "$1")
	content = mdInlineCode.ReplaceAllString(content, "$1")
	content = mdImage.ReplaceAllString(content, "$1")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdEmphasis.ReplaceAllString(content, "$2")
	content = mdQuote.ReplaceAllString(content, "")
	content = mdRule.ReplaceAllString(content, "")
	content = mdBullet.ReplaceAllString(content, "")
	content = mdNumbered.ReplaceAllString(content, "")
	content = mdBlankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// docxText walks word/document.xml and returns the text of every paragraph in
// document order, one per line. Paragraphs nested in tables and text boxes are
// included; a paragraph inside another is emitted before its parent.
func docxText(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		paragraphs []string
		open       []*strings.Builder
		inRun      int
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				open = append(open, &strings.Builder{})
			case "r":
				inRun++
			case "t":
				inText = true
			case "tab":
				// Tab stops in paragraph properties are not text.
				if inRun > 0 && len(open) > 0 {
					open[len(open)-1].WriteByte('\t')
				}
			case "br", "cr":
				if inRun > 0 && len(open) > 0 {
					open[len(open)-1].WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "p":
				if len(open) > 0 {
					paragraphs = append(paragraphs, open[len(open)-1].String())
					open = open[:len(open)-1]
				}
			case "r":
				inRun--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && len(open) > 0 {
				open[len(open)-1].Write(el)
			}
		}
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n")), nil
}

func extractDocx(path string) ([]domain.Document, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		text, err := docxText(data)
		if err != nil {
			return nil, fmt.Errorf("parse docx: %w", err)
		}
		return []domain.Document{{Content: text}}, nil
	}
	return nil, fmt.Errorf("docx %s has no word/document.xml", path)
}

// extractPDF emits one document per non-empty page, labelled with its page number.
func extractPDF(path string) ([]domain.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var docs []domain.Document
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, domain.Document{
			Content:  text,
			Metadata: map[string]any{"page_label": strconv.Itoa(i)},
		})
	}
	return docs, nil
}
