package loader

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"docchat/internal/domain"
	"docchat/internal/pkg/logger"
)

var defaultExts = []string{".pdf", ".txt", ".md", ".docx"}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeDocx(t *testing.T, dir, name string, paragraphs ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	body := `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	for _, p := range paragraphs {
		body += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	body += `</w:body></w:document>`
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func stubPDF(path string) ([]domain.Document, error) {
	return []domain.Document{{Content: "pdf page", Metadata: map[string]any{"page_label": "1"}}}, nil
}

func names(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = filepath.Base(d.Path)
	}
	return out
}

func TestLoad_FiltersByAllowList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "plain text")
	writeFile(t, dir, "b.md", "# Title\n\nSome **bold** words.")
	writeDocx(t, dir, "c.docx", "Hello", "World")
	writeFile(t, dir, "d.pdf", "%PDF-stub")
	writeFile(t, dir, "e.csv", "x,y")
	writeFile(t, dir, "f.json", "{}")
	writeFile(t, dir, "noext", "ignored")

	l := New(dir, defaultExts, WithExtractor("pdf", stubPDF))
	docs, err := l.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.md", "c.docx", "d.pdf"}, names(docs))
	assert.Equal(t, "plain text", docs[0].Content)
	assert.Equal(t, "Title\n\nSome bold words.", docs[1].Content)
	assert.Equal(t, "Hello\nWorld", docs[2].Content)
	assert.Equal(t, "1", docs[3].Metadata["page_label"])
}

func TestLoad_EachAllowedExtensionIncluded(t *testing.T) {
	for _, ext := range defaultExts {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			name := "doc" + ext
			if ext == ".docx" {
				writeDocx(t, dir, name, "text")
			} else {
				writeFile(t, dir, name, "text")
			}
			writeFile(t, dir, "skip.xyz", "text")

			docs, err := New(dir, defaultExts, WithExtractor(".pdf", stubPDF)).Load(context.Background())

			require.NoError(t, err)
			assert.Equal(t, []string{name}, names(docs))
		})
	}
}

func TestLoad_ExtensionMatchIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "UPPER.TXT", "shout")

	docs, err := New(dir, []string{"txt"}).Load(context.Background())

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "shout", docs[0].Content)
}

func TestLoad_MetadataAndStableIDs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "hello")

	first, err := New(dir, defaultExts).Load(context.Background())
	require.NoError(t, err)
	second, err := New(dir, defaultExts).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, first, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, path, first[0].Metadata["file_path"])
	assert.Equal(t, "a.txt", first[0].Metadata["file_name"])
	assert.Equal(t, ".txt", first[0].Metadata["file_type"])
	assert.Equal(t, int64(5), first[0].Metadata["file_size"])
}

func TestLoad_SkipsHiddenAndSubdirsByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".secret.txt", "hidden")
	writeFile(t, dir, "sub/inner.txt", "nested")
	writeFile(t, dir, "top.txt", "top")

	docs, err := New(dir, defaultExts).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"top.txt"}, names(docs))

	docs, err = New(dir, defaultExts, WithRecursive(true)).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"inner.txt", "top.txt"}, names(docs))
}

func TestLoad_EmptyDirectory(t *testing.T) {
	docs, err := New(t.TempDir(), defaultExts).Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), defaultExts).Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrDirectoryNotFound)
}

func TestLoad_FileInsteadOfDirectory(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "x")

	_, err := New(path, defaultExts).Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrDirectoryNotFound)
}

func TestDocxText_IncludesTableParagraphs(t *testing.T) {
	xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>Intro</w:t></w:r></w:p>
<w:tbl><w:tr>
<w:tc><w:p><w:r><w:t>Cell A</w:t></w:r></w:p></w:tc>
<w:tc><w:p><w:r><w:t xml:space="preserve">Cell </w:t></w:r><w:r><w:t>B</w:t></w:r></w:p></w:tc>
</w:tr></w:tbl>
<w:p><w:r><w:t>Name</w:t><w:tab/><w:t>Value</w:t></w:r></w:p>
</w:body></w:document>`

	text, err := docxText([]byte(xmlDoc))

	require.NoError(t, err)
	assert.Equal(t, "Intro\nCell A\nCell B\nName\tValue", text)
}

func TestLoad_UnreadableFileIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "kept")
	writeFile(t, dir, "broken.pdf", "not a pdf at all")
	writeFile(t, dir, "broken.docx", "not a zip either")
	writeFile(t, dir, "z.md", "# also kept")
	core, logs := observer.New(zap.WarnLevel)

	docs, err := New(dir, defaultExts, WithLogger(logger.NewFromZap(zap.New(core)))).Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "z.md"}, names(docs))
	skipped := logs.FilterMessage("failed to load file, skipping").All()
	require.Len(t, skipped, 2)
	for i, name := range []string{"broken.docx", "broken.pdf"} {
		details, ok := skipped[i].ContextMap()["details"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, name), details["path"])
		assert.Error(t, details["error"].(error))
	}
}

func TestLoad_OnlyUnreadableFilesYieldsNoDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.pdf", "not a pdf at all")

	docs, err := New(dir, defaultExts).Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoad_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(dir, defaultExts).Load(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestStripMarkdown(t *testing.T) {
	in := "# Heading\n\n> quoted\n\n- item one\n1. first\n\nSee [docs](http://x) and `code`.\n\n![alt](img.png)\n\n---\n"
	assert.Equal(t, "Heading\n\nquoted\n\nitem one\nfirst\n\nSee docs and code.\n\nalt", StripMarkdown(in))
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, ".pdf", NormalizeExt("PDF"))
	assert.Equal(t, ".md", NormalizeExt(" .md "))
	assert.Equal(t, "", NormalizeExt(""))
}
