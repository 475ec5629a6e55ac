package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestText_Plain(t *testing.T) {
	text, err := Text("text/plain", []byte("  hello world\n"))
	assert.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestText_PlainWithCharset(t *testing.T) {
	text, err := Text("text/plain; charset=utf-8", []byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestText_UnsupportedTypesYieldEmpty(t *testing.T) {
	for _, ct := range []string{
		"image/png",
		"image/jpeg",
		"application/msword",
		"application/vnd.ms-powerpoint",
		"application/vnd.ms-excel",
		"application/octet-stream",
	} {
		text, err := Text(ct, []byte{0x01, 0x02})
		assert.NoError(t, err, ct)
		assert.Empty(t, text, ct)
	}
}

func TestText_Docx(t *testing.T) {
	const documentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph</w:t></w:r></w:p>
  </w:body>
</w:document>`
	data := buildZip(t, map[string]string{"word/document.xml": documentXML})

	text, err := Text("application/vnd.openxmlformats-officedocument.wordprocessingml.document", data)

	assert.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond paragraph", text)
}

func TestText_DocxMissingDocumentXML(t *testing.T) {
	data := buildZip(t, map[string]string{"word/styles.xml": "<styles/>"})

	text, err := Text("application/vnd.openxmlformats-officedocument.wordprocessingml.document", data)

	assert.NoError(t, err)
	assert.Empty(t, text)
}

func TestText_DocxMalformedArchive(t *testing.T) {
	_, err := Text("application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("not a zip"))
	assert.Error(t, err)
}

func TestText_Pptx(t *testing.T) {
	const slideXML = `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree><p:sp><p:txBody>
    <a:p><a:r><a:t>Slide title</a:t></a:r></a:p>
  </p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`
	data := buildZip(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML,
		"ppt/presentation.xml":  "<p:presentation/>",
	})

	text, err := Text("application/vnd.openxmlformats-officedocument.presentationml.presentation", data)

	assert.NoError(t, err)
	assert.Equal(t, "Slide title", text)
}

func TestText_Xlsx(t *testing.T) {
	const sharedStrings = `<?xml version="1.0"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <si><t>Revenue</t></si>
  <si><t>Q3 totals</t></si>
</sst>`
	data := buildZip(t, map[string]string{"xl/sharedStrings.xml": sharedStrings})

	text, err := Text("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)

	assert.NoError(t, err)
	assert.Equal(t, "Revenue Q3 totals", text)
}

func TestText_PdfMalformed(t *testing.T) {
	_, err := Text("application/pdf", []byte("%PDF-1.4 truncated"))
	assert.Error(t, err)
}
