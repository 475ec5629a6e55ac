// Package extract pulls plain text out of uploaded files for indexing.
// Formats without a text layer (images, legacy Office binaries) yield an
// empty string rather than an error; the document is still searchable by
// its metadata.
package extract

import (
	"io"
	"strings"
)

const (
	mimePDF  = "application/pdf"
	mimeText = "text/plain"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePptx = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Text extracts the searchable text for the given content type.
// Unsupported content types return "" with no error.
func Text(contentType string, data []byte) (string, error) {
	switch normalizeContentType(contentType) {
	case mimeText:
		return strings.TrimSpace(string(data)), nil
	case mimePDF:
		return pdfText(data)
	case mimeDocx:
		return docxText(data)
	case mimePptx:
		return pptxText(data)
	case mimeXlsx:
		return xlsxText(data)
	default:
		return "", nil
	}
}

// normalizeContentType strips parameters like "; charset=utf-8".
func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func readAllString(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
