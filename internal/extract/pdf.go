package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// pdfText extracts the text layer of a PDF. The parser panics on some
// malformed inputs, so the recover converts those into errors.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	return readAllString(plain)
}
