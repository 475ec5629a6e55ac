package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// docxText extracts paragraph text from word/document.xml.
func docxText(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening docx archive: %w", err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return "", err
		}
		return parseDocumentXML(content), nil
	}
	return "", nil
}

// documentXML mirrors the paragraph/run/text nesting of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				result.WriteString(t.Content)
			}
		}
	}
	return strings.TrimSpace(result.String())
}

// pptxText extracts text runs from every slide, in slide order.
func pptxText(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pptx archive: %w", err)
	}

	var slides []*zip.File
	for _, file := range reader.File {
		if strings.HasPrefix(file.Name, "ppt/slides/slide") && strings.HasSuffix(file.Name, ".xml") {
			slides = append(slides, file)
		}
	}
	sort.Slice(slides, func(a, b int) bool { return slides[a].Name < slides[b].Name })

	var result strings.Builder
	for _, file := range slides {
		content, err := readZipFile(file)
		if err != nil {
			return "", err
		}
		text := collectTextElements(content)
		if text == "" {
			continue
		}
		if result.Len() > 0 {
			result.WriteString("\n")
		}
		result.WriteString(text)
	}
	return result.String(), nil
}

// xlsxText extracts the shared string table, which holds the workbook's
// cell text.
func xlsxText(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening xlsx archive: %w", err)
	}

	for _, file := range reader.File {
		if file.Name != "xl/sharedStrings.xml" {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return "", err
		}
		return collectTextElements(content), nil
	}
	return "", nil
}

// collectTextElements walks the XML token stream and gathers the character
// data of every <t> element, space-separated. The element name is the same
// in DrawingML runs and spreadsheet shared strings.
func collectTextElements(content []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(content))
	var result strings.Builder
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				depth++
			}
		case xml.EndElement:
			if el.Name.Local == "t" && depth > 0 {
				depth--
			}
		case xml.CharData:
			if depth > 0 {
				if result.Len() > 0 {
					result.WriteString(" ")
				}
				result.Write(el)
			}
		}
	}
	return strings.TrimSpace(result.String())
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file.Name, err)
	}
	return content, nil
}
