// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract turns uploaded files into prompt-ready text. It never
// returns an error: extraction failures become inline descriptive
// strings so a bad attachment can't break a chat turn.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"
)

// Plain-text and source extensions decoded directly as UTF-8.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".json": true,
	".py": true, ".js": true, ".go": true,
	".html": true, ".css": true,
	".c": true, ".cpp": true, ".java": true,
}

// Extract returns the text content of an uploaded file. Known text
// formats are decoded, PDF and DOCX are parsed, and anything else gets
// a descriptive placeholder. Failures become inline error strings.
func Extract(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case textExtensions[ext]:
		if !utf8.Valid(data) {
			return errorString(name, fmt.Errorf("file is not valid UTF-8"))
		}
		// NFC normalization so combining sequences from different
		// editors compare and render consistently.
		return norm.NFC.String(string(data))

	case ext == ".pdf":
		text, err := extractPDF(data)
		if err != nil {
			return errorString(name, err)
		}
		return text

	case ext == ".docx":
		text, err := extractDOCX(data)
		if err != nil {
			return errorString(name, err)
		}
		return text

	default:
		return fmt.Sprintf("Uploaded file: %s\nFile type: %s\nSize: %d bytes\nThis is a binary or unsupported format.",
			name, ext, len(data))
	}
}

func errorString(name string, err error) string {
	return fmt.Sprintf("Error reading file %s: %v", name, err)
}

// extractPDF concatenates the plain text of every page.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	text, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}

	return norm.NFC.String(string(text)), nil
}

// extractDOCX pulls paragraph text out of word/document.xml. A .docx is
// a zip container; text runs live in <w:t> elements, paragraphs in
// <w:p>.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("no word/document.xml in archive")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var (
		sb      strings.Builder
		decoder = xml.NewDecoder(rc)
		inText  bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(el)
			}
		}
	}

	return norm.NFC.String(strings.TrimRight(sb.String(), "\n")), nil
}
