// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"
)

func TestExtractPlainText(t *testing.T) {
	got := Extract("notes.txt", []byte("hello world\nsecond line"))
	if got != "hello world\nsecond line" {
		t.Errorf("Extract = %q", got)
	}
}

func TestExtractSourceFile(t *testing.T) {
	src := "package main\n\nfunc main() {}\n"
	if got := Extract("main.go", []byte(src)); got != src {
		t.Errorf("Extract = %q", got)
	}
}

func TestExtractInvalidUTF8(t *testing.T) {
	got := Extract("bad.txt", []byte{0xff, 0xfe, 0xfd})
	if !strings.HasPrefix(got, "Error reading file bad.txt:") {
		t.Errorf("invalid UTF-8 should produce inline error, got %q", got)
	}
}

func TestExtractBinaryPlaceholder(t *testing.T) {
	got := Extract("image.png", []byte{0x89, 0x50, 0x4e, 0x47})
	if !strings.Contains(got, "Uploaded file: image.png") {
		t.Errorf("placeholder missing name: %q", got)
	}
	if !strings.Contains(got, "File type: .png") {
		t.Errorf("placeholder missing type: %q", got)
	}
	if !strings.Contains(got, "Size: 4 bytes") {
		t.Errorf("placeholder missing size: %q", got)
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	got := Extract("doc.pdf", []byte("not a pdf at all"))
	if !strings.HasPrefix(got, "Error reading file doc.pdf:") {
		t.Errorf("corrupt PDF should produce inline error, got %q", got)
	}
}

func TestExtractDOCX(t *testing.T) {
	const documentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	got := Extract("report.docx", buf.Bytes())
	if !strings.Contains(got, "First paragraph.") {
		t.Errorf("missing first paragraph: %q", got)
	}
	if !strings.Contains(got, "Second paragraph.") {
		t.Errorf("split runs not joined: %q", got)
	}
	if !strings.Contains(got, "First paragraph.\n") {
		t.Errorf("paragraphs not newline separated: %q", got)
	}
}

func TestExtractDOCXWithoutDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, _ := zw.Create("something/else.xml")
	f.Write([]byte("<x/>"))
	zw.Close()

	got := Extract("empty.docx", buf.Bytes())
	if !strings.HasPrefix(got, "Error reading file empty.docx:") {
		t.Errorf("missing document.xml should produce inline error, got %q", got)
	}
}

func TestExtractCorruptDOCX(t *testing.T) {
	got := Extract("broken.docx", []byte("this is not a zip"))
	if !strings.HasPrefix(got, "Error reading file broken.docx:") {
		t.Errorf("corrupt DOCX should produce inline error, got %q", got)
	}
}
