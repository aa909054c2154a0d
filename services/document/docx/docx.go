// Package docx renders report documents as minimal WordprocessingML (.docx) packages.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/classbook/core/report"
)

const contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type Renderer struct{}

var _ report.Renderer = Renderer{}

func NewRenderer() Renderer { return Renderer{} }

func (Renderer) Extension() string   { return "docx" }
func (Renderer) ContentType() string { return contentType }

// Render writes doc as a .docx zip package to w.
func (Renderer) Render(w io.Writer, doc report.Document) error {
	zw := zip.NewWriter(w)
	parts := []struct {
		name, content string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
		{"word/document.xml", documentXML(doc)},
	}
	for _, part := range parts {
		fw, err := zw.Create(part.name)
		if err != nil {
			return errors.Wrapf(err, "creating %s", part.name)
		}
		if _, err = io.WriteString(fw, part.content); err != nil {
			return errors.Wrapf(err, "writing %s", part.name)
		}
	}
	return errors.Wrap(zw.Close(), "closing docx package")
}

func documentXML(doc report.Document) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	writeParagraph(&b, doc.Title, "Title", false)
	for _, p := range doc.Paragraphs {
		writeParagraph(&b, p, "", false)
	}
	if doc.Table != nil {
		writeTable(&b, doc.Table)
	}

	b.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>`)
	b.WriteString(`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`)
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func writeParagraph(b *strings.Builder, text, style string, bold bool) {
	b.WriteString(`<w:p>`)
	if style != "" {
		b.WriteString(`<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`)
	}
	writeRun(b, text, bold)
	b.WriteString(`</w:p>`)
}

// writeRun writes text as a single run, turning "\n" into line breaks.
func writeRun(b *strings.Builder, text string, bold bool) {
	b.WriteString(`<w:r>`)
	if bold {
		b.WriteString(`<w:rPr><w:b/></w:rPr>`)
	}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString(`<w:br/>`)
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		_ = xml.EscapeText(b, []byte(line))
		b.WriteString(`</w:t>`)
	}
	b.WriteString(`</w:r>`)
}

func writeTable(b *strings.Builder, tbl *report.Table) {
	b.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="0" w:type="auto"/></w:tblPr><w:tblGrid>`)
	for range tbl.Header {
		b.WriteString(`<w:gridCol/>`)
	}
	b.WriteString(`</w:tblGrid>`)

	writeRow(b, tbl.Header, true)
	for _, row := range tbl.Rows {
		writeRow(b, row, false)
	}
	b.WriteString(`</w:tbl>`)
	// a table cannot end the body
	b.WriteString(`<w:p/>`)
}

func writeRow(b *strings.Builder, cells []string, header bool) {
	b.WriteString(`<w:tr>`)
	if header {
		b.WriteString(`<w:trPr><w:tblHeader/></w:trPr>`)
	}
	for _, cell := range cells {
		b.WriteString(`<w:tc>`)
		writeParagraph(b, cell, "", header)
		b.WriteString(`</w:tc>`)
	}
	b.WriteString(`</w:tr>`)
}

const contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`</Types>`

const rootRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

const stylesXML = xml.Header + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:pPr><w:spacing w:after="120"/></w:pPr>` +
	`<w:rPr><w:sz w:val="22"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/>` +
	`<w:pPr><w:spacing w:after="240"/></w:pPr><w:rPr><w:b/><w:sz w:val="36"/></w:rPr></w:style>` +
	`<w:style w:type="table" w:styleId="TableGrid"><w:name w:val="Table Grid"/><w:tblPr><w:tblBorders>` +
	`<w:top w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:left w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:bottom w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:right w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`<w:insideH w:val="single" w:sz="4" w:space="0" w:color="auto"/><w:insideV w:val="single" w:sz="4" w:space="0" w:color="auto"/>` +
	`</w:tblBorders></w:tblPr></w:style>` +
	`</w:styles>`
