package watermark

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// pdfPage is one page of a document assembled by buildDocument.
type pdfPage struct {
	width, height float64
	content       []byte
	// font is the base font bound to /F1, empty for pages without text.
	font string
	// alpha, when set, is exposed as /GS1 with matching fill and stroke alpha.
	alpha *float64
}

// buildDocument serializes pages into a classic xref-table PDF. The output carries
// no /Info dictionary and no /ID, so identical pages yield identical bytes.
func buildDocument(pages []pdfPage) []byte {
	var objects [][]byte
	add := func(body string) int {
		objects = append(objects, []byte(body))
		return len(objects)
	}
	addStream := func(dict string, data []byte) int {
		var b bytes.Buffer
		fmt.Fprintf(&b, "<< %s/Length %d >>\nstream\n", dict, len(data))
		b.Write(data)
		b.WriteString("\nendstream")
		objects = append(objects, b.Bytes())
		return len(objects)
	}

	catalog := add("") // patched once the page tree number is known
	pagesObj := add("")

	fonts := map[string]int{}
	kids := make([]string, 0, len(pages))
	for _, p := range pages {
		var res strings.Builder
		if p.font != "" {
			fontObj, ok := fonts[p.font]
			if !ok {
				fontObj = add(fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding >>", p.font))
				fonts[p.font] = fontObj
			}
			fmt.Fprintf(&res, "/Font << /F1 %d 0 R >> ", fontObj)
		}
		if p.alpha != nil {
			gs := add(fmt.Sprintf("<< /Type /ExtGState /ca %s /CA %s >>", num(*p.alpha), num(*p.alpha)))
			fmt.Fprintf(&res, "/ExtGState << /GS1 %d 0 R >> ", gs)
		}
		contents := addStream("", p.content)
		page := add(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %s %s] /Resources << %s>> /Contents %d 0 R >>",
			pagesObj, num(p.width), num(p.height), res.String(), contents,
		))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}

	objects[catalog-1] = []byte(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj))
	objects[pagesObj-1] = []byte(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	buf.Write([]byte{0x25, 0xE2, 0xE3, 0xCF, 0xD3, 0x0A})

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		buf.Write(obj)
		buf.WriteString("\nendobj\n")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	fmt.Fprintf(&buf, "%010d %05d f \n", 0, 65535)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d %05d n \n", off, 0)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\n", len(objects)+1, catalog)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

// num formats a coordinate with at most four decimals and no trailing zeros.
func num(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// pdfString encodes s as a literal string in WinAnsi. Runes outside Latin-1 are
// rejected since the standard fonts cannot show them.
func pdfString(s string) (string, error) {
	var b strings.Builder
	b.WriteByte('(')
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r >= 0x20 && r < 0x7F:
			b.WriteRune(r)
		case r >= 0xA0 && r <= 0xFF:
			fmt.Fprintf(&b, "\\%03o", r)
		default:
			return "", fmt.Errorf("character %q cannot be drawn with a standard font", r)
		}
	}
	b.WriteByte(')')
	return b.String(), nil
}
