package extract

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// parseBBox decodes the XHTML emitted by `pdftotext -bbox` into fragments.
// The document nests <page width=.. height=..> elements holding one <word>
// per box with xMin/yMin/xMax/yMax attributes. Words in reading order are
// kept in document order; pages are numbered from 0.
func parseBBox(data []byte) ([]Fragment, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// poppler declares an XHTML doctype; we only care about element names
	dec.Strict = false

	var frags []Fragment
	page := -1
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "page":
			page++
		case "word":
			var x, y float64
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "xMin":
					x, _ = strconv.ParseFloat(a.Value, 64)
				case "yMin":
					y, _ = strconv.ParseFloat(a.Value, 64)
				}
			}
			var text string
			if err := dec.DecodeElement(&text, &se); err != nil {
				return nil, err
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			p := page
			if p < 0 {
				p = 0
			}
			frags = append(frags, Fragment{Text: text, X: x, Y: y, Page: p})
		}
	}
	return frags, nil
}
