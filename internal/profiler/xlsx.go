package profiler

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

type workbookXML struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		ID   string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type relationshipsXML struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type sharedStringsXML struct {
	Items []struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// workbook is an opened .xlsx archive.
type workbook struct {
	zr     *zip.Reader
	sheets []string
	paths  map[string]string // sheet name -> archive path
	shared []string
}

func openWorkbook(content []byte) (*workbook, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	wb := &workbook{zr: zr, paths: map[string]string{}}

	var book workbookXML
	if err := wb.decode("xl/workbook.xml", &book); err != nil {
		return nil, err
	}
	var rels relationshipsXML
	if err := wb.decode("xl/_rels/workbook.xml.rels", &rels); err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		targets[r.ID] = archivePath(r.Target)
	}
	for i, s := range book.Sheets {
		p, ok := targets[s.ID]
		if !ok {
			p = fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)
		}
		wb.sheets = append(wb.sheets, s.Name)
		wb.paths[strings.ToLower(s.Name)] = p
	}

	var sst sharedStringsXML
	if err := wb.decode("xl/sharedStrings.xml", &sst); err != nil && !errors.Is(err, errMissingPart) {
		return nil, err
	}
	for _, si := range sst.Items {
		if len(si.Runs) == 0 {
			wb.shared = append(wb.shared, si.T)
			continue
		}
		var sb strings.Builder
		for _, r := range si.Runs {
			sb.WriteString(r.T)
		}
		wb.shared = append(wb.shared, sb.String())
	}
	return wb, nil
}

var errMissingPart = errors.New("missing workbook part")

func (wb *workbook) part(name string) ([]byte, error) {
	for _, f := range wb.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%w: %s", errMissingPart, name)
}

func (wb *workbook) decode(name string, v any) error {
	b, err := wb.part(name)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// ReadXLSX reads one worksheet of an .xlsx workbook. The first row is the
// header. An empty sheet name selects the first sheet.
func ReadXLSX(content []byte, sheet string, maxRows int) (*Table, error) {
	wb, err := openWorkbook(content)
	if err != nil {
		return nil, err
	}
	if len(wb.sheets) == 0 {
		return &Table{}, nil
	}
	if sheet == "" {
		sheet = wb.sheets[0]
	}
	p, ok := wb.paths[strings.ToLower(sheet)]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(wb.sheets, ", "))
	}
	data, err := wb.part(p)
	if err != nil {
		return nil, err
	}

	rows := newRowReader(data, wb.shared)
	header, ok := rows.next()
	if !ok {
		return &Table{}, nil
	}
	t := &Table{Header: normalizeHeader(header)}
	for maxRows <= 0 || len(t.Rows) < maxRows {
		row, ok := rows.next()
		if !ok {
			break
		}
		t.Rows = append(t.Rows, pad(row, len(t.Header)))
	}
	return t, nil
}

// archivePath turns a relationship target into a zip entry name.
func archivePath(target string) string {
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return path.Join("xl", target)
}

// rowReader streams <row> elements out of a worksheet part.
type rowReader struct {
	dec    *xml.Decoder
	shared []string
}

func newRowReader(data []byte, shared []string) *rowReader {
	return &rowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

type cellXML struct {
	Ref    string `xml:"r,attr"`
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline struct {
		T string `xml:"t"`
	} `xml:"is"`
}

type rowXML struct {
	Cells []cellXML `xml:"c"`
}

func (r *rowReader) next() ([]string, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		var row rowXML
		if err := r.dec.DecodeElement(&row, &se); err != nil {
			return nil, false
		}
		var out []string
		for i, c := range row.Cells {
			idx := i
			if c.Ref != "" {
				idx = columnIndex(c.Ref)
			}
			if idx < 0 {
				continue
			}
			for len(out) <= idx {
				out = append(out, "")
			}
			out[idx] = r.cellText(c)
		}
		return out, true
	}
}

func (r *rowReader) cellText(c cellXML) string {
	switch c.Type {
	case "s":
		var idx int
		if _, err := fmt.Sscanf(c.Value, "%d", &idx); err != nil || idx < 0 || idx >= len(r.shared) {
			return ""
		}
		return r.shared[idx]
	case "inlineStr":
		return c.Inline.T
	case "b":
		if c.Value == "1" {
			return "true"
		}
		return "false"
	}
	return c.Value
}

// columnIndex maps a cell reference like "C12" to a 0-based column.
func columnIndex(ref string) int {
	idx := 0
	n := 0
	for _, ch := range strings.ToUpper(ref) {
		if ch < 'A' || ch > 'Z' {
			break
		}
		idx = idx*26 + int(ch-'A'+1)
		n++
	}
	if n == 0 {
		return -1
	}
	return idx - 1
}
