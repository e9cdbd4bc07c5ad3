package extractor

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Word 97-2003 File Information Block offsets.
const (
	fibIdent     = 0xA5EC
	fibFlagsOff  = 0x000A
	fibCcpText   = 0x004C
	fibFcClx     = 0x01A2
	fibLcbClx    = 0x01A6
	fibMinLength = 0x01AA

	flagWhichTable = 0x0200
	pcdCompressed  = 0x40000000
)

var errNotWordDocument = errors.New("not a Word 97-2003 document")

func readDOC(_ context.Context, data []byte) (string, error) {
	streams, err := readCompoundStreams(data, "WordDocument", "0Table", "1Table")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnextractableDocument, err)
	}

	wordDoc := streams["WordDocument"]
	if len(wordDoc) < fibMinLength || binary.LittleEndian.Uint16(wordDoc) != fibIdent {
		return "", fmt.Errorf("%w: %v", ErrUnextractableDocument, errNotWordDocument)
	}

	tableName := "0Table"
	if binary.LittleEndian.Uint16(wordDoc[fibFlagsOff:])&flagWhichTable != 0 {
		tableName = "1Table"
	}
	table, ok := streams[tableName]
	if !ok {
		return "", fmt.Errorf("%w: missing %s stream", ErrUnextractableDocument, tableName)
	}

	ccpText := int(binary.LittleEndian.Uint32(wordDoc[fibCcpText:]))
	fcClx := int(binary.LittleEndian.Uint32(wordDoc[fibFcClx:]))
	lcbClx := int(binary.LittleEndian.Uint32(wordDoc[fibLcbClx:]))
	if fcClx < 0 || lcbClx <= 0 || fcClx+lcbClx > len(table) {
		return "", fmt.Errorf("%w: piece table out of range", ErrUnextractableDocument)
	}

	text, err := readPieces(wordDoc, table[fcClx:fcClx+lcbClx], ccpText)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnextractableDocument, err)
	}
	return cleanWordControls(text), nil
}

func readCompoundStreams(data []byte, names ...string) (map[string][]byte, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open compound file: %w", err)
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	out := make(map[string][]byte, len(names))
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if !want[entry.Name] || entry.Size <= 0 {
			continue
		}
		buf := make([]byte, entry.Size)
		if _, err := io.ReadFull(entry, buf); err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name, err)
		}
		out[entry.Name] = buf
	}
	if _, ok := out["WordDocument"]; !ok {
		return nil, errNotWordDocument
	}
	return out, nil
}

// readPieces walks the CLX piece table and decodes each text piece, stopping
// after the main document story.
func readPieces(wordDoc, clx []byte, ccpText int) (string, error) {
	i := 0
	for i < len(clx) && clx[i] == 0x01 {
		if i+3 > len(clx) {
			return "", errors.New("truncated property list")
		}
		cb := int(binary.LittleEndian.Uint16(clx[i+1:]))
		i += 3 + cb
	}
	if i+5 > len(clx) || clx[i] != 0x02 {
		return "", errors.New("piece table descriptor not found")
	}
	lcb := int(binary.LittleEndian.Uint32(clx[i+1:]))
	plc := clx[i+5:]
	if lcb > len(plc) || lcb < 4 {
		return "", errors.New("truncated piece table")
	}
	plc = plc[:lcb]

	n := (lcb - 4) / 12
	cpOff, pcdOff := 0, (n+1)*4

	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	cp1252 := charmap.Windows1252.NewDecoder()

	var buf strings.Builder
	remaining := ccpText
	for k := 0; k < n && remaining > 0; k++ {
		cpStart := int(binary.LittleEndian.Uint32(plc[cpOff+k*4:]))
		cpEnd := int(binary.LittleEndian.Uint32(plc[cpOff+(k+1)*4:]))
		length := cpEnd - cpStart
		if length <= 0 {
			continue
		}
		if length > remaining {
			length = remaining
		}
		remaining -= length

		fc := binary.LittleEndian.Uint32(plc[pcdOff+k*8+2:])
		if fc&pcdCompressed != 0 {
			off := int(fc&^pcdCompressed) / 2
			if off+length > len(wordDoc) {
				return "", errors.New("compressed piece out of range")
			}
			s, err := cp1252.Bytes(wordDoc[off : off+length])
			if err != nil {
				return "", err
			}
			buf.Write(s)
			continue
		}
		off := int(fc)
		if off+2*length > len(wordDoc) {
			return "", errors.New("unicode piece out of range")
		}
		s, err := utf16.Bytes(wordDoc[off : off+2*length])
		if err != nil {
			return "", err
		}
		buf.Write(s)
	}
	return buf.String(), nil
}

// cleanWordControls drops field instructions, keeps field results and maps
// Word control characters to text.
func cleanWordControls(s string) string {
	var (
		buf    strings.Builder
		fields []bool // true while inside a field instruction
	)
	hidden := func() bool {
		for _, h := range fields {
			if h {
				return true
			}
		}
		return false
	}
	for _, r := range s {
		switch r {
		case 0x13:
			fields = append(fields, true)
			continue
		case 0x14:
			if len(fields) > 0 {
				fields[len(fields)-1] = false
			}
			continue
		case 0x15:
			if len(fields) > 0 {
				fields = fields[:len(fields)-1]
			}
			continue
		}
		if hidden() {
			continue
		}
		switch r {
		case '\r', 0x0B, 0x0C:
			buf.WriteByte('\n')
		case 0x07:
			buf.WriteByte('\t')
		default:
			if r >= 0x20 || r == '\t' || r == '\n' {
				buf.WriteRune(r)
			}
		}
	}
	return buf.String()
}
