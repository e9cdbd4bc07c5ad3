package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

const sampleResume = `Jane Doe
jane.doe@example.com | +1 (555) 123-4567
Senior Backend Engineer

Summary
Backend engineer with 6 years of experience building services in Python and Go.
Comfortable with Docker, Kubernetes and PostgreSQL on AWS.

Skills: Python, Go, Docker, Postgres, REST API, Git`

func TestParseText(t *testing.T) {
	parsed := ParseText(sampleResume)

	if parsed.Email == nil || *parsed.Email != "jane.doe@example.com" {
		t.Errorf("email = %v, want jane.doe@example.com", deref(parsed.Email))
	}
	if parsed.Phone == nil || digitCount(*parsed.Phone) != 11 {
		t.Errorf("phone = %v, want an 11 digit number", deref(parsed.Phone))
	}
	if parsed.Name == nil || *parsed.Name != "Jane Doe" {
		t.Errorf("name = %v, want Jane Doe", deref(parsed.Name))
	}
	if parsed.YearsOfExperience == nil || *parsed.YearsOfExperience != 6 {
		t.Errorf("years = %v, want 6", parsed.YearsOfExperience)
	}

	want := []string{"Python", "Go", "PostgreSQL", "AWS", "Docker", "Kubernetes", "Git", "REST API"}
	if strings.Join(parsed.Skills, ",") != strings.Join(want, ",") {
		t.Errorf("skills = %v, want %v", parsed.Skills, want)
	}
}

func TestParseText_Deterministic(t *testing.T) {
	a := ParseText(sampleResume)
	b := ParseText(sampleResume)
	if fmt.Sprint(a.Skills) != fmt.Sprint(b.Skills) || deref(a.Name) != deref(b.Name) {
		t.Fatalf("ParseText is not deterministic: %+v vs %+v", a, b)
	}
}

func TestParseText_MissingFields(t *testing.T) {
	parsed := ParseText("curriculum vitae\nlooking for opportunities in gardening and carpentry")
	if parsed.Email != nil || parsed.Phone != nil || parsed.Name != nil || parsed.YearsOfExperience != nil {
		t.Errorf("expected all optional fields to be absent, got %+v", parsed)
	}
	if parsed.Skills == nil || len(parsed.Skills) != 0 {
		t.Errorf("skills = %#v, want empty non-nil slice", parsed.Skills)
	}
}

func TestParseText_TruncatesRawText(t *testing.T) {
	long := strings.Repeat("é", MaxStoredTextRunes+100)
	parsed := ParseText(long)
	if n := len([]rune(parsed.RawText)); n != MaxStoredTextRunes {
		t.Errorf("raw text runes = %d, want %d", n, MaxStoredTextRunes)
	}
}

func TestFindSkills_ShortFormsAreCaseSensitive(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"language name", "Wrote services in Go and Rust", true},
		{"lowercase verb", "ready to go the extra mile", false},
		{"inside a word", "Google Cloud certified", false},
		{"golang alias", "golang enthusiast", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contains(findSkills(tt.text), "Go")
			if got != tt.want {
				t.Errorf("findSkills(%q) has Go = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFindSkills_Boundaries(t *testing.T) {
	skills := findSkills("JavaScript and Node.js, some C++ too.")
	if contains(skills, "Java") {
		t.Errorf("Java must not match inside JavaScript: %v", skills)
	}
	for _, want := range []string{"JavaScript", "Node.js", "C++"} {
		if !contains(skills, want) {
			t.Errorf("missing %s in %v", want, skills)
		}
	}
}

func TestFindSkills_NodeNeedsCapital(t *testing.T) {
	if contains(findSkills("Drained a node in the cluster before the upgrade"), "Node.js") {
		t.Error("lowercase node is not Node.js")
	}
	if !contains(findSkills("APIs in Node and TypeScript"), "Node.js") {
		t.Error("capitalized Node should count as Node.js")
	}
	if !contains(findSkills("nodejs microservices"), "Node.js") {
		t.Error("nodejs alias should match in any case")
	}
}

func TestFindPhone(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"international", "Contact: +1 (555) 123-4567", "+1 (555) 123-4567"},
		{"plain digits", "Phone 5551234567", "5551234567"},
		{"grouped", "WhatsApp +62 812-3456-7890", "+62 812-3456-7890"},
		{"spaced", "call 0812 3456 7890 today", "0812 3456 7890"},
		{"month ranges", "Acme Corp\n01.2019 - 12.2021\nBackend developer", ""},
		{"slashed ranges", "Beta Ltd 01/2019-12/2021", ""},
		{"year ranges", "University 2015 - 2019", ""},
		{"year list", "Hackathon finalist 2018 2019 2020", ""},
		{"long id", "Employee ID 123456789012345678", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deref(findPhone(tt.text))
			if got != tt.want {
				t.Errorf("findPhone(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseText_DateRangeIsNotAPhone(t *testing.T) {
	parsed := ParseText("Budi Santoso\nbudi@example.com\nExperience\n01.2019 - 12.2021 Software Engineer at Acme")
	if parsed.Phone != nil {
		t.Errorf("phone = %q, want none", *parsed.Phone)
	}
}

func TestFindYears_Range(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"5+ years of experience in Java", 5},
		{"Experience: 12 years", 12},
		{"3 yrs working with data", 3},
		{"0 years of experience", 0},
		{"75 years of experience", 0},
	}
	for _, tt := range tests {
		got := findYears(tt.text)
		if tt.want == 0 {
			if got != nil {
				t.Errorf("findYears(%q) = %d, want nil", tt.text, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("findYears(%q) = %v, want %d", tt.text, got, tt.want)
		}
	}
}

func TestFindName_SkipsContactLines(t *testing.T) {
	text := "john@doe.dev\nPhone 5551234567\nJohn Ronald Doe\nEngineer"
	got := findName(text)
	if got == nil || *got != "John Ronald Doe" {
		t.Errorf("findName = %v, want John Ronald Doe", deref(got))
	}
}

func TestExtract_RejectsOversizedPayload(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), make([]byte, 6<<20), MIMEPDF)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
}

func TestExtract_RejectsUnsupportedFormat(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), []byte("\x89PNG"), "image/png")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtract_EmptyPayload(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), nil, MIMEDOCX)
	if !errors.Is(err, ErrUnextractableDocument) {
		t.Fatalf("err = %v, want ErrUnextractableDocument", err)
	}
}

func TestExtract_Timeout(t *testing.T) {
	slow := TextReaderFunc(func(ctx context.Context, _ []byte) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	e := New(WithTimeout(20*time.Millisecond), WithReader(FormatPDF, slow))

	_, err := e.Extract(context.Background(), []byte("%PDF-1.4"), MIMEPDF)
	if !errors.Is(err, ErrExtractionTimeout) {
		t.Fatalf("err = %v, want ErrExtractionTimeout", err)
	}
	if !errors.Is(err, ErrUnextractableDocument) {
		t.Fatalf("timeout should also be reported as unextractable: %v", err)
	}
}

func TestExtract_ReaderPanicIsUnextractable(t *testing.T) {
	broken := TextReaderFunc(func(context.Context, []byte) (string, error) {
		panic("corrupt stream")
	})
	e := New(WithReader(FormatDOC, broken))

	_, err := e.Extract(context.Background(), []byte{0xD0, 0xCF}, MIMEDOC)
	if !errors.Is(err, ErrUnextractableDocument) {
		t.Fatalf("err = %v, want ErrUnextractableDocument", err)
	}
}

func TestExtract_TooLittleText(t *testing.T) {
	sparse := TextReaderFunc(func(context.Context, []byte) (string, error) {
		return "  \n page 1 \n", nil
	})
	e := New(WithReader(FormatPDF, sparse))

	_, err := e.Extract(context.Background(), []byte("%PDF"), MIMEPDF)
	if !errors.Is(err, ErrUnextractableDocument) {
		t.Fatalf("err = %v, want ErrUnextractableDocument", err)
	}
}

func TestExtract_DOCX(t *testing.T) {
	data := buildDOCX(t, []string{
		"Jane Doe",
		"jane.doe@example.com",
		"Backend engineer with 6 years of experience in Python, Docker and PostgreSQL.",
	})

	parsed, err := New().Extract(context.Background(), data, MIMEDOCX)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if deref(parsed.Name) != "Jane Doe" {
		t.Errorf("name = %q, want Jane Doe", deref(parsed.Name))
	}
	if deref(parsed.Email) != "jane.doe@example.com" {
		t.Errorf("email = %q", deref(parsed.Email))
	}
	for _, want := range []string{"Python", "Docker", "PostgreSQL"} {
		if !contains(parsed.Skills, want) {
			t.Errorf("skills %v missing %s", parsed.Skills, want)
		}
	}
	if !strings.Contains(parsed.RawText, "Jane Doe\njane.doe@example.com") {
		t.Errorf("paragraphs should be separated by newlines, got %q", parsed.RawText)
	}
}

func TestExtract_DeclaredTypeWithParameters(t *testing.T) {
	format, err := FormatFromMIME("application/pdf; charset=binary")
	if err != nil || format != FormatPDF {
		t.Fatalf("FormatFromMIME = %v, %v", format, err)
	}
}

func TestMIMEFromFilename(t *testing.T) {
	tests := map[string]string{
		"cv.PDF":       MIMEPDF,
		"resume.docx":  MIMEDOCX,
		"old.doc":      MIMEDOC,
		"portrait.png": "",
	}
	for name, want := range tests {
		if got := MIMEFromFilename(name); got != want {
			t.Errorf("MIMEFromFilename(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestCleanWordControls(t *testing.T) {
	in := "Name\rJane\x13 HYPERLINK \"mailto:j@x.io\" \x14j@x.io\x15\x07end\x0bnext"
	got := cleanWordControls(in)
	want := "Name\nJanej@x.io\tend\nnext"
	if got != want {
		t.Errorf("cleanWordControls = %q, want %q", got, want)
	}
}

func TestReadPieces_CompressedText(t *testing.T) {
	text := "Hello Word 97"
	wordDoc := make([]byte, 0x800)
	copy(wordDoc[0x400:], text)

	clx := []byte{0x02}
	plc := new(bytes.Buffer)
	writeU32(plc, 0)
	writeU32(plc, uint32(len(text)))
	plc.Write([]byte{0, 0})
	writeU32(plc, uint32(0x400*2)|pcdCompressed)
	plc.Write([]byte{0, 0})
	lcb := make([]byte, 4)
	putU32(lcb, uint32(plc.Len()))
	clx = append(clx, lcb...)
	clx = append(clx, plc.Bytes()...)

	got, err := readPieces(wordDoc, clx, len(text))
	if err != nil {
		t.Fatalf("readPieces() error = %v", err)
	}
	if got != text {
		t.Errorf("readPieces = %q, want %q", got, text)
	}
}

func TestWordMLText(t *testing.T) {
	xml := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Skills</w:t><w:tab/><w:t>Go</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">Kafka </w:t><w:br/><w:t>Redis</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	got, err := wordMLText(xml)
	if err != nil {
		t.Fatalf("wordMLText() error = %v", err)
	}
	want := "Skills\tGo\nKafka \nRedis\n"
	if got != want {
		t.Errorf("wordMLText = %q, want %q", got, want)
	}
}

func buildDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			`</Types>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func writeU32(b *bytes.Buffer, v uint32) {
	var tmp [4]byte
	putU32(tmp[:], v)
	b.Write(tmp[:])
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
