package osisxml

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompile(t *testing.T) {
	if _, err := Compile("//verse[@osisID"); err == nil {
		t.Error("Compile() of unbalanced predicate: error = nil")
	}
	q, err := Compile("//chapter")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if q.String() != "//chapter" {
		t.Errorf("String() = %q", q.String())
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile did not panic")
		}
	}()
	MustCompile("[")
}

func TestParseSelect(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<?xml version="1.0"?>
<osis xmlns="` + Namespace + `">
  <chapter osisID="Gen.1">
    <verse osisID="Gen.1.1">In the beginning &amp; so on.</verse>
    <verse sID="x" osisID="Gen.1.2"/>text<verse eID="x"/>
  </chapter>
</osis>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var ids []string
	for _, n := range doc.Select(VerseQuery) {
		if n.Name() != "verse" {
			t.Errorf("Name() = %q, want verse", n.Name())
		}
		ids = append(ids, n.Attr("osisID"))
	}
	if diff := cmp.Diff([]string{"Gen.1.1", "Gen.1.2"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	chapters := doc.Select(MustCompile("//*[local-name()='chapter']"))
	if len(chapters) != 1 || chapters[0].Attr("missing") != "" {
		t.Errorf("unexpected chapter selection: %d nodes", len(chapters))
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unclosed", `<osis><verse osisID="Gen.1.1"></osis>`},
		{"entity declaration", `<!DOCTYPE osis [<!ENTITY e "Gen.1.1">]><osis/>`},
		{"undefined entity", `<osis><verse osisID="&e;"/></osis>`},
		{"no root", `   `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.doc)); err == nil {
				t.Error("Parse() error = nil")
			}
		})
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	x := NewWriter(&buf, "  ")
	x.Start("osis", Attr{Name: "xmlns", Value: Namespace})
	x.Start("chapter", Attr{Name: "osisID", Value: "Gen.1"})
	x.Empty("verse", Attr{Name: "osisID", Value: `a<b>&"c"`})
	if err := x.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := `<?xml version="1.0" encoding="UTF-8"?>
<osis xmlns="` + Namespace + `">
  <chapter osisID="Gen.1">
    <verse osisID="a&lt;b&gt;&amp;&quot;c&quot;"/>
  </chapter>
</osis>
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	doc, err := Parse(&buf)
	if err != nil {
		t.Fatalf("written document does not parse: %v", err)
	}
	if got := doc.Select(VerseQuery)[0].Attr("osisID"); got != `a<b>&"c"` {
		t.Errorf("attribute round trip = %q", got)
	}
}

type failingWriter struct{}

var errWrite = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestWriterErrors(t *testing.T) {
	x := NewWriter(failingWriter{}, "")
	x.Start("osis")
	if err := x.Close(); !errors.Is(err, errWrite) {
		t.Errorf("Close() error = %v, want %v", err, errWrite)
	}

	var buf bytes.Buffer
	x = NewWriter(&buf, "")
	x.End()
	if err := x.Close(); err == nil {
		t.Error("unbalanced End: Close() error = nil")
	}
}
