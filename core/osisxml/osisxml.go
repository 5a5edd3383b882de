// Package osisxml reads and writes the small slice of OSIS XML needed to
// describe a versification: verse elements and their osisID attributes.
//
// Security Notes:
//   - Documents are checked for well-formedness with entity expansion
//     disabled before they reach xmlquery, so internal and external entity
//     declarations are never expanded (CWE-611).
package osisxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Namespace is the OSIS 2.1 namespace.
const Namespace = "http://www.bibletechnologies.net/2003/OSIS/namespace"

// MaxDocumentSize bounds the documents Parse accepts.
const MaxDocumentSize = 64 << 20

// Document is a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node is an element of a Document.
type Node struct {
	node *xmlquery.Node
}

// Query is a compiled XPath expression.
type Query struct {
	src  string
	expr *xpath.Expr
}

// Compile compiles an XPath expression.
func Compile(expr string) (*Query, error) {
	e, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	return &Query{src: expr, expr: e}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Query {
	q, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *Query) String() string { return q.src }

// VerseQuery selects verse elements carrying an osisID, in any namespace.
// Milestone end markers (eID only) are skipped.
var VerseQuery = MustCompile(`//*[local-name()='verse'][@osisID]`)

// Parse reads a document from r.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading XML: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("XML document exceeds %d bytes", MaxDocumentSize)
	}
	if err := checkWellFormed(data); err != nil {
		return nil, err
	}
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// checkWellFormed walks every token with entity expansion disabled.
func checkWellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	sawElement := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, _ := dec.InputPos()
			return fmt.Errorf("malformed XML at line %d: %w", line, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			sawElement = true
		case xml.Directive:
			if bytes.Contains(bytes.ToUpper(t), []byte("ENTITY")) {
				return fmt.Errorf("XML entity declarations are not supported")
			}
		}
	}
	if !sawElement {
		return fmt.Errorf("XML document has no root element")
	}
	return nil
}

// Select returns the nodes matching q in document order.
func (d *Document) Select(q *Query) []*Node {
	found := xmlquery.QuerySelectorAll(d.root, q.expr)
	out := make([]*Node, len(found))
	for i, n := range found {
		out[i] = &Node{node: n}
	}
	return out
}

// Name returns the local element name.
func (n *Node) Name() string {
	return n.node.Data
}

// Attr returns the value of the named attribute, or "".
func (n *Node) Attr(name string) string {
	return n.node.SelectAttr(name)
}

// Attr is a name/value pair for Writer.
type Attr struct {
	Name, Value string
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"\n", "&#xA;",
	"\t", "&#x9;",
)

// Writer emits indented XML elements. Errors are sticky and reported by
// Close.
type Writer struct {
	w      io.Writer
	indent string
	stack  []string
	err    error
}

// NewWriter returns a Writer that writes an XML declaration to w.
func NewWriter(w io.Writer, indent string) *Writer {
	x := &Writer{w: w, indent: indent}
	x.printf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	return x
}

func (x *Writer) printf(format string, args ...any) {
	if x.err != nil {
		return
	}
	_, x.err = fmt.Fprintf(x.w, format, args...)
}

func (x *Writer) open(name string, attrs []Attr) {
	x.printf("%s<%s", strings.Repeat(x.indent, len(x.stack)), name)
	for _, a := range attrs {
		x.printf(" %s=\"%s\"", a.Name, attrEscaper.Replace(a.Value))
	}
}

// Start opens an element.
func (x *Writer) Start(name string, attrs ...Attr) {
	x.open(name, attrs)
	x.printf(">\n")
	x.stack = append(x.stack, name)
}

// Empty writes a self-closing element.
func (x *Writer) Empty(name string, attrs ...Attr) {
	x.open(name, attrs)
	x.printf("/>\n")
}

// End closes the innermost open element.
func (x *Writer) End() {
	if len(x.stack) == 0 {
		if x.err == nil {
			x.err = fmt.Errorf("osisxml: End without open element")
		}
		return
	}
	name := x.stack[len(x.stack)-1]
	x.stack = x.stack[:len(x.stack)-1]
	x.printf("%s</%s>\n", strings.Repeat(x.indent, len(x.stack)), name)
}

// Close closes any open elements and returns the first write error.
func (x *Writer) Close() error {
	for len(x.stack) > 0 {
		x.End()
	}
	return x.err
}
