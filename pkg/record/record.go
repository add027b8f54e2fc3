// Package record wraps the XML documents returned by the JSS in a small
// path-addressable tree. Lookups use slash-separated paths relative to the
// node they are called on, e.g. "general/mac_address".
package record

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

// ErrMalformed is returned when a document cannot be parsed.
var ErrMalformed = errors.New("malformed record")

// Record is one node of an XML record tree. Sub-records returned by Find and
// FindAll share storage with their parent, so SetText on a child is visible
// when the parent is serialized.
type Record struct {
	doc *etree.Document
	el  *etree.Element
}

// Parse reads an XML document and returns its root node.
func Parse(data []byte) (*Record, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: document has no root element", ErrMalformed)
	}
	return &Record{doc: doc, el: root}, nil
}

// MustParse is Parse for fixtures; it panics on error.
func MustParse(data string) *Record {
	r, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return r
}

// Tag returns the element name of the node.
func (r *Record) Tag() string {
	return r.el.Tag
}

// Text returns the node's own text content.
func (r *Record) Text() string {
	return r.el.Text()
}

// Find returns the first descendant matching path, or nil.
func (r *Record) Find(path string) *Record {
	p, err := etree.CompilePath(path)
	if err != nil {
		return nil
	}
	el := r.el.FindElementPath(p)
	if el == nil {
		return nil
	}
	return &Record{doc: r.doc, el: el}
}

// FindText returns the text of the first descendant matching path. The
// boolean is false only when no node matches; an empty element yields
// ("", true).
func (r *Record) FindText(path string) (string, bool) {
	n := r.Find(path)
	if n == nil {
		return "", false
	}
	return n.el.Text(), true
}

// FindAll returns every descendant matching path in document order.
func (r *Record) FindAll(path string) []*Record {
	p, err := etree.CompilePath(path)
	if err != nil {
		return nil
	}
	els := r.el.FindElementsPath(p)
	out := make([]*Record, 0, len(els))
	for _, el := range els {
		out = append(out, &Record{doc: r.doc, el: el})
	}
	return out
}

// Children returns the direct child elements.
func (r *Record) Children() []*Record {
	els := r.el.ChildElements()
	out := make([]*Record, 0, len(els))
	for _, el := range els {
		out = append(out, &Record{doc: r.doc, el: el})
	}
	return out
}

// SetText overwrites the text of the first node matching path. It never
// creates nodes and reports whether a node was found.
func (r *Record) SetText(path, text string) bool {
	n := r.Find(path)
	if n == nil {
		return false
	}
	n.el.SetText(text)
	return true
}

// Bytes serializes the node. The document root serializes with its XML
// declaration; any other node serializes as a standalone fragment.
func (r *Record) Bytes() ([]byte, error) {
	if r.doc != nil && r.doc.Root() == r.el {
		return r.doc.WriteToBytes()
	}
	doc := etree.NewDocument()
	doc.SetRoot(r.el.Copy())
	return doc.WriteToBytes()
}

// ValidPath reports whether path is a syntactically valid lookup path.
func ValidPath(path string) error {
	_, err := etree.CompilePath(path)
	return err
}
