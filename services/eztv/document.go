package eztv

import (
	"io"

	"github.com/PuerkitoBio/goquery"
)

// Document is the traversal surface the extractors need from a parsed page.
// It stays deliberately narrow so tests can feed extraction any HTML without
// touching the network, and so the rest of the package never sees the parser
// directly.
type Document interface {
	Find(selector string) Selection
}

// Selection is a set of matched nodes.
type Selection interface {
	Find(selector string) Selection
	Each(fn func(i int, s Selection))
	Eq(index int) Selection
	Attr(name string) (string, bool)
	Text() string
	Length() int
}

// ParseDocument parses HTML from r into a Document.
func ParseDocument(r io.Reader) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return goqueryDocument{doc: doc}, nil
}

type goqueryDocument struct {
	doc *goquery.Document
}

func (d goqueryDocument) Find(selector string) Selection {
	return goquerySelection{sel: d.doc.Find(selector)}
}

type goquerySelection struct {
	sel *goquery.Selection
}

func (s goquerySelection) Find(selector string) Selection {
	return goquerySelection{sel: s.sel.Find(selector)}
}

func (s goquerySelection) Each(fn func(int, Selection)) {
	s.sel.Each(func(i int, match *goquery.Selection) {
		fn(i, goquerySelection{sel: match})
	})
}

func (s goquerySelection) Eq(index int) Selection {
	return goquerySelection{sel: s.sel.Eq(index)}
}

func (s goquerySelection) Attr(name string) (string, bool) {
	return s.sel.Attr(name)
}

func (s goquerySelection) Text() string {
	return s.sel.Text()
}

func (s goquerySelection) Length() int {
	return s.sel.Length()
}
