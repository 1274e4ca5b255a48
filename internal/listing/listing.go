// Package listing renders a directory as an HTML page with one link per entry.
package listing

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ContentType of a rendered listing.
const ContentType = "text/html"

// Entry is one immediate child of a listed directory.
type Entry struct {
	Name  string
	IsDir bool
	Href  string
}

// Entries reads dir and returns its immediate children sorted by name, with
// links built from requestPath.
func Entries(dir, requestPath string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	base := requestPath
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		e := Entry{
			Name:  de.Name(),
			IsDir: de.IsDir(),
		}
		target := base + e.Name
		if e.IsDir {
			target += "/"
		}
		e.Href = (&url.URL{Path: target}).EscapedPath()
		entries = append(entries, e)
	}

	return entries, nil
}

// Render returns the listing page for dir. requestPath is the decoded path the
// client asked for; links are built from it with forward slashes.
func Render(dir, requestPath string) ([]byte, error) {
	entries, err := Entries(dir, requestPath)
	if err != nil {
		return nil, err
	}

	title := "Index of " + requestPath

	list := element(atom.Ul)
	for _, e := range entries {
		label := e.Name
		if e.IsDir {
			label += "/"
		}
		link := element(atom.A, html.Attribute{Key: "href", Val: e.Href})
		link.AppendChild(text(label))
		item := element(atom.Li)
		item.AppendChild(link)
		list.AppendChild(item)
	}

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	titleEl := element(atom.Title)
	titleEl.AppendChild(text(title))
	head.AppendChild(titleEl)

	body := element(atom.Body)
	h1 := element(atom.H1)
	h1.AppendChild(text(title))
	body.AppendChild(h1)
	body.AppendChild(list)

	root := element(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render listing: %w", err)
	}
	return buf.Bytes(), nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
