package request

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Brownie44l1/fileserver/internal/fserr"
)

// MethodGet is the only method the server accepts.
const MethodGet = "GET"

// DefaultDocument is served for "/" when a Parser has no document configured.
const DefaultDocument = "index.html"

type Request struct {
	Method  string
	RawPath string // as received, percent-encoded
	Path    string // decoded, with the default document applied
}

// Parser turns the first line of a request into a Request. Everything after
// the first line is ignored.
type Parser struct {
	DefaultDocument  string
	NormalizeUnicode bool // rewrite the decoded path to NFC
}

// Parse parses data with the default Parser.
func Parse(data []byte) (*Request, error) {
	return Parser{}.Parse(data)
}

// Parse reads the request line from data. data may be a partial read; if it
// holds no line terminator the whole of it is taken as the request line.
func (p Parser) Parse(data []byte) (*Request, error) {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx != -1 {
		line = data[:idx]
	}
	line = bytes.TrimSuffix(line, []byte("\r"))

	parts := strings.Fields(string(line))
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: %d token(s) in request line", fserr.MalformedRequest, len(parts))
	}

	method, target := parts[0], parts[1]
	if method != MethodGet {
		return nil, fmt.Errorf("%w: %q", fserr.UnsupportedMethod, method)
	}

	path, err := p.decodePath(target)
	if err != nil {
		return nil, err
	}

	return &Request{
		Method:  method,
		RawPath: target,
		Path:    path,
	}, nil
}

func (p Parser) decodePath(target string) (string, error) {
	raw := target
	if idx := strings.IndexAny(raw, "?#"); idx != -1 {
		raw = raw[:idx]
	}

	path, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", fserr.MalformedRequest, err)
	}
	if strings.IndexByte(path, 0) != -1 {
		return "", fmt.Errorf("%w: NUL byte in path", fserr.MalformedRequest)
	}

	if p.NormalizeUnicode {
		path = norm.NFC.String(path)
	}

	if path == "" || path == "/" {
		doc := p.DefaultDocument
		if doc == "" {
			doc = DefaultDocument
		}
		path = "/" + strings.TrimPrefix(doc, "/")
	}

	return path, nil
}
