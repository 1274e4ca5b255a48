// Package fileserver answers parsed requests from a directory tree: files are
// returned with a guessed content type, directories as HTML listings, and
// anything outside the root is refused.
package fileserver

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"

	"github.com/Brownie44l1/fileserver/internal/fserr"
	"github.com/Brownie44l1/fileserver/internal/headers"
	"github.com/Brownie44l1/fileserver/internal/listing"
	"github.com/Brownie44l1/fileserver/internal/mimetype"
	"github.com/Brownie44l1/fileserver/internal/request"
	"github.com/Brownie44l1/fileserver/internal/resolve"
	"github.com/Brownie44l1/fileserver/internal/response"
	"github.com/Brownie44l1/fileserver/internal/server"
)

// DefaultDownloadExtensions get a Content-Disposition: attachment header.
var DefaultDownloadExtensions = []string{".doc", ".docx", ".pdf", ".xlsx", ".zip"}

type Options struct {
	Root       string
	ServerName string

	// DirectoryListing serves an HTML index for directories; without it a
	// directory is reported as not found.
	DirectoryListing bool

	// AttachmentHeaders marks files whose extension is in DownloadExtensions
	// as downloads.
	AttachmentHeaders  bool
	DownloadExtensions []string
}

// Handler is immutable after New and shared by every connection.
type Handler struct {
	resolver  *resolve.Resolver
	builder   response.Builder
	listing   bool
	attach    bool
	downloads []string
}

func New(opts Options) (*Handler, error) {
	r, err := resolve.New(opts.Root)
	if err != nil {
		return nil, err
	}

	downloads := opts.DownloadExtensions
	if downloads == nil {
		downloads = DefaultDownloadExtensions
	}

	return &Handler{
		resolver:  r,
		builder:   response.Builder{ServerName: opts.ServerName},
		listing:   opts.DirectoryListing,
		attach:    opts.AttachmentHeaders,
		downloads: append([]string(nil), downloads...),
	}, nil
}

// Root returns the canonical root directory being served.
func (h *Handler) Root() string {
	return h.resolver.Root()
}

// ServeRequest implements server.Handler.
func (h *Handler) ServeRequest(c *server.Context) *response.Response {
	return h.Serve(c.Request)
}

// Serve maps one request to its response. Every failure becomes an error
// response; nothing is returned to the caller as an error.
func (h *Handler) Serve(req *request.Request) *response.Response {
	if req == nil {
		return h.builder.Error(fserr.MalformedRequest.Status())
	}
	if req.Method != request.MethodGet {
		return h.builder.Error(fserr.UnsupportedMethod.Status())
	}

	res, err := h.serve(req)
	if err != nil {
		return h.builder.Error(fserr.Classify(err).Status())
	}
	return res
}

func (h *Handler) serve(req *request.Request) (*response.Response, error) {
	resolved, err := h.resolver.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

	switch resolved.Kind {
	case resolve.KindDirectory:
		if !h.listing {
			return nil, fmt.Errorf("%w: directory listing disabled", fserr.MissingResource)
		}
		return h.serveDirectory(resolved.Path, req.Path)
	case resolve.KindFile:
		return h.serveFile(resolved.Path)
	default:
		return nil, fmt.Errorf("%w: %q", fserr.MissingResource, req.Path)
	}
}

func (h *Handler) serveDirectory(dir, requestPath string) (*response.Response, error) {
	body, err := listing.Render(dir, requestPath)
	if err != nil {
		return nil, fserr.Internal(err)
	}
	return h.builder.Build(response.StatusOK, body, listing.ContentType, nil), nil
}

func (h *Handler) serveFile(path string) (*response.Response, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %w", fserr.MissingResource, err)
		}
		return nil, fserr.Internal(err)
	}

	var extra *headers.Headers
	if h.attach && mimetype.HasExtension(path, h.downloads) {
		extra = headers.NewHeaders()
		extra.Set("Content-Disposition", attachment(filepath.Base(path)))
	}

	return h.builder.Build(response.StatusOK, body, mimetype.ByPath(path), extra), nil
}

// attachment formats a Content-Disposition value; non-ASCII names use the
// RFC 2231 filename* form.
func attachment(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}
