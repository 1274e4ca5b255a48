package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/fileserver/internal/fserr"
	"github.com/Brownie44l1/fileserver/internal/request"
	"github.com/Brownie44l1/fileserver/internal/resolve"
)

var kindColors = map[string]*color.Color{
	resolve.KindFile.String():      color.New(color.FgGreen),
	resolve.KindDirectory.String(): color.New(color.FgBlue),
	resolve.KindMissing.String():   color.New(color.FgYellow),
	"escape":                       color.New(color.FgRed, color.Bold),
	"invalid":                      color.New(color.FgRed),
}

func newResolveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Show what request paths resolve to under the root, without serving",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			r, err := resolve.New(cfg.Root)
			if err != nil {
				return err
			}
			parser := request.Parser{
				DefaultDocument:  cfg.DefaultDocument,
				NormalizeUnicode: cfg.NormalizeUnicode,
			}

			for _, arg := range args {
				printResolved(cmd.OutOrStdout(), r, parser, arg)
			}
			return nil
		},
	}
}

// printResolved writes one line per path: kind, request path, and the
// filesystem path or the reason it was refused.
func printResolved(w io.Writer, r *resolve.Resolver, p request.Parser, target string) {
	req, err := p.Parse([]byte(request.MethodGet + " " + target + " HTTP/1.1"))
	if err != nil {
		printKind(w, "invalid", target, err.Error())
		return
	}

	res, err := r.Resolve(req.Path)
	switch {
	case err == nil:
		detail := res.Path
		if res.Kind == resolve.KindMissing {
			detail = "-"
		}
		printKind(w, res.Kind.String(), req.Path, detail)
	case fserr.Classify(err) == fserr.PathEscape:
		printKind(w, "escape", req.Path, err.Error())
	default:
		printKind(w, "error", req.Path, err.Error())
	}
}

func printKind(w io.Writer, kind, path, detail string) {
	label := fmt.Sprintf("%-9s", kind)
	if c, ok := kindColors[kind]; ok {
		label = c.Sprint(label)
	}
	fmt.Fprintf(w, "%s %s -> %s\n", label, path, detail)
}
