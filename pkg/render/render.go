package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/skeleton"
)

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
}

// Validate rejects unknown planes and negative widths.
func (o Options) Validate() error {
	if _, _, err := o.Plane.axes(); err != nil {
		return wkerrors.Wrap(wkerrors.ErrCodeInvalidInput, err, "plane")
	}
	if o.Width < 0 {
		return wkerrors.New(wkerrors.ErrCodeInvalidInput, "width must not be negative, got %g", o.Width)
	}
	return nil
}

// Render draws n in the given format.
func Render(ctx context.Context, n nml.NML, format string, opts Options) ([]byte, error) {
	if !ValidFormats[format] {
		return nil, wkerrors.New(wkerrors.ErrCodeInvalidFormat, "unsupported render format %q (want dot, svg or png)", format)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	gg, params, err := skeleton.ToGraph(n)
	if err != nil {
		return nil, err
	}
	dot := ToDOT(gg, params, opts)

	switch format {
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	}
	return []byte(dot), nil
}

// RenderSVG lays out DOT source with pinned positions and returns SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := run(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG lays out DOT source with pinned positions and returns PNG.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return run(ctx, dot, graphviz.PNG)
}

func run(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	// neato honors pos="x,y!" pins; dot would rank the nodes itself.
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root tag so the drawing scales with its
// container instead of carrying Graphviz's pt dimensions.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
