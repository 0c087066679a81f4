// Package render expands stat placeholders in arbitrary
// text templates, for README-style outputs that sit next
// to the SVG cards.
package render

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/valyala/fasttemplate"
)

// Default placeholder tags.
const (
	startTag = "{{"
	endTag   = "}}"
)

// Context is the set of template variables. Values are
// pre-rendered strings; numbers should be added through
// SetInt so they pick up comma grouping.
type Context map[string]any

// NewContext returns an empty Context.
func NewContext() Context {
	return make(Context)
}

// Set stores a string variable.
func (c Context) Set(name string, value string) {
	c[name] = value
}

// SetInt stores an integer variable with comma grouping.
func (c Context) SetInt(name string, value int) {
	c[name] = humanize.Comma(int64(value))
}

// File expands the template at tplPath against ctx and
// writes the result to outPath. Unknown placeholders
// expand to empty strings so a template can reference
// stats the run did not produce.
func File(
	tplPath string,
	outPath string,
	ctx Context,
) error {
	const errCtx = "rendering template"

	content, err := os.ReadFile(tplPath) //nolint:gosec // path derives from config
	if err != nil {
		return fmt.Errorf(
			"%s: read %s: %w", errCtx, tplPath, err,
		)
	}

	result := fasttemplate.ExecuteString(
		string(content), startTag, endTag, ctx,
	)

	//nolint:gosec // rendered outputs are public files
	if err := os.WriteFile(
		outPath, []byte(result), 0o644,
	); err != nil {
		return fmt.Errorf(
			"%s: write %s: %w", errCtx, outPath, err,
		)
	}

	return nil
}

// String expands a template string against ctx.
func String(template string, ctx Context) string {
	return fasttemplate.ExecuteString(
		template, startTag, endTag, ctx,
	)
}
