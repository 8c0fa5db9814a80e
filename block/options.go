// Package block implements the block reader: block-info, column count, row
// count, then each column's name/type/body in turn.
package block

import "github.com/night-crawler/chbr/column"

// config is the resolved state of a Decode call's options.
type config struct {
	copyOnDecode          bool
	strictUTF8            bool
	assumeFlattenedNested bool
}

// Option configures a Decode call.
type Option func(*config)

// WithCopyOnDecode forces every borrowed byte view produced during decode to
// be copied into owned storage, so the block outlives the input buffer.
func WithCopyOnDecode() Option {
	return func(c *config) { c.copyOnDecode = true }
}

// WithStrictUTF8 rejects non-UTF-8 string rows at decode time rather than
// deferring validation to row projection.
func WithStrictUTF8() Option {
	return func(c *config) { c.strictUTF8 = true }
}

// WithFlattenedNested interprets `parent.field` sibling columns as the
// flattened form of a single Nested column and regroups them back into one
// synthetic Nested column on the decoded Block.
func WithFlattenedNested() Option {
	return func(c *config) { c.assumeFlattenedNested = true }
}

func resolve(opts []Option) config {
	var c config
	for _, o := range opts {
		o(&c)
	}

	return c
}

func (c config) columnOptions() column.Options {
	opt := column.Options{CopyOnDecode: c.copyOnDecode, StrictUTF8: c.strictUTF8}
	if c.copyOnDecode {
		opt.Tracker = column.NewBufTracker()
	}

	return opt
}
