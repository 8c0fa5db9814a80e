package block

import (
	"strings"

	"github.com/night-crawler/chbr/column"
	"github.com/night-crawler/chbr/schema"
)

// Info is the optional block-info prefix: field 1 is a 1-byte is_overflows
// flag, field 2 is a 32-bit bucket_num; both are absent
// (zero value) in simple streams that carry no block-info at all.
type Info struct {
	IsOverflows bool
	BucketNum   int32
}

// NamedColumn pairs a column's declared name with its decoded value.
type NamedColumn struct {
	Name   string
	Type   *schema.Type
	Column column.Column
}

// Block is an ordered sequence of named columns sharing one row count.
type Block struct {
	Info     Info
	RowCount int
	Columns  []NamedColumn

	// tracker is non-nil when this block was decoded with WithCopyOnDecode;
	// Release returns its pooled buffers.
	tracker *column.BufTracker
}

// ColumnByName returns the first column with the given name, or nil if none
// matches.
func (b *Block) ColumnByName(name string) *NamedColumn {
	for i := range b.Columns {
		if b.Columns[i].Name == name {
			return &b.Columns[i]
		}
	}

	return nil
}

// Release returns any pooled copy-on-decode buffers this block owns back to
// internal/pool's buffer pool. It is a no-op for blocks decoded without
// WithCopyOnDecode. The block (and any slice borrowed from its columns) must
// not be used again after Release.
func (b *Block) Release() {
	if b.tracker != nil {
		b.tracker.Release()
		b.tracker = nil
	}
}

// applyFlattenedNested regroups `parent.field` sibling columns into a single
// Nested column, for the opt-in WithFlattenedNested behavior.
// Columns without a "." in their name, or whose prefix only matches one
// field, are left untouched.
func applyFlattenedNested(b *Block) {
	groups := make(map[string][]int)
	order := make([]string, 0)

	for i, c := range b.Columns {
		prefix, _, ok := splitNestedName(c.Name)
		if !ok {
			continue
		}

		if _, seen := groups[prefix]; !seen {
			order = append(order, prefix)
		}

		groups[prefix] = append(groups[prefix], i)
	}

	var rebuilt []NamedColumn
	consumed := make(map[int]bool)

	for _, prefix := range order {
		idxs := groups[prefix]
		if len(idxs) < 2 {
			continue // a single `parent.field` column is ambiguous; leave it flat.
		}

		nc, ok := regroupNested(b, prefix, idxs)
		if !ok {
			continue
		}

		rebuilt = append(rebuilt, nc)

		for _, idx := range idxs {
			consumed[idx] = true
		}
	}

	if len(rebuilt) == 0 {
		return
	}

	final := make([]NamedColumn, 0, len(b.Columns))

	inserted := false

	for i, c := range b.Columns {
		if consumed[i] {
			if !inserted {
				final = append(final, rebuilt...)
				inserted = true
			}

			continue
		}

		final = append(final, c)
	}

	b.Columns = final
}

// regroupNested builds the Nested column for one parent prefix, reusing
// each sibling Array(T) column's already-decoded offsets and flattened
// inner column rather than redecoding anything. Returns ok=false if any
// sibling isn't the Array(T) shape the flattened form requires, or if the
// siblings' offsets disagree.
func regroupNested(b *Block, prefix string, idxs []int) (NamedColumn, bool) {
	fields := make([]schema.Field, len(idxs))
	siblings := make([]*column.ArrayColumn, len(idxs))

	for k, idx := range idxs {
		_, field, _ := splitNestedName(b.Columns[idx].Name)

		arr, ok := b.Columns[idx].Column.(*column.ArrayColumn)
		if !ok {
			return NamedColumn{}, false
		}

		fields[k] = schema.Field{Name: field, Type: arr.Type().Elem}
		siblings[k] = arr
	}

	t := &schema.Type{Kind: schema.KindNested, Fields: fields}

	nc, ok := column.RegroupNested(t, siblings)
	if !ok {
		return NamedColumn{}, false
	}

	return NamedColumn{Name: prefix, Type: t, Column: nc}, true
}

func splitNestedName(name string) (prefix, field string, ok bool) {
	i := strings.IndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return "", "", false
	}

	return name[:i], name[i+1:], true
}
