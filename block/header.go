package block

import (
	"github.com/night-crawler/chbr/errs"
	"github.com/night-crawler/chbr/wire"
)

// parseInfo reads the optional block-info prefix: a sequence of
// (field-id varint, value) pairs terminated by field-id = 0.
// Field 1's value is a 1-byte is_overflows flag, field 2's is a 32-bit
// bucket_num; any other field id is rejected, since without a width table
// for unknown ids the cursor could not be safely advanced past it.
func parseInfo(cur *wire.Cursor) (Info, error) {
	var info Info

	for {
		id, err := cur.ReadVarint()
		if err != nil {
			return Info{}, err
		}

		if id == 0 {
			return info, nil
		}

		switch id {
		case 1:
			v, err := cur.ReadUint8()
			if err != nil {
				return Info{}, err
			}

			info.IsOverflows = v != 0
		case 2:
			v, err := cur.ReadInt32()
			if err != nil {
				return Info{}, err
			}

			info.BucketNum = v
		default:
			return Info{}, errs.WrapExpected(errs.ErrInvalidLength, cur.Offset, "", "known block-info field id")
		}
	}
}
