package msi

import (
	"encoding/binary"
	"fmt"
)

// stringPool resolves installer string ids to their text. Ids are
// assigned in pool order starting at 1; id 0 is the null string.
type stringPool struct {
	strings  []string
	codepage uint32
	wide     bool
}

// parseStringPool decodes the shared string pool from its two backing
// streams. Entry zero is the header: the codepage, with the top bit of
// the second word flagging three-byte string references in table rows.
// An entry with zero size but a nonzero reference count is an oversized
// string whose 32-bit length occupies the following slot.
func parseStringPool(pool, data []byte) (*stringPool, error) {
	if len(pool) < 4 {
		return nil, fmt.Errorf("string pool header truncated: %d bytes", len(pool))
	}

	w0 := binary.LittleEndian.Uint16(pool[0:2])
	w1 := binary.LittleEndian.Uint16(pool[2:4])

	sp := &stringPool{
		strings:  []string{""},
		codepage: uint32(w0) | uint32(w1&0x7fff)<<16,
		wide:     w1&0x8000 != 0,
	}

	cursor := 0
	for off := 4; off+4 <= len(pool); off += 4 {
		size := int(binary.LittleEndian.Uint16(pool[off : off+2]))
		refs := binary.LittleEndian.Uint16(pool[off+2 : off+4])

		// Empty slot, still owns a string id.
		if size == 0 && refs == 0 {
			sp.strings = append(sp.strings, "")
			continue
		}

		if size == 0 {
			// Oversized string, real length in the next slot.
			off += 4
			if off+4 > len(pool) {
				return nil, fmt.Errorf("string pool oversized entry truncated at id %d", len(sp.strings))
			}
			size = int(binary.LittleEndian.Uint32(pool[off : off+4]))
		}

		if cursor+size > len(data) {
			return nil, fmt.Errorf("string data overrun at id %d: need %d bytes, have %d",
				len(sp.strings), cursor+size, len(data))
		}

		sp.strings = append(sp.strings, string(data[cursor:cursor+size]))
		cursor += size
	}

	return sp, nil
}

// lookup resolves a string reference. Id 0 is the null string and
// reports false, as do ids past the end of the pool.
func (p *stringPool) lookup(id int) (string, bool) {
	if id <= 0 || id >= len(p.strings) {
		return "", false
	}
	return p.strings[id], true
}

// refSize is the width in bytes of one string reference in table rows.
func (p *stringPool) refSize() int {
	if p.wide {
		return 3
	}
	return 2
}

// parseProperties decodes the Property table. Tables are stored column
// by column: all name references first, then all value references.
func parseProperties(table []byte, sp *stringPool) (map[string]string, error) {
	rs := sp.refSize()
	rowSize := 2 * rs
	if len(table)%rowSize != 0 {
		return nil, fmt.Errorf("property table size %d not a multiple of row size %d", len(table), rowSize)
	}

	rows := len(table) / rowSize
	props := make(map[string]string, rows)
	for i := 0; i < rows; i++ {
		nameID := readRef(table, i*rs, rs)
		valueID := readRef(table, (rows+i)*rs, rs)

		name, ok := sp.lookup(nameID)
		if !ok {
			continue
		}
		value, _ := sp.lookup(valueID)
		props[name] = value
	}

	return props, nil
}

// readRef reads a little-endian string reference of size bytes.
func readRef(b []byte, off, size int) int {
	v := 0
	for i := 0; i < size; i++ {
		v |= int(b[off+i]) << (8 * i)
	}
	return v
}
