package syscallbridge

import (
	"encoding/binary"

	"github.com/ddkcore/kernel/internal/vfs"
)

// DT_* constants for the getdents record type byte (spec section 4.7).
const (
	dtFIFO = 1
	dtChr  = 2
	dtDir  = 4
	dtBlk  = 6
	dtReg  = 8
	dtLnk  = 10
	dtSock = 12
)

// hashInode derives a stable 64-bit inode number from a name using the
// spec's 31-multiplicative hash, the same constant classic hash tables
// (and java.lang.String.hashCode) use for short string keys.
func hashInode(name string) uint64 {
	var h uint64
	for i := 0; i < len(name); i++ {
		h = h*31 + uint64(name[i])
	}
	return h
}

func recordLen(name string) int {
	n := 8 + 8 + 2 + 1 + len(name) + 1 // inode, next-offset, reclen, type, name, NUL
	if pad := n % 8; pad != 0 {
		n += 8 - pad
	}
	return n
}

// EncodeGetdents writes as many whole directory-entry records as fit in
// buf, starting at *offset (an opaque index into entries, not a byte
// offset), and advances *offset to the index of the first entry not
// written so the next call resumes there. It returns the number of bytes
// written.
func EncodeGetdents(entries []vfs.DirEntry, buf []byte, offset *int64) int32 {
	start := int(*offset)
	if start < 0 || start >= len(entries) {
		*offset = int64(len(entries))
		return 0
	}

	written := 0
	idx := start
	for idx < len(entries) {
		e := entries[idx]
		recLen := recordLen(e.Name)
		if written+recLen > len(buf) {
			break
		}

		rec := buf[written : written+recLen]
		binary.LittleEndian.PutUint64(rec[0:8], hashInode(e.Name))
		binary.LittleEndian.PutUint64(rec[8:16], uint64(idx+1))
		binary.LittleEndian.PutUint16(rec[16:18], uint16(recLen))
		rec[18] = e.Type
		copy(rec[19:], e.Name)
		// Remaining bytes (NUL terminator plus padding) are left zeroed.

		written += recLen
		idx++
	}

	*offset = int64(idx)
	return int32(written)
}
