// Package syscallbridge implements the kernel export ABI's path-based
// syscall handlers (spec section 4.7): it decodes a bounded path, dispatches
// into the VFS multiplexer, and encodes the closed set of internal result
// codes into negative Linux-style errno values built from
// golang.org/x/sys/unix's errno constants.
package syscallbridge

import "errors"

// maxPathBytes bounds a decoded path: longer inputs yield ResultNameTooLong
// (-ENAMETOOLONG) before anything reaches the VFS layer.
const maxPathBytes = 4095

// ErrNameTooLong names the over-length path case. decodePath reports that
// case as ResultNameTooLong and does not return this error.
var ErrNameTooLong = errors.New("syscallbridge: path exceeds 4095 bytes")
