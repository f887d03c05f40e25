package syscallbridge

import "golang.org/x/sys/unix"

// ResultCode is the closed set of internal result codes the filesystem
// taxonomy (spec section 7) defines; ToErrno is the fixed total function
// from this set to the ABI's negative errno convention (section 4.7).
type ResultCode int

const (
	ResultSuccess ResultCode = iota
	ResultNotFound
	ResultAlreadyExists
	ResultAccessDenied
	ResultInvalidArgument
	ResultNotEmpty
	ResultNoSpace
	ResultIOError
	ResultReadOnly
	ResultNotADirectory
	ResultIsADirectory
	ResultTooManyOpen
	ResultNameTooLong
	ResultBadHandle
	ResultNotSupported
)

// ToErrno maps a result code to the negative errno value the syscall
// dispatch returns to the caller. Any code outside the enumerated set
// (there should be none, since ResultCode is closed) defaults to -EIO,
// matching the spec's "unmapped results default to -5" rule.
func (c ResultCode) ToErrno() int32 {
	switch c {
	case ResultSuccess:
		return 0
	case ResultNotFound:
		return -int32(unix.ENOENT)
	case ResultAlreadyExists:
		return -int32(unix.EEXIST)
	case ResultAccessDenied:
		return -int32(unix.EACCES)
	case ResultInvalidArgument:
		return -int32(unix.EINVAL)
	case ResultNotEmpty:
		return -int32(unix.ENOTEMPTY)
	case ResultNoSpace:
		return -int32(unix.ENOSPC)
	case ResultIOError:
		return -int32(unix.EIO)
	case ResultReadOnly:
		return -int32(unix.EROFS)
	case ResultNotADirectory:
		return -int32(unix.ENOTDIR)
	case ResultIsADirectory:
		return -int32(unix.EISDIR)
	case ResultTooManyOpen:
		return -int32(unix.EMFILE)
	case ResultNameTooLong:
		return -int32(unix.ENAMETOOLONG)
	case ResultBadHandle:
		return -int32(unix.EBADF)
	case ResultNotSupported:
		return -int32(unix.ENOSYS)
	default:
		return -int32(unix.EIO)
	}
}
