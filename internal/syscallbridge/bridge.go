package syscallbridge

import (
	"errors"
	"io/fs"

	"github.com/ddkcore/kernel/internal/ddk"
	"github.com/ddkcore/kernel/internal/vfs"
	"golang.org/x/sys/unix"
)

// Bridge decodes syscall-bridge requests and dispatches them into a VFS
// multiplexer, converting its errors into the closed ResultCode set and
// returning the matching negative errno from ToErrno.
type Bridge struct {
	mux *vfs.Multiplexer
}

// NewBridge returns a bridge routing to mux.
func NewBridge(mux *vfs.Multiplexer) *Bridge {
	return &Bridge{mux: mux}
}

// RegisterWith installs this bridge's handlers on a kernel export ABI
// syscall registry, so Kernel_Register*Handler calls reach the VFS through
// this bridge rather than a driver-supplied stub.
func (b *Bridge) RegisterWith(exports *ddk.SyscallExports) {
	exports.RegisterMkdirHandler(b.Mkdir)
	exports.RegisterRmdirHandler(b.Rmdir)
	exports.RegisterUnlinkHandler(b.Unlink)
	exports.RegisterGetdentsHandler(b.Getdents)
	exports.RegisterAccessHandler(b.Access)
	exports.RegisterRenameHandler(b.Rename)
}

func decodePath(path string) (string, ResultCode) {
	if len(path) > maxPathBytes {
		return "", ResultNameTooLong
	}
	return path, ResultSuccess
}

func classifyError(err error) ResultCode {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, vfs.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ResultNotFound
	case errors.Is(err, vfs.ErrReadOnly):
		return ResultReadOnly
	case errors.Is(err, vfs.ErrCrossMountRename):
		return ResultNotSupported
	case errors.Is(err, fs.ErrExist):
		return ResultAlreadyExists
	case errors.Is(err, fs.ErrPermission):
		return ResultAccessDenied
	case errors.Is(err, unix.ENOTEMPTY):
		return ResultNotEmpty
	case errors.Is(err, unix.ENOTDIR):
		return ResultNotADirectory
	case errors.Is(err, unix.EISDIR):
		return ResultIsADirectory
	case errors.Is(err, unix.ENOSPC):
		return ResultNoSpace
	default:
		return ResultIOError
	}
}

func (b *Bridge) Mkdir(path string, mode int32) int32 {
	p, code := decodePath(path)
	if code != ResultSuccess {
		return code.ToErrno()
	}
	err := b.mux.Mkdir(p, fs.FileMode(mode))
	return classifyError(err).ToErrno()
}

func (b *Bridge) Rmdir(path string) int32 {
	p, code := decodePath(path)
	if code != ResultSuccess {
		return code.ToErrno()
	}
	return classifyError(b.mux.Rmdir(p)).ToErrno()
}

func (b *Bridge) Unlink(path string) int32 {
	p, code := decodePath(path)
	if code != ResultSuccess {
		return code.ToErrno()
	}
	return classifyError(b.mux.Unlink(p)).ToErrno()
}

func (b *Bridge) Access(path string) int32 {
	p, code := decodePath(path)
	if code != ResultSuccess {
		return code.ToErrno()
	}
	return classifyError(b.mux.Access(p)).ToErrno()
}

func (b *Bridge) Rename(oldPath, newPath string) int32 {
	if _, code := decodePath(oldPath); code != ResultSuccess {
		return code.ToErrno()
	}
	if _, code := decodePath(newPath); code != ResultSuccess {
		return code.ToErrno()
	}
	return classifyError(b.mux.Rename(oldPath, newPath)).ToErrno()
}

// Getdents enumerates path and encodes as many records as fit in buf,
// resuming from *offset and advancing it for the next call.
func (b *Bridge) Getdents(path string, buf []byte, offset *int64) (int32, error) {
	p, code := decodePath(path)
	if code != ResultSuccess {
		return code.ToErrno(), nil
	}
	entries, err := b.mux.ReadDir(p)
	if err != nil {
		return classifyError(err).ToErrno(), nil
	}
	return EncodeGetdents(entries, buf, offset), nil
}
