package tuicore

import (
	"golang.org/x/sys/unix"
)

// QueryTerminalSize asks the kernel for fd's current window size via the
// TIOCGWINSZ ioctl. This package never calls it itself; callers feed the
// result into ResizeCoalescer.HandleResizeAt so the very first size
// observed flows through the same coalescing path as every subsequent
// SIGWINCH.
func QueryTerminalSize(fd int) (Size, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return Size{}, newError("QueryTerminalSize", ErrWriteFailure, err)
	}
	return Size{Width: ws.Col, Height: ws.Row}, nil
}
