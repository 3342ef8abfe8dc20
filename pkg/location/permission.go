package location

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// SerialPortPermission reports whether the process may read the GPS device node.
type SerialPortPermission struct {
	port string
}

// NewSerialPortPermission creates a PermissionQuerier for the given device node.
func NewSerialPortPermission(port string) *SerialPortPermission {
	return &SerialPortPermission{port: port}
}

// QueryPermission returns PermissionGranted when the port can be opened for reading and
// PermissionDenied when access is refused. A missing device node is an error.
func (p *SerialPortPermission) QueryPermission(ctx context.Context) (PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return PermissionUnsupported, err
	}

	f, err := os.OpenFile(p.port, os.O_RDONLY, 0)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return PermissionDenied, nil
		}
		return PermissionUnsupported, err
	}
	f.Close()

	return PermissionGranted, nil
}

// StaticPermission always answers with the same state. Useful for providers that need no device access.
type StaticPermission PermissionState

// QueryPermission returns the fixed state.
func (s StaticPermission) QueryPermission(context.Context) (PermissionState, error) {
	return PermissionState(s), nil
}
