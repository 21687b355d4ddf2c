package server

import (
	"bytes"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
)

// Request holds everything known about the request being served. It lives
// for exactly one connection.
type Request struct {
	Raw         []byte
	Method      string
	Path        string
	FilePath    string
	ContentType string
}

// readRequest reads at most len(buf) bytes from conn. A peer that closes
// without sending anything is reported as an error too.
func readRequest(conn net.Conn, buf []byte, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(timeout))
	}

	n, err := conn.Read(buf)
	if err != nil {
		return nil, errors.Wrapf(ErrConnectionRead, "%v", err)
	}
	if n == 0 {
		return nil, errors.Wrapf(ErrConnectionRead, "%v", io.ErrUnexpectedEOF)
	}
	return buf[:n], nil
}

// parseRequestLine extracts the first two whitespace separated tokens.
// Missing tokens come back empty.
func parseRequestLine(data []byte) (method, path string) {
	fields := bytes.Fields(firstLine(data))
	if len(fields) > 0 {
		method = string(fields[0])
	}
	if len(fields) > 1 {
		path = string(fields[1])
	}
	return method, path
}

func firstLine(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i]
	}
	return data
}

// normalizePath maps the bare root to /index.html and makes every other path
// absolute.
func normalizePath(path string) string {
	if path == "" || path == "/" {
		return "/index.html"
	}
	if path[0] != '/' {
		return "/" + path
	}
	return path
}

// resolvePath prefixes the normalized path with root. The path is not
// sanitized; ".." segments are passed through to the filesystem.
func resolvePath(root, path string) string {
	return root + normalizePath(path)
}
