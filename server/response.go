package server

import (
	"bytes"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var notFoundBody = []byte("404 Not Found")

// headerBufferPool holds buffers for building response headers
var headerBufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// buffers larger than this are not returned to the pool
const maxPoolBufferSize = 16384

// writeHeaderBytes builds the status line and headers for a response
func writeHeaderBytes(buf *bytes.Buffer, statusCode, statusMessage, contentType string, contentLength int) {
	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(statusCode)
	buf.WriteString(" ")
	buf.WriteString(statusMessage)
	buf.WriteString("\r\nContent-Type: ")
	buf.WriteString(contentType)
	buf.WriteString("\r\nContent-Length: ")
	buf.WriteString(strconv.Itoa(contentLength))
	buf.WriteString("\r\n\r\n")
}

// CreateResponseBytes builds a complete HTTP response as bytes
func CreateResponseBytes(statusCode, contentType, statusMessage string, body []byte) []byte {
	buf := headerBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	defer func() {
		if buf.Cap() <= maxPoolBufferSize {
			headerBufferPool.Put(buf)
		}
	}()

	writeHeaderBytes(buf, statusCode, statusMessage, contentType, len(body))
	buf.Write(body)

	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result
}

// writeResponse sends the header block followed by the body. The body is
// never copied, it goes to the socket straight from the region.
func writeResponse(conn net.Conn, contentType string, body []byte, timeout time.Duration) error {
	buf := headerBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer headerBufferPool.Put(buf)

	writeHeaderBytes(buf, "200", "OK", contentType, len(body))

	if timeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	if _, err := conn.Write(buf.Bytes()); err != nil {
		return errors.Wrapf(ErrWrite, "header: %v", err)
	}
	if _, err := conn.Write(body); err != nil {
		return errors.Wrapf(ErrWrite, "body: %v", err)
	}
	return nil
}

// serve404 writes the fixed not found response.
func serve404(conn net.Conn, timeout time.Duration) error {
	if timeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	if _, err := conn.Write(notFoundResponse); err != nil {
		return errors.Wrapf(ErrWrite, "404: %v", err)
	}
	return nil
}

var notFoundResponse = CreateResponseBytes("404", "text/plain", "Not Found", notFoundBody)
