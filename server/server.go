package server

import (
	"context"
	"io"
	"net"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codetesla51/weasel/region"
)

var (
	// ErrConnectionRead means the peer went away or the transport failed
	// before a request arrived.
	ErrConnectionRead = errors.New("connection read failed")
	// ErrFileNotFound means the resolved file could not be opened.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileReadMismatch means fewer bytes were read from disk than the
	// file reported.
	ErrFileReadMismatch = errors.New("short read from file")
	// ErrWrite means the response could not be written to the peer.
	ErrWrite = errors.New("response write failed")
)

// Outcome is how a single connection ended.
type Outcome int

const (
	OutcomeServed Outcome = iota
	OutcomeNotFound
	OutcomeConnectionReadError
	OutcomeAllocationExhausted
	OutcomeFileReadMismatch
	OutcomeWriteError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeServed:
		return "200"
	case OutcomeNotFound:
		return "404"
	case OutcomeConnectionReadError:
		return "read_error"
	case OutcomeAllocationExhausted:
		return "exhausted"
	case OutcomeFileReadMismatch:
		return "read_mismatch"
	case OutcomeWriteError:
		return "write_error"
	}
	return "unknown"
}

// Server serves files from a root directory one connection at a time,
// staging each file in a region that is reclaimed according to a
// ResetPolicy.
type Server struct {
	cfg    *Config
	region *region.Region
	policy ResetPolicy
	logger log.Logger
	m      *metrics

	// buf receives the raw request. It lives outside the region so
	// resetting the region can never touch it.
	buf              []byte
	servedSinceReset int
}

// New returns a Server that allocates from r. reg may be nil.
func New(cfg *Config, r *region.Region, logger log.Logger, reg prometheus.Registerer) *Server {
	s := &Server{
		cfg:    cfg,
		region: r,
		policy: cfg.ResetPolicy(),
		logger: logger,
		m:      newMetrics(reg),
		buf:    make([]byte, cfg.RequestBufferSize),
	}
	s.m.observeRegion(r.Stats())
	return s
}

// Policy returns the reset policy in use.
func (s *Server) Policy() ResetPolicy { return s.policy }

// Serve accepts connections from l and serves them sequentially until ctx
// is done or l is closed.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-done:
		}
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			level.Warn(s.logger).Log("msg", "accept failed", "err", err)
			continue
		}
		s.ServeOne(conn)
	}
}

// ServeOne answers a single request on conn and closes it. Every failure is
// local to the connection.
func (s *Server) ServeOne(conn net.Conn) Outcome {
	defer conn.Close()

	s.beginRequest()

	req := &Request{}
	outcome, err := s.serve(conn, req)

	s.m.requests.WithLabelValues(outcome.String()).Inc()
	s.m.observeRegion(s.region.Stats())

	if err != nil {
		lvl := level.Warn
		switch outcome {
		case OutcomeConnectionReadError, OutcomeNotFound:
			lvl = level.Debug
		case OutcomeFileReadMismatch:
			lvl = level.Error
		}
		lvl(s.logger).Log("msg", "request failed", "method", req.Method, "path", req.Path, "outcome", outcome, "err", err)
	}
	if s.cfg.EnableLogging && outcome != OutcomeConnectionReadError {
		logRequest(s.logger, req, outcome)
	}
	return outcome
}

// beginRequest applies the reset policy at the request boundary, before
// anything is allocated for the new request.
func (s *Server) beginRequest() {
	if s.policy.Before(s.servedSinceReset) {
		s.region.Reset()
		s.servedSinceReset = 0
		s.m.resets.Inc()
	}
	s.servedSinceReset++
}

func (s *Server) serve(conn net.Conn, req *Request) (Outcome, error) {
	raw, err := readRequest(conn, s.buf, s.cfg.ReadTimeout)
	if err != nil {
		return OutcomeConnectionReadError, err
	}
	req.Raw = raw

	method, path := parseRequestLine(raw)
	req.Method = method
	req.Path = normalizePath(path)
	req.FilePath = resolvePath(s.cfg.Root, path)

	level.Debug(s.logger).Log("msg", "attempting to open file", "file", req.FilePath)

	f, size, err := openFile(req.FilePath)
	if err != nil {
		if werr := serve404(conn, s.cfg.WriteTimeout); werr != nil {
			return OutcomeWriteError, werr
		}
		return OutcomeNotFound, err
	}
	defer f.Close()

	// Checked before the conversion to int so oversized files cannot wrap.
	if size > int64(s.region.Cap()) {
		return OutcomeAllocationExhausted, s.exhausted(region.ErrAllocationExhausted, size)
	}
	alloc, err := s.region.AllocBytes(int(size))
	if err != nil {
		return OutcomeAllocationExhausted, s.exhausted(err, size)
	}
	s.m.allocatedBytes.Add(float64(size))

	// Only fails for stale handles; nothing resets between AllocBytes and here.
	body, err := alloc.Bytes()
	if err != nil {
		return OutcomeAllocationExhausted, err
	}

	n, err := io.ReadFull(f, body)
	if err != nil {
		return OutcomeFileReadMismatch, errors.Wrapf(ErrFileReadMismatch, "read %d of %d bytes: %v", n, size, err)
	}

	req.ContentType = getContentType(req.Path)
	if err := writeResponse(conn, req.ContentType, body, s.cfg.WriteTimeout); err != nil {
		return OutcomeWriteError, err
	}
	return OutcomeServed, nil
}

func (s *Server) exhausted(err error, size int64) error {
	return errors.Wrapf(err, "file is %s, %s of %s free",
		humanize.IBytes(uint64(size)),
		humanize.IBytes(uint64(s.region.Cap()-s.region.Len())),
		humanize.IBytes(uint64(s.region.Cap())))
}

// openFile is replaced in tests.
var openFile = openRegularFile

// openRegularFile opens path and returns its length. Anything that is not a
// regular file counts as missing.
func openRegularFile(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrapf(ErrFileNotFound, "%v", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errors.Wrapf(ErrFileNotFound, "%v", err)
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, 0, errors.Wrapf(ErrFileNotFound, "%s is not a regular file", path)
	}
	return f, fi.Size(), nil
}
