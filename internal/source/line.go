package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"bin_monitoring/internal/logger"
)

const (
	defaultBackoff    = time.Second
	defaultMaxBackoff = 30 * time.Second
	maxLineBytes      = 64 * 1024
)

// LineSource reads newline-delimited readings from a device file such as a serial port.
// The device is reopened with exponential backoff whenever it closes or fails.
type LineSource struct {
	deviceID   string
	open       func() (io.ReadCloser, error)
	backoff    time.Duration
	maxBackoff time.Duration
	log        *logger.Logger
}

func NewSerialSource(path, deviceID string, log *logger.Logger) *LineSource {
	return NewLineSource(deviceID, func() (io.ReadCloser, error) { return os.Open(path) }, log)
}

func NewLineSource(deviceID string, open func() (io.ReadCloser, error), log *logger.Logger) *LineSource {
	if log == nil {
		log = logger.Nop()
	}
	return &LineSource{
		deviceID:   deviceID,
		open:       open,
		backoff:    defaultBackoff,
		maxBackoff: defaultMaxBackoff,
		log:        log,
	}
}

func (s *LineSource) Name() string { return "line:" + s.deviceID }

func (s *LineSource) Run(ctx context.Context, sink Sink) error {
	wait := s.backoff
	for {
		if ctx.Err() != nil {
			return nil
		}

		rc, err := s.open()
		if err != nil {
			s.log.Warnw("line_source_open_failed", "device_id", s.deviceID, "retry_in", wait, "err", err)
		} else {
			wait = s.backoff
			lines := s.consume(ctx, rc, sink)
			s.log.Infow("line_source_closed", "device_id", s.deviceID, "lines", lines)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		wait *= 2
		if wait > s.maxBackoff {
			wait = s.maxBackoff
		}
	}
}

// consume forwards lines until EOF, a read error or ctx cancellation and returns how many it read.
func (s *LineSource) consume(ctx context.Context, rc io.ReadCloser, sink Sink) int {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = rc.Close() // unblocks the pending read
	}()

	br := bufio.NewReaderSize(rc, maxLineBytes)
	n := 0
	for {
		line, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			s.log.Warnw("line_too_long", "device_id", s.deviceID, "max_bytes", maxLineBytes)
			if err = skipLine(br); err == nil {
				continue
			}
			line = nil
		}
		if line = bytes.TrimSpace(line); len(line) > 0 {
			n++
			raw := append([]byte(nil), line...)
			if _, ierr := sink.Ingest(ctx, s.deviceID, raw); ierr != nil {
				s.log.Debugw("line_rejected", "device_id", s.deviceID, "err", ierr)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.log.Warnw("line_source_read_failed", "device_id", s.deviceID, "err", err)
			}
			return n
		}
	}
}

// skipLine discards input up to and including the next newline.
func skipLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}
