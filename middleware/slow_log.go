package middleware

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/connorjcantrell/dbpool/factory"
)

// SlowLog wraps a Factory and logs opens and health checks that take longer
// than the specified threshold.
type SlowLog[C any] struct {
	Threshold time.Duration
	LogPath   string

	next   factory.Factory[C]
	logger *log.Logger
	file   *os.File
}

// NewSlowLog creates a new SlowLog around next.
// threshold: factory operations taking longer than this will be logged.
// logPath: path to the log file. If empty, logs to standard output.
func NewSlowLog[C any](next factory.Factory[C], threshold time.Duration, logPath string) (*SlowLog[C], error) {
	s := &SlowLog[C]{
		Threshold: threshold,
		LogPath:   logPath,
		next:      next,
	}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open slow log file: %w", err)
		}
		s.file = f
		s.logger = log.New(f, "[SLOW CONN] ", log.LstdFlags)
	} else {
		s.logger = log.New(os.Stdout, "[SLOW CONN] ", log.LstdFlags)
	}
	return s, nil
}

// SetOutput sets the output destination for the logger.
// This is useful for testing or custom logging.
func (s *SlowLog[C]) SetOutput(w io.Writer) {
	s.logger = log.New(w, "[SLOW CONN] ", log.LstdFlags)
}

// Shutdown closes the log file if one was opened.
func (s *SlowLog[C]) Shutdown() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

func (s *SlowLog[C]) Open(ctx context.Context) (C, error) {
	start := time.Now()
	conn, err := s.next.Open(ctx)
	if duration := time.Since(start); duration > s.Threshold {
		s.logger.Printf("op=open duration=%v err=%v", duration, err)
	}
	return conn, err
}

func (s *SlowLog[C]) Check(ctx context.Context, conn C) bool {
	start := time.Now()
	ok := s.next.Check(ctx, conn)
	if duration := time.Since(start); duration > s.Threshold {
		s.logger.Printf("op=check duration=%v healthy=%v", duration, ok)
	}
	return ok
}

func (s *SlowLog[C]) Close(conn C) error {
	return s.next.Close(conn)
}
