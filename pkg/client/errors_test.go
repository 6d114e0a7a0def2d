package client

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{404, ErrorClassClient},
		{403, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
		{304, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.want {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestClassOf(t *testing.T) {
	if got := classOf(io.EOF); got != ErrorClassNetwork {
		t.Errorf("classOf(io.EOF) = %q, want network", got)
	}

	wrapped := fmt.Errorf("attempt: %w", &StatusError{StatusCode: 502, ErrorClass: ErrorClassServer})
	if got := classOf(wrapped); got != ErrorClassServer {
		t.Errorf("classOf(wrapped 502) = %q, want server", got)
	}
}

func TestStatusError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *StatusError
		want string
	}{
		{
			name: "without wrapped error",
			err:  &StatusError{StatusCode: 503, ErrorClass: ErrorClassServer, Message: "503 Service Unavailable"},
			want: "stats api server error (status 503): 503 Service Unavailable",
		},
		{
			name: "with wrapped error",
			err: &StatusError{
				StatusCode: 200,
				ErrorClass: ErrorClassDecode,
				Message:    "bad body",
				Err:        io.ErrUnexpectedEOF,
			},
			want: "stats api decode error (status 200): bad body: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusError_Unwrap(t *testing.T) {
	err := &StatusError{Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is should see the wrapped error")
	}

	var se *StatusError
	if !errors.As(fmt.Errorf("wrap: %w", err), &se) {
		t.Error("errors.As should find *StatusError")
	}
}
