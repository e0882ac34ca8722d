package main

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"interrupt", errInterrupted, 130},
		{"wrapped interrupt", fmt.Errorf("serve: %w", errInterrupted), 130},
		{"terminate", errTerminated, 143},
		{"wrapped terminate", fmt.Errorf("serve: %w", errTerminated), 143},
		{"other failure", errors.New("dial tcp: connection refused"), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCode(tc.err); got != tc.want {
				t.Fatalf("expected exit code %d, got %d", tc.want, got)
			}
		})
	}
}
