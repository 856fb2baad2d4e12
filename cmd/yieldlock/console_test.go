package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endless yields the same command forever.
type endless struct{}

func (endless) Read(p []byte) (int, error) {
	line := "show\n"
	n := 0
	for n+len(line) <= len(p) {
		n += copy(p[n:], line)
	}
	return n, nil
}

func drained(t *testing.T, lines <-chan string) {
	t.Helper()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-lines:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, time.Millisecond)
}

func TestReadLinesDelivers(t *testing.T) {
	lines := readLines(context.Background(), strings.NewReader("show\nquit\n"), nil)
	assert.Equal(t, "show", <-lines)
	assert.Equal(t, "quit", <-lines)
	_, ok := <-lines
	assert.False(t, ok)
}

func TestReadLinesExitsWhenNobodyListens(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lines := readLines(ctx, endless{}, nil)
	cancel()
	drained(t, lines)

	stop := make(chan struct{})
	lines = readLines(context.Background(), endless{}, stop)
	close(stop)
	drained(t, lines)
}
