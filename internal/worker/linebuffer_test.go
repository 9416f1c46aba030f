package worker_test

import (
	"reflect"
	"strings"
	"testing"

	"docpress/internal/worker"
)

func TestFeedReassemblesSplitLines(t *testing.T) {
	var buf worker.LineBuffer

	first := buf.Feed("PROGRESS:{\"p\":1}\nPROGR")
	if !reflect.DeepEqual(first, []string{`PROGRESS:{"p":1}`}) {
		t.Fatalf("unexpected lines from first chunk: %v", first)
	}

	second := buf.Feed("ESS:{\"p\":2}\n")
	if !reflect.DeepEqual(second, []string{`PROGRESS:{"p":2}`}) {
		t.Fatalf("unexpected lines from second chunk: %v", second)
	}
	if buf.Rest() != "" {
		t.Fatalf("expected empty remainder, got %q", buf.Rest())
	}
}

func TestFeedMatchesWholeSplitRegardlessOfChunking(t *testing.T) {
	text := "alpha\n  beta  \ngamma\ndelta"
	want := []string{"alpha", "beta", "gamma"}

	for size := 1; size <= len(text); size++ {
		var buf worker.LineBuffer
		var got []string
		for start := 0; start < len(text); start += size {
			end := start + size
			if end > len(text) {
				end = len(text)
			}
			got = append(got, buf.Feed(text[start:end])...)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("chunk size %d: got %v want %v", size, got, want)
		}
		if buf.Rest() != "delta" {
			t.Fatalf("chunk size %d: expected unterminated trailing fragment retained, got %q", size, buf.Rest())
		}
	}
}

func TestFeedEmitsEmptyLines(t *testing.T) {
	var buf worker.LineBuffer
	lines := buf.Feed("one\n\ntwo\n")
	if !reflect.DeepEqual(lines, []string{"one", "", "two"}) {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestFeedKeepsPartialLineAcrossManyChunks(t *testing.T) {
	var buf worker.LineBuffer
	for _, chunk := range []string{"RES", "ULT", ":{\"ok\"", ":true}"} {
		if lines := buf.Feed(chunk); lines != nil {
			t.Fatalf("expected no complete lines yet, got %v", lines)
		}
	}
	lines := buf.Feed("\n")
	if !reflect.DeepEqual(lines, []string{`RESULT:{"ok":true}`}) {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestFeedTrimsCarriageReturns(t *testing.T) {
	var buf worker.LineBuffer
	lines := buf.Feed("one\r\ntwo\r\n")
	if !reflect.DeepEqual(lines, []string{"one", "two"}) {
		t.Fatalf("expected CRLF endings handled, got %v", lines)
	}
	if strings.Contains(buf.Rest(), "\r") {
		t.Fatalf("unexpected remainder %q", buf.Rest())
	}
}
