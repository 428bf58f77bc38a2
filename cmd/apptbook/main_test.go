package main

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestParseReminderOffsets(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	offsets := parseReminderOffsets("1440,60", logger)
	if len(offsets) != 2 || offsets[0] != 24*time.Hour || offsets[1] != time.Hour {
		t.Fatalf("offsets = %v", offsets)
	}

	// Garbage entries are dropped, valid ones kept.
	offsets = parseReminderOffsets("abc,-5, 30 ,", logger)
	if len(offsets) != 1 || offsets[0] != 30*time.Minute {
		t.Fatalf("offsets = %v", offsets)
	}

	// Nothing usable falls back to defaults.
	offsets = parseReminderOffsets("", logger)
	if len(offsets) != 2 {
		t.Fatalf("offsets = %v", offsets)
	}
}

func TestParseList(t *testing.T) {
	got := parseList(" a ,, b,c ")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("got %v", got)
	}
	if parseList("") != nil {
		t.Fatal("empty input should yield nil")
	}
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		if !isTruthy(v) {
			t.Fatalf("%q should be truthy", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off"} {
		if isTruthy(v) {
			t.Fatalf("%q should be falsy", v)
		}
	}
}
