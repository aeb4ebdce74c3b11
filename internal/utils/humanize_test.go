package utils

import (
	"testing"
	"time"
)

func TestConvertBytesToHumanReadable(t *testing.T) {
	tests := map[int64]string{
		-1:          "?",
		0:           "0 B",
		1024:        "1.0 KiB",
		1536 * 1024: "1.5 MiB",
	}
	for in, want := range tests {
		if got := ConvertBytesToHumanReadable(in); got != want {
			t.Errorf("ConvertBytesToHumanReadable(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(2048, time.Second); got != "2.0 KiB/s" {
		t.Errorf("FormatRate = %q", got)
	}
	if got := FormatRate(100, 0); got != "0 B/s" {
		t.Errorf("FormatRate with zero elapsed = %q", got)
	}
}
