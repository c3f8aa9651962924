package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "homedash.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRead(t *testing.T) {
	var all []string
	for i := 1; i <= 10; i++ {
		all = append(all, fmt.Sprintf("Line %d", i))
	}
	path := writeLog(t, all...)

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"zero", 0, nil},
		{"last 3", 3, all[7:]},
		{"exact", 10, all},
		{"more than file", 20, all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(path, tt.maxLines)
			if err != nil {
				t.Fatalf("Read error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("Read(%d) = %v, want %v", tt.maxLines, got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	e, err := Parse(`{"level":"warn","timestamp":"2026-03-04T05:06:07.890Z","logger":"homedash.weather","msg":"token refresh failed, skipping cycle","error":"401"}`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if e.Level != zapcore.WarnLevel || e.Logger != "homedash.weather" || e.Error != "401" {
		t.Fatalf("Parse = %+v", e)
	}
	want := time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.UTC)
	if !e.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", e.Time, want)
	}

	if _, err := Parse("plain text"); err == nil {
		t.Fatalf("Parse(plain text) returned nil error")
	}
	if _, err := Parse(`{"level":"loud","msg":"x"}`); err == nil {
		t.Fatalf("Parse(unknown level) returned nil error")
	}
}

func TestProblems_KeepsWarningsNewestLast(t *testing.T) {
	path := writeLog(t,
		`{"level":"info","msg":"homedash starting"}`,
		`{"level":"warn","msg":"first"}`,
		`not json`,
		`{"level":"error","msg":"second"}`,
		`{"level":"debug","msg":"noise"}`,
		`{"level":"warn","msg":"third"}`,
	)

	got, err := Problems(path, 100, 2)
	if err != nil {
		t.Fatalf("Problems error: %v", err)
	}
	if len(got) != 2 || got[0].Message != "second" || got[1].Message != "third" {
		t.Fatalf("Problems = %+v, want [second third]", got)
	}
}
