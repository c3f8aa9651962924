package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
)

// zapcore.ISO8601TimeEncoder layout.
const timeLayout = "2006-01-02T15:04:05.000Z0700"

// Entry is one decoded line of the homedash JSON log.
type Entry struct {
	Time    time.Time
	Level   zapcore.Level
	Logger  string
	Message string
	Error   string
}

type rawEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Logger    string `json:"logger"`
	Message   string `json:"msg"`
	Error     string `json:"error"`
}

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, next := 0, 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if count < maxLines {
		return append([]string(nil), ring[:count]...), nil
	}
	lines := make([]string, count)
	for i := range lines {
		lines[i] = ring[(next+i)%maxLines]
	}
	return lines, nil
}

// Parse decodes one JSON log line. Lines that are not JSON objects or carry
// an unknown level are rejected.
func Parse(line string) (Entry, error) {
	var raw rawEntry
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, fmt.Errorf("decode log line: %w", err)
	}
	level, err := zapcore.ParseLevel(raw.Level)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Level: level, Logger: raw.Logger, Message: raw.Message, Error: raw.Error}
	if ts, err := time.Parse(timeLayout, raw.Timestamp); err == nil {
		e.Time = ts
	}
	return e, nil
}

// Problems scans the last scan lines of the log at path and returns up to
// limit warning-or-worse entries, newest last. Undecodable lines are skipped.
func Problems(path string, scan, limit int) ([]Entry, error) {
	lines, err := Read(path, scan)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, line := range lines {
		e, err := Parse(line)
		if err != nil || e.Level < zapcore.WarnLevel {
			continue
		}
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
