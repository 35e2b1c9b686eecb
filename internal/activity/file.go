package activity

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileLog appends one line per action to a text file:
//
//	[2025-01-31 14:02:11] gerald: Deleted project: Kiambu
type FileLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFileLog(path string) (*FileLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &FileLog{path: path, now: time.Now}, nil
}

func (l *FileLog) Record(ctx context.Context, actor, action string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// one entry per line
	action = strings.ReplaceAll(action, "\n", " ")

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("[%s] %s: %s\n", l.now().Format(timeLayout), actor, action)
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (l *FileLog) Recent(ctx context.Context, n int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]Entry, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		out = append(out, parseLine(lines[i]))
	}
	return out, nil
}

// parseLine also accepts the older format without an actor: "[ts] action".
func parseLine(line string) Entry {
	if !strings.HasPrefix(line, "[") {
		return Entry{Action: line}
	}
	end := strings.Index(line, "]")
	if end < 0 {
		return Entry{Action: line}
	}
	ts, err := time.ParseInLocation(timeLayout, line[1:end], time.Local)
	if err != nil {
		return Entry{Action: line}
	}

	e := Entry{Time: ts, Action: strings.TrimSpace(line[end+1:])}
	if actor, action, ok := strings.Cut(e.Action, ": "); ok && actor != "" && !strings.ContainsAny(actor, " \t") {
		e.Actor, e.Action = actor, action
	}
	return e
}
