// Package runlog collects categorized log entries during a pipeline
// run and renders them into a markdown report.
package runlog

import (
	"fmt"
	"strings"
	"time"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Entry is one appended log line. Entries are never mutated after
// being appended.
type Entry struct {
	Time     time.Time
	Level    Level
	Category string
	Message  string
}

// Log is the append-only entry sequence for one run. Not safe for
// concurrent use; only the orchestrator goroutine appends.
type Log struct {
	started time.Time
	entries []Entry

	now func() time.Time
}

func New() *Log {
	l := &Log{now: time.Now}
	l.started = l.now()
	return l
}

func (l *Log) Info(category, message string) {
	l.append(LevelInfo, category, message)
}

func (l *Log) Warn(category, message string) {
	l.append(LevelWarn, category, message)
}

func (l *Log) Error(category, message string) {
	l.append(LevelError, category, message)
}

func (l *Log) append(level Level, category, message string) {
	l.entries = append(l.entries, Entry{
		Time:     l.now(),
		Level:    level,
		Category: category,
		Message:  message,
	})
}

func (l *Log) Entries() []Entry {
	return l.entries
}

func (l *Log) Started() time.Time {
	return l.started
}

// Counts returns the total entry count plus error and warning counts.
func (l *Log) Counts() (entries, errors, warnings int) {
	entries = len(l.entries)
	for _, e := range l.entries {
		switch e.Level {
		case LevelError:
			errors++
		case LevelWarn:
			warnings++
		}
	}

	return entries, errors, warnings
}

// Render produces the human-readable markdown report: a summary table
// followed by entries grouped by category in first-appearance order.
func (l *Log) Render() string {
	entries, errors, warnings := l.Counts()
	duration := l.now().Sub(l.started).Round(time.Second)

	var b strings.Builder
	b.WriteString("# Pipeline Run Report\n\n")
	fmt.Fprintf(&b, "Run started %s\n\n", l.started.Format(time.RFC3339))

	b.WriteString("| Metric | Value |\n")
	b.WriteString("| --- | --- |\n")
	fmt.Fprintf(&b, "| Duration | %s |\n", duration)
	fmt.Fprintf(&b, "| Entries | %d |\n", entries)
	fmt.Fprintf(&b, "| Errors | %d |\n", errors)
	fmt.Fprintf(&b, "| Warnings | %d |\n\n", warnings)

	for _, category := range l.categories() {
		fmt.Fprintf(&b, "## %s\n\n", category)
		for _, e := range l.entries {
			if e.Category != category {
				continue
			}
			fmt.Fprintf(&b, "- `%s` **%s** %s\n", e.Time.Format("15:04:05"), e.Level, e.Message)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (l *Log) categories() []string {
	seen := make(map[string]struct{})
	var ordered []string
	for _, e := range l.entries {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		ordered = append(ordered, e.Category)
	}

	return ordered
}
