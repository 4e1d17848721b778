package runlog

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	reportPrefix = "run-report-"
	reportSuffix = ".md"

	retentionDays = 14
)

// ReportStore is the blob-storage collaborator holding dated markdown
// reports.
type ReportStore interface {
	// Download returns the report body and whether it exists.
	Download(ctx context.Context, name string) ([]byte, bool, error)
	Upsert(ctx context.Context, name string, data []byte) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// ReportName returns the dated report filename for the given day.
func ReportName(t time.Time) string {
	return fmt.Sprintf("%s%s%s", reportPrefix, t.Format("2006-01-02"), reportSuffix)
}

// SaveDaily renders the log and writes it under today's report name,
// appending to a same-day report when one already exists.
func SaveDaily(ctx context.Context, store ReportStore, l *Log, now time.Time) (string, error) {
	name := ReportName(now)
	rendered := l.Render()

	existing, found, err := store.Download(ctx, name)
	if err != nil {
		return "", fmt.Errorf("download existing report %s: %w", name, err)
	}

	body := rendered
	if found {
		body = strings.TrimRight(string(existing), "\n") + "\n\n---\n\n" + rendered
	}

	if err := store.Upsert(ctx, name, []byte(body)); err != nil {
		return "", fmt.Errorf("upsert report %s: %w", name, err)
	}

	return name, nil
}

// Prune deletes reports older than the retention window. Filenames
// embed ISO dates, so the cutoff comparison is lexicographic.
func Prune(ctx context.Context, store ReportStore, now time.Time) (int, error) {
	cutoff := ReportName(now.AddDate(0, 0, -retentionDays))

	names, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list reports: %w", err)
	}

	deleted := 0
	for _, name := range names {
		if !strings.HasPrefix(name, reportPrefix) {
			continue
		}
		if name >= cutoff {
			continue
		}
		if err := store.Delete(ctx, name); err != nil {
			return deleted, fmt.Errorf("delete report %s: %w", name, err)
		}
		deleted++
	}

	return deleted, nil
}
