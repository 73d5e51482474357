package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Logger appends human-readable audit records to one file per identity
// under a base directory. Writes are best-effort by contract: a failed
// append must never fail the turn that produced it, so callers log the
// returned error and move on.
type Logger struct {
	dir string
}

func NewLogger(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	return &Logger{dir: dir}, nil
}

// Append writes one entry to the identity's log file.
func (l *Logger) Append(ctx context.Context, e Entry) error {
	path := filepath.Join(l.dir, e.Identity+".log")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(format(e)); err != nil {
		return fmt.Errorf("append audit log %s: %w", path, err)
	}
	return nil
}

func format(e Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s node=%s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.ID, e.Node)
	fmt.Fprintf(&b, "  Q: %s\n", e.Question)
	fmt.Fprintf(&b, "  A: %s\n", e.RawAnswer)
	if e.Unclear {
		fmt.Fprintf(&b, "  extracted: (unclear) %s\n", e.Response)
	} else if len(e.Extracted) > 0 {
		fmt.Fprintf(&b, "  extracted: %s\n", string(e.Extracted))
	}
	fmt.Fprintf(&b, "  next: %s\n", e.NextNode)
	fmt.Fprintf(&b, "  out: %s\n\n", e.Response)
	return b.String()
}
