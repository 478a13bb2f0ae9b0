package archivers

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// git log field/record separators. The ASCII unit and record separators
// cannot occur in commit metadata, unlike any printable delimiter.
const (
	gitFieldSep  = "\x1f"
	gitRecordSep = "\x1e"
)

var gitLogFormat = strings.Join([]string{"%H", "%an", "%ae", "%at", "%s"}, gitFieldSep) + gitRecordSep

// Git lists revisions via the git plumbing on PATH.
type Git struct{}

func (g *Git) Name() string { return "git" }

// Revisions walks the commit log newest first. A dirty working tree is
// refused outright: recording an analysis against it would index a state
// that no commit identifies.
func (g *Git) Revisions(path string, max int) ([]*Revision, error) {
	dirty, err := g.dirty(path)
	if err != nil {
		return nil, err
	}
	if dirty {
		return nil, ErrDirtyTree
	}
	args := []string{"-C", path, "log", "--format=" + gitLogFormat}
	if max > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", max))
	}
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("wily: git log: %w", err)
	}
	return parseGitLog(out)
}

func (g *Git) dirty(path string) (bool, error) {
	out, err := exec.Command("git", "-C", path, "status", "--porcelain").Output()
	if err != nil {
		return false, fmt.Errorf("wily: git status: %w", err)
	}
	return len(bytes.TrimSpace(out)) > 0, nil
}

func parseGitLog(out []byte) ([]*Revision, error) {
	var revs []*Revision
	for _, record := range strings.Split(string(out), gitRecordSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		parts := strings.Split(record, gitFieldSep)
		if len(parts) != 5 {
			return nil, fmt.Errorf("wily: malformed git log record %q", record)
		}
		ts, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("wily: bad commit timestamp %q: %w", parts[3], err)
		}
		revs = append(revs, &Revision{
			Key:         parts[0],
			AuthorName:  parts[1],
			AuthorEmail: parts[2],
			Date:        time.Unix(ts, 0).UTC(),
			Message:     parts[4],
		})
	}
	return revs, nil
}
