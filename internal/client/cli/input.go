package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"golang.org/x/term"
)

// readPassword reads a line without echo. Tests replace it.
var readPassword = term.ReadPassword

// readLine returns the next line without its line ending. A final line that
// ends at EOF is returned with a nil error; io.EOF is reported only when
// nothing was left to read.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

// GetSimpleText shows prompt followed by a "> " marker on the next line and
// returns the trimmed answer.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n> ", prompt); err != nil {
		return "", err
	}
	line, err := readLine(reader)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a secret from the terminal without echo. The caller owns
// the returned slice and should wipe it.
func GetPassword(w io.Writer, prompt string) ([]byte, error) {
	fmt.Fprintf(w, "%s: ", prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	return pw, err
}

// GetMultiline collects lines until an empty one or end of input. Surrounding
// blank space of the whole message is trimmed.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n(finish with an empty line)\n", prompt); err != nil {
		return "", err
	}

	var b strings.Builder
	for {
		line, err := readLine(reader)
		if line == "" || err != nil {
			break
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return strings.TrimSpace(b.String()), nil
}

// ParseUnlockAt reads an unlock instant typed by the user. Accepted forms:
//
//	2026-07-04 09:00      local time
//	2026-07-04            local midnight
//	2026-07-04T09:00:00Z  RFC 3339
//	+72h, +30m, +10d      relative to now
func ParseUnlockAt(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, common.InvalidArgument("unlock_at", "required")
	}

	if rel, ok := strings.CutPrefix(s, "+"); ok {
		if days, ok := strings.CutSuffix(rel, "d"); ok {
			n, err := strconv.Atoi(days)
			if err != nil || n <= 0 {
				return time.Time{}, common.InvalidArgument("unlock_at", "bad day count")
			}
			return now.AddDate(0, 0, n), nil
		}
		d, err := time.ParseDuration(rel)
		if err != nil || d <= 0 {
			return time.Time{}, common.InvalidArgument("unlock_at", "bad duration")
		}
		return now.Add(d), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{timeLayout, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, common.InvalidArgument("unlock_at", fmt.Sprintf("cannot parse %q", s))
}

// splitList splits a comma or space separated list, dropping empty items.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
}

func yes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}
