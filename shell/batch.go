package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// RunScript executes statements read from r. Blank lines and comment lines
// are skipped, input accumulates until a line ends with a semicolon, and
// each statement is echoed before it runs. A failing statement is reported
// and the script continues. Returns false if any statement failed.
func (s *Session) RunScript(r io.Reader) bool {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ok := true
	var buf strings.Builder
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "--") || strings.HasPrefix(line, "//") {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(line)
		if strings.HasSuffix(line, ";") {
			if !s.runScriptStatement(buf.String()) {
				ok = false
			}
			buf.Reset()
		}
	}
	if buf.Len() > 0 {
		if !s.runScriptStatement(buf.String()) {
			ok = false
		}
	}
	return ok
}

func (s *Session) runScriptStatement(stmt string) bool {
	_, _ = fmt.Fprintf(s.out, "> %s\n", stmt)
	if s.IsCommand(stmt) {
		if _, err := s.Dispatch(stmt); err != nil {
			s.ReportError(err)
			return false
		}
		return true
	}
	if err := s.RunStatement(stmt); err != nil {
		s.ReportError(err)
		return false
	}
	return true
}
