// Package shell implements the interactive CQL shell: the session state,
// the command dispatcher, tab completion, and batch script execution.
// Anything that is not a shell command is passed to the query engine
// verbatim.
package shell

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"

	"github.com/bawdo/goqlsh/engine"
	"github.com/bawdo/goqlsh/format"
)

// Version is reported by SHOW VERSION.
const Version = "1.0.0"

// Signal tells the shell loop what to do after a command.
type Signal int

const (
	SignalContinue Signal = iota
	SignalStop
)

// ReconnectFunc re-establishes the engine connection with new credentials.
// Used by the LOGIN command; nil when the connection does not support it.
type ReconnectFunc func(username, password string) (engine.QueryEngine, error)

// Session holds the shell state: the engine, execution settings, the output
// format, and the optional capture file. Output goes to out so tests can
// substitute a buffer.
type Session struct {
	eng      engine.QueryEngine
	settings engine.Settings
	fmtCfg   format.Config

	out    io.Writer
	errOut io.Writer

	capture     *os.File
	capturePath string

	reconnect ReconnectFunc
	commands  map[string]commandEntry
	debug     bool
}

// NewSession creates a session with default settings and format.
func NewSession(eng engine.QueryEngine, out, errOut io.Writer) *Session {
	s := &Session{
		eng:      eng,
		settings: engine.DefaultSettings(),
		fmtCfg:   format.DefaultConfig(),
		out:      out,
		errOut:   errOut,
	}
	s.initCommands()
	return s
}

// SetFormat replaces the render configuration.
func (s *Session) SetFormat(cfg format.Config) { s.fmtCfg = cfg }

// Format returns the current render configuration.
func (s *Session) Format() format.Config { return s.fmtCfg }

// Settings returns the current execution settings.
func (s *Session) Settings() engine.Settings { return s.settings }

// SetReconnect installs the LOGIN reconnect hook.
func (s *Session) SetReconnect(fn ReconnectFunc) { s.reconnect = fn }

// SetDebug makes ReportError print full error chains with stack traces.
func (s *Session) SetDebug(on bool) { s.debug = on }

// Prompt returns the prompt string, including the current keyspace when one
// is selected.
func (s *Session) Prompt() string {
	if ks := s.eng.CurrentKeyspace(); ks != "" {
		return "goqlsh:" + ks + "> "
	}
	return "goqlsh> "
}

// IsCommand reports whether line starts with a shell command rather than a
// statement for the engine.
func (s *Session) IsCommand(line string) bool {
	name, _ := splitCommand(line)
	_, ok := s.commands[name]
	return ok
}

// Dispatch runs a shell command line and returns the loop signal.
func (s *Session) Dispatch(line string) (Signal, error) {
	name, args := splitCommand(line)
	entry, ok := s.commands[name]
	if !ok {
		return SignalContinue, errors.Errorf("unknown command: %s (type HELP for commands)", name)
	}
	return entry.run(args)
}

// RunStatement executes a statement against the engine and renders the
// result with a row-count/timing line. When capture is active the output
// goes to the capture file instead of the screen.
func (s *Session) RunStatement(stmt string) error {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return nil
	}
	start := time.Now()
	res, err := s.eng.Execute(stmt, s.settings)
	if err != nil {
		return err
	}

	target := s.out
	if s.capture != nil {
		target = s.capture
	}
	text := format.Render(res.Columns, res.Rows, s.fmtCfg)
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, _ = fmt.Fprint(target, text)
	_, _ = fmt.Fprintf(target, "\n(%d rows in %.3f sec)\n", len(res.Rows), time.Since(start).Seconds())
	return nil
}

// ReportError prints an error the way the shell shows all failures.
func (s *Session) ReportError(err error) {
	if s.debug {
		_, _ = fmt.Fprintf(s.errOut, "ERROR: %+v\n", err)
		return
	}
	_, _ = fmt.Fprintf(s.errOut, "ERROR: %v\n", err)
}

// Close releases the capture file and the engine connection.
func (s *Session) Close() error {
	if s.capture != nil {
		_ = s.capture.Close()
		s.capture = nil
		s.capturePath = ""
	}
	return s.eng.Close()
}

// splitCommand canonicalises a command line: one trailing semicolon is
// stripped, the first whitespace-delimited token is uppercased, the rest is
// returned as the argument string.
func splitCommand(line string) (name, args string) {
	line = strings.TrimSpace(line)
	line = strings.TrimSuffix(line, ";")
	line = strings.TrimSpace(line)
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return strings.ToUpper(line), ""
	}
	return strings.ToUpper(line[:i]), strings.TrimSpace(line[i+1:])
}

// firstWord splits off the first whitespace-delimited word of s.
func firstWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}
