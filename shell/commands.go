package shell

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/bawdo/goqlsh/describe"
	"github.com/bawdo/goqlsh/engine"
	"github.com/bawdo/goqlsh/format"
)

// commandEntry maps a command keyword to its handler.
type commandEntry struct {
	display string // name shown in completion and HELP
	run     func(args string) (Signal, error)
	hidden  bool // aliases excluded from commandNames()
}

// consistencyLevels are the levels CONSISTENCY accepts.
var consistencyLevels = map[string]bool{
	"ANY": true, "ONE": true, "TWO": true, "THREE": true,
	"QUORUM": true, "ALL": true,
	"LOCAL_QUORUM": true, "EACH_QUORUM": true, "LOCAL_ONE": true,
}

// serialConsistencyLevels are the levels SERIAL CONSISTENCY accepts.
var serialConsistencyLevels = map[string]bool{
	"SERIAL": true, "LOCAL_SERIAL": true,
}

// initCommands builds the registry keyed by uppercased first token. The map
// is built once at startup and read-only afterwards.
func (s *Session) initCommands() {
	quiet := func(fn func(args string) error) func(string) (Signal, error) {
		return func(args string) (Signal, error) {
			return SignalContinue, fn(args)
		}
	}
	s.commands = map[string]commandEntry{
		"HELP": {display: "HELP", run: quiet(func(_ string) error { s.cmdHelp(); return nil })},
		"EXIT": {display: "EXIT", run: func(_ string) (Signal, error) { return SignalStop, nil }},
		"QUIT": {display: "QUIT", run: func(_ string) (Signal, error) { return SignalStop, nil }, hidden: true},

		"CLEAR": {display: "CLEAR", run: quiet(func(_ string) error { return s.cmdClear() })},
		"CLS":   {display: "CLS", run: quiet(func(_ string) error { return s.cmdClear() }), hidden: true},

		"USE":      {display: "USE", run: quiet(s.cmdUse)},
		"DESCRIBE": {display: "DESCRIBE", run: quiet(s.cmdDescribe)},
		"DESC":     {display: "DESC", run: quiet(s.cmdDescribe), hidden: true},

		"EXPAND": {display: "EXPAND", run: quiet(s.cmdExpand)},
		"OUTPUT": {display: "OUTPUT", run: quiet(s.cmdOutput)},

		"TRACING":     {display: "TRACING", run: quiet(s.cmdTracing)},
		"PAGING":      {display: "PAGING", run: quiet(s.cmdPaging)},
		"CONSISTENCY": {display: "CONSISTENCY", run: quiet(s.cmdConsistency)},
		"SERIAL":      {display: "SERIAL CONSISTENCY", run: quiet(s.cmdSerialConsistency)},

		"SHOW":    {display: "SHOW", run: quiet(s.cmdShow)},
		"SOURCE":  {display: "SOURCE", run: quiet(s.cmdSource)},
		"CAPTURE": {display: "CAPTURE", run: quiet(s.cmdCapture)},
		"LOGIN":   {display: "LOGIN", run: quiet(s.cmdLogin)},
		"COPY":    {display: "COPY", run: quiet(s.cmdCopy)},
	}
}

// commandNames returns the visible command names for completion and HELP.
func (s *Session) commandNames() []string {
	var names []string
	for _, entry := range s.commands {
		if !entry.hidden {
			names = append(names, entry.display)
		}
	}
	sort.Strings(names)
	return names
}

func (s *Session) cmdClear() error {
	_, _ = fmt.Fprint(s.out, "\033[2J\033[H")
	return nil
}

func (s *Session) cmdUse(args string) error {
	name := strings.Trim(strings.TrimSpace(args), `"`)
	if name == "" {
		return errors.New("usage: USE <keyspace>")
	}
	return s.eng.UseKeyspace(name)
}

func (s *Session) cmdDescribe(args string) error {
	word, rest := firstWord(args)
	switch strings.ToUpper(word) {
	case "":
		return errors.New("usage: DESCRIBE KEYSPACES | KEYSPACE [name] | TABLES | TABLE <name> | SCHEMA | <name>")

	case "KEYSPACES":
		names, err := s.eng.Keyspaces()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(s.out, strings.Join(names, "  "))
		return nil

	case "TABLES":
		ks := s.eng.CurrentKeyspace()
		if ks == "" {
			return engine.ErrNoKeyspace()
		}
		names, err := s.eng.Tables(ks)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(s.out, strings.Join(names, "  "))
		return nil

	case "KEYSPACE":
		name := rest
		if name == "" {
			name = s.eng.CurrentKeyspace()
		}
		if name == "" {
			return engine.ErrNoKeyspace()
		}
		return s.describeKeyspace(name)

	case "TABLE":
		if rest == "" {
			return errors.New("usage: DESCRIBE TABLE <name>")
		}
		return s.describeTable(rest)

	case "SCHEMA":
		names, err := s.eng.Keyspaces()
		if err != nil {
			return err
		}
		for _, name := range names {
			if err := s.describeKeyspace(name); err != nil {
				return err
			}
		}
		return nil

	default:
		// Bare name: a table in the current keyspace, or a keyspace.
		name := strings.TrimSpace(args)
		tblErr := s.describeTable(name)
		if tblErr == nil {
			return nil
		}
		if err := s.describeKeyspace(name); err == nil {
			return nil
		}
		return tblErr
	}
}

func (s *Session) describeKeyspace(name string) error {
	ks, err := s.eng.KeyspaceMetadata(name)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(s.out, describe.Keyspace(ks))
	for _, table := range ks.Tables {
		_, _ = fmt.Fprintln(s.out)
		if err := s.describeTable(name + "." + table); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) describeTable(spec string) error {
	ts, err := s.eng.TableMetadata(spec)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(s.out, describe.Table(ts))
	return nil
}

func (s *Session) cmdExpand(args string) error {
	switch strings.ToUpper(strings.TrimSpace(args)) {
	case "":
		if s.fmtCfg.Mode == format.Expanded {
			_, _ = fmt.Fprintln(s.out, "Expanded output is currently enabled. Use EXPAND OFF to disable.")
		} else {
			_, _ = fmt.Fprintln(s.out, "Expanded output is currently disabled. Use EXPAND ON to enable.")
		}
	case "ON":
		s.fmtCfg.Mode = format.Expanded
		_, _ = fmt.Fprintln(s.out, "Now printing expanded output")
	case "OFF":
		s.fmtCfg.Mode = format.Tabular
		_, _ = fmt.Fprintln(s.out, "Disabled expanded output")
	default:
		return errors.New("usage: EXPAND [ON|OFF]")
	}
	return nil
}

func (s *Session) cmdOutput(args string) error {
	if strings.TrimSpace(args) == "" {
		_, _ = fmt.Fprintf(s.out, "Current output format is %s.\n", s.fmtCfg.Mode)
		return nil
	}
	mode, err := format.ParseMode(args)
	if err != nil {
		return err
	}
	s.fmtCfg.Mode = mode
	_, _ = fmt.Fprintf(s.out, "Output format set to %s.\n", mode)
	return nil
}

func (s *Session) cmdTracing(args string) error {
	switch strings.ToUpper(strings.TrimSpace(args)) {
	case "":
		_, _ = fmt.Fprintf(s.out, "Tracing is currently %s.\n", onOff(s.settings.Tracing))
	case "ON":
		s.settings.Tracing = true
		_, _ = fmt.Fprintln(s.out, "Now Tracing is enabled")
	case "OFF":
		s.settings.Tracing = false
		_, _ = fmt.Fprintln(s.out, "Disabled Tracing")
	default:
		return errors.New("usage: TRACING [ON|OFF]")
	}
	return nil
}

func (s *Session) cmdPaging(args string) error {
	arg := strings.TrimSpace(args)
	switch strings.ToUpper(arg) {
	case "":
		if s.settings.PagingEnabled {
			_, _ = fmt.Fprintf(s.out, "Query paging is currently enabled. Page size: %d\n", s.settings.PageSize)
		} else {
			_, _ = fmt.Fprintln(s.out, "Query paging is currently disabled.")
		}
		return nil
	case "ON":
		s.settings.PagingEnabled = true
		_, _ = fmt.Fprintf(s.out, "Now Query paging is enabled. Page size: %d\n", s.settings.PageSize)
		return nil
	case "OFF":
		s.settings.PagingEnabled = false
		_, _ = fmt.Fprintln(s.out, "Disabled Query paging.")
		return nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return errors.Errorf("paging requires ON, OFF, or a positive page size, got %q", arg)
	}
	s.settings.PagingEnabled = true
	s.settings.PageSize = n
	_, _ = fmt.Fprintf(s.out, "Now Query paging is enabled. Page size: %d\n", n)
	return nil
}

func (s *Session) cmdConsistency(args string) error {
	arg := strings.ToUpper(strings.TrimSpace(args))
	if arg == "" {
		_, _ = fmt.Fprintf(s.out, "Current consistency level is %s.\n", s.settings.Consistency)
		return nil
	}
	if !consistencyLevels[arg] {
		return errors.Errorf("unknown consistency level %q", args)
	}
	s.settings.Consistency = arg
	_, _ = fmt.Fprintf(s.out, "Consistency level set to %s.\n", arg)
	return nil
}

func (s *Session) cmdSerialConsistency(args string) error {
	word, rest := firstWord(args)
	if !strings.EqualFold(word, "CONSISTENCY") {
		return errors.New("usage: SERIAL CONSISTENCY [SERIAL|LOCAL_SERIAL]")
	}
	arg := strings.ToUpper(strings.TrimSpace(rest))
	if arg == "" {
		_, _ = fmt.Fprintf(s.out, "Current serial consistency level is %s.\n", s.settings.SerialConsistency)
		return nil
	}
	if !serialConsistencyLevels[arg] {
		return errors.Errorf("unknown serial consistency level %q", rest)
	}
	s.settings.SerialConsistency = arg
	_, _ = fmt.Fprintf(s.out, "Serial consistency level set to %s.\n", arg)
	return nil
}

// serverDescriber is implemented by engines that can report connection
// details for SHOW HOST and SHOW VERSION.
type serverDescriber interface {
	Host() string
	Port() int
	ClusterName() string
	ReleaseVersion() string
}

func (s *Session) cmdShow(args string) error {
	switch strings.ToUpper(strings.TrimSpace(args)) {
	case "VERSION":
		if d, ok := s.eng.(serverDescriber); ok && d.ReleaseVersion() != "" {
			_, _ = fmt.Fprintf(s.out, "[goqlsh %s | Cassandra %s]\n", Version, d.ReleaseVersion())
		} else {
			_, _ = fmt.Fprintf(s.out, "[goqlsh %s]\n", Version)
		}
	case "HOST":
		d, ok := s.eng.(serverDescriber)
		if !ok {
			return errors.New("host information is not available for this connection")
		}
		_, _ = fmt.Fprintf(s.out, "Connected to %s at %s:%d\n", d.ClusterName(), d.Host(), d.Port())
	case "SESSION":
		_, _ = fmt.Fprintf(s.out, "Keyspace: %s\n", orNone(s.eng.CurrentKeyspace()))
		_, _ = fmt.Fprintf(s.out, "Consistency: %s\n", s.settings.Consistency)
		_, _ = fmt.Fprintf(s.out, "Serial consistency: %s\n", s.settings.SerialConsistency)
		_, _ = fmt.Fprintf(s.out, "Tracing: %s\n", onOff(s.settings.Tracing))
		if s.settings.PagingEnabled {
			_, _ = fmt.Fprintf(s.out, "Paging: on (page size %d)\n", s.settings.PageSize)
		} else {
			_, _ = fmt.Fprintln(s.out, "Paging: off")
		}
		_, _ = fmt.Fprintf(s.out, "Output format: %s\n", s.fmtCfg.Mode)
		if s.capture != nil {
			_, _ = fmt.Fprintf(s.out, "Capturing to: %s\n", s.capturePath)
		}
	default:
		return errors.New("usage: SHOW VERSION | HOST | SESSION")
	}
	return nil
}

func (s *Session) cmdSource(args string) error {
	path := strings.Trim(strings.TrimSpace(args), `'"`)
	if path == "" {
		return errors.New("usage: SOURCE <filename>")
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "cannot open %q", path)
	}
	defer func() { _ = f.Close() }()
	s.RunScript(f)
	return nil
}

func (s *Session) cmdCapture(args string) error {
	arg := strings.Trim(strings.TrimSpace(args), `'"`)
	switch {
	case arg == "":
		if s.capture != nil {
			_, _ = fmt.Fprintf(s.out, "Currently capturing query output to %q.\n", s.capturePath)
		} else {
			_, _ = fmt.Fprintln(s.out, "Capture is currently off.")
		}
		return nil
	case strings.EqualFold(arg, "OFF"):
		if s.capture == nil {
			return errors.New("capture is not active")
		}
		_ = s.capture.Close()
		s.capture = nil
		s.capturePath = ""
		_, _ = fmt.Fprintln(s.out, "Capture is now off.")
		return nil
	default:
		if s.capture != nil {
			return errors.Errorf("already capturing to %q (use CAPTURE OFF first)", s.capturePath)
		}
		f, err := os.OpenFile(arg, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.Wrapf(err, "cannot open %q", arg)
		}
		s.capture = f
		s.capturePath = arg
		_, _ = fmt.Fprintf(s.out, "Now capturing query output to %q.\n", arg)
		return nil
	}
}

func (s *Session) cmdLogin(args string) error {
	fields := strings.Fields(args)
	if len(fields) < 1 || len(fields) > 2 {
		return errors.New("usage: LOGIN <username> [password]")
	}
	if s.reconnect == nil {
		return errors.New("LOGIN is not supported for this connection")
	}
	username := fields[0]
	password := ""
	if len(fields) == 2 {
		password = fields[1]
	}
	eng, err := s.reconnect(username, password)
	if err != nil {
		return err
	}
	_ = s.eng.Close()
	s.eng = eng
	_, _ = fmt.Fprintf(s.out, "Logged in as %s\n", username)
	return nil
}

func (s *Session) cmdCopy(_ string) error {
	return errors.New("COPY is not supported; use SOURCE to run a statement file")
}

func (s *Session) cmdHelp() {
	_, _ = fmt.Fprintln(s.out, `
Shell commands:
  HELP                          Show this help
  EXIT / QUIT                   Leave the shell
  CLEAR                         Clear the screen
  USE <keyspace>                Switch the active keyspace
  DESCRIBE KEYSPACES            List keyspaces
  DESCRIBE KEYSPACE [name]      Show keyspace DDL (current if omitted)
  DESCRIBE TABLES               List tables in the active keyspace
  DESCRIBE TABLE <name>         Show table DDL ([keyspace.]table)
  DESCRIBE SCHEMA               Show DDL for every keyspace
  EXPAND [ON|OFF]               Toggle one-field-per-line output
  OUTPUT [tabular|json|csv]     Set the output format
  TRACING [ON|OFF]              Toggle query tracing
  PAGING [ON|OFF|<size>]        Toggle paging or set the page size
  CONSISTENCY [level]           Show or set the consistency level
  SERIAL CONSISTENCY [level]    Show or set the serial consistency level
  SHOW VERSION|HOST|SESSION     Show connection and session details
  SOURCE <file>                 Run statements from a file
  CAPTURE [file|OFF]            Append query output to a file
  LOGIN <user> [password]       Reconnect with new credentials

Anything else is sent to the server as a statement. Statements may span
multiple lines and end with a semicolon.

Readline:
  Tab             Auto-complete keywords, commands, keyspaces, tables, columns
  Up/Down         Navigate history
  Ctrl+R          Reverse history search
  Ctrl+C          Cancel the current line`)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
