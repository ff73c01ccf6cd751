// goqlsh is an interactive shell for CQL and SQL databases: a readline REPL
// with tab completion, DESCRIBE-style schema inspection, and scriptable
// batch execution.
//
// Usage:
//
//	goqlsh [flags]                      interactive shell
//	goqlsh -e "SELECT * FROM t;"        run statements and exit
//	goqlsh -f script.cql                run a statement file and exit
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ergochat/readline"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/bawdo/goqlsh/config"
	"github.com/bawdo/goqlsh/engine"
	"github.com/bawdo/goqlsh/format"
	"github.com/bawdo/goqlsh/shell"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "goqlsh",
		Usage:   "Interactive shell for Cassandra and SQL databases",
		Version: shell.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "contact point to connect to", Value: "127.0.0.1", Sources: cli.EnvVars("GOQLSH_HOST")},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "native protocol port", Value: 9042, Sources: cli.EnvVars("GOQLSH_PORT")},
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "authentication username", Sources: cli.EnvVars("GOQLSH_USERNAME")},
			&cli.StringFlag{Name: "password", Usage: "authentication password", Sources: cli.EnvVars("GOQLSH_PASSWORD")},
			&cli.StringFlag{Name: "keyspace", Aliases: []string{"k"}, Usage: "keyspace to use on connect"},
			&cli.StringFlag{Name: "engine", Usage: "backend engine (cassandra, postgres, mysql, sqlite)", Value: "cassandra"},
			&cli.StringFlag{Name: "dsn", Usage: "connection string for SQL engines", Sources: cli.EnvVars("GOQLSH_DSN")},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "run statements from a file and exit"},
			&cli.StringFlag{Name: "execute", Aliases: []string{"e"}, Usage: "run the given statements and exit"},
			&cli.StringFlag{Name: "output-format", Usage: "output format (tabular, json, csv)", Value: "tabular"},
			&cli.BoolFlag{Name: "expand", Usage: "start with expanded output"},
			&cli.IntFlag{Name: "max-width", Usage: "maximum table width in characters", Value: 100},
			&cli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
			&cli.IntFlag{Name: "connect-timeout", Usage: "connect timeout in seconds", Value: 5},
			&cli.IntFlag{Name: "request-timeout", Usage: "request timeout in seconds", Value: 10},
			&cli.StringFlag{Name: "rcfile", Usage: "settings file", Value: config.DefaultPath()},
			&cli.BoolFlag{Name: "debug", Usage: "print error stack traces"},
		},
		Action: run,
	}
}

func run(_ context.Context, cmd *cli.Command) error {
	rc, err := config.Load(cmd.String("rcfile"))
	if err != nil {
		return err
	}

	eng, reconnect, err := connect(cmd, rc)
	if err != nil {
		return err
	}

	sess := shell.NewSession(eng, os.Stdout, os.Stderr)
	sess.SetReconnect(reconnect)
	sess.SetDebug(cmd.Bool("debug"))
	defer func() { _ = sess.Close() }()

	if err := applySettings(sess, cmd, rc); err != nil {
		return err
	}

	if path := cmd.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if !sess.RunScript(f) {
			return errors.New("script finished with errors")
		}
		return nil
	}
	if stmts := cmd.String("execute"); stmts != "" {
		if !sess.RunScript(strings.NewReader(stmts)) {
			return errors.New("execution finished with errors")
		}
		return nil
	}

	return interact(sess, eng)
}

// connect builds the engine named by --engine. Flags override rc-file
// values; rc values fill the gaps.
func connect(cmd *cli.Command, rc *config.RC) (engine.QueryEngine, shell.ReconnectFunc, error) {
	name := strings.ToLower(pickString(cmd, "engine", rc.Engine, "cassandra"))
	switch name {
	case "cassandra":
		cfg := engine.CassandraConfig{
			Host:           pickString(cmd, "host", rc.Host, "127.0.0.1"),
			Port:           pickInt(cmd, "port", rc.Port, 9042),
			Username:       pickString(cmd, "username", rc.Username, ""),
			Password:       pickString(cmd, "password", rc.Password, ""),
			Keyspace:       pickString(cmd, "keyspace", rc.Keyspace, ""),
			ConnectTimeout: time.Duration(pickInt(cmd, "connect-timeout", rc.ConnectTimeout, 5)) * time.Second,
			RequestTimeout: time.Duration(pickInt(cmd, "request-timeout", rc.RequestTimeout, 10)) * time.Second,
		}
		eng, err := engine.ConnectCassandra(cfg)
		if err != nil {
			return nil, nil, err
		}
		eng.TraceOut = os.Stderr
		reconnect := func(username, password string) (engine.QueryEngine, error) {
			next := cfg
			next.Username = username
			next.Password = password
			fresh, err := engine.ConnectCassandra(next)
			if err != nil {
				return nil, err
			}
			fresh.TraceOut = os.Stderr
			return fresh, nil
		}
		return eng, reconnect, nil

	case "postgres", "mysql", "sqlite":
		dsn := pickString(cmd, "dsn", rc.DSN, "")
		if dsn == "" {
			return nil, nil, fmt.Errorf("engine %s requires --dsn", name)
		}
		eng, err := engine.ConnectSQL(name, dsn)
		if err != nil {
			return nil, nil, err
		}
		return eng, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown engine %q (choose: cassandra, postgres, mysql, sqlite)", name)
	}
}

// applySettings seeds the session from flags and the rc file.
func applySettings(sess *shell.Session, cmd *cli.Command, rc *config.RC) error {
	mode, err := format.ParseMode(pickString(cmd, "output-format", rc.OutputFormat, "tabular"))
	if err != nil {
		return err
	}
	if cmd.Bool("expand") || rc.Expand {
		mode = format.Expanded
	}
	color := !cmd.Bool("no-color") && !rc.NoColor && isatty.IsTerminal(os.Stdout.Fd())
	sess.SetFormat(format.Config{
		Mode:     mode,
		MaxWidth: pickInt(cmd, "max-width", rc.MaxWidth, 100),
		Color:    color,
	})

	if rc.Consistency != "" {
		if _, err := sess.Dispatch("CONSISTENCY " + rc.Consistency); err != nil {
			return err
		}
	}
	if rc.PageSize > 0 {
		if _, err := sess.Dispatch(fmt.Sprintf("PAGING %d", rc.PageSize)); err != nil {
			return err
		}
	}
	return nil
}

// interact runs the readline loop: commands dispatch on one line,
// statements accumulate until a semicolon.
func interact(sess *shell.Session, eng engine.QueryEngine) error {
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          sess.Prompt(),
		HistoryFile:     historyPath(),
		HistoryLimit:    500,
		AutoComplete:    shell.NewCompleter(sess),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()

	printBanner(eng)

	var buf strings.Builder
	for {
		if buf.Len() == 0 {
			rl.SetPrompt(sess.Prompt())
		} else {
			rl.SetPrompt("   ... ")
		}

		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			continue
		}
		if errors.Is(err, io.EOF) || err != nil {
			break
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if buf.Len() == 0 && sess.IsCommand(trimmed) {
			sig, err := sess.Dispatch(trimmed)
			if err != nil {
				sess.ReportError(err)
			}
			if sig == shell.SignalStop {
				break
			}
			continue
		}

		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(trimmed)
		if strings.HasSuffix(trimmed, ";") {
			if err := sess.RunStatement(buf.String()); err != nil {
				sess.ReportError(err)
			}
			buf.Reset()
		}
	}
	fmt.Println("\nGoodbye!")
	return nil
}

func printBanner(eng engine.QueryEngine) {
	type describer interface {
		Host() string
		Port() int
		ClusterName() string
		ReleaseVersion() string
	}
	if d, ok := eng.(describer); ok {
		fmt.Printf("Connected to %s at %s:%d\n", d.ClusterName(), d.Host(), d.Port())
		fmt.Printf("[goqlsh %s | Cassandra %s]\n", shell.Version, d.ReleaseVersion())
	} else {
		fmt.Printf("[goqlsh %s]\n", shell.Version)
	}
	fmt.Println("Type HELP for commands, EXIT to quit.")
}

// pickString resolves a string setting: explicit flag, then rc file, then
// the default.
func pickString(cmd *cli.Command, flag, rcVal, def string) string {
	if cmd.IsSet(flag) {
		return cmd.String(flag)
	}
	if rcVal != "" {
		return rcVal
	}
	if v := cmd.String(flag); v != "" {
		return v
	}
	return def
}

func pickInt(cmd *cli.Command, flag string, rcVal, def int) int {
	if cmd.IsSet(flag) {
		return int(cmd.Int(flag))
	}
	if rcVal != 0 {
		return rcVal
	}
	if v := int(cmd.Int(flag)); v != 0 {
		return v
	}
	return def
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".goqlsh_history")
}
