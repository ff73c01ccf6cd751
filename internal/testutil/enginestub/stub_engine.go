// Package enginestub provides a stub engine.QueryEngine for tests.
package enginestub

import (
	"github.com/pkg/errors"

	"github.com/bawdo/goqlsh/engine"
)

// StubEngine implements engine.QueryEngine against fixed in-memory metadata,
// recording every executed statement. The zero value is usable; populate the
// exported fields to control what it serves.
type StubEngine struct {
	KeyspaceNames []string
	TableNames    map[string][]string            // keyspace -> tables
	Schemas       map[string]*engine.TableSchema // "ks.table" -> schema
	KsSchemas     map[string]*engine.KeyspaceSchema
	Keyspace      string

	ExecResult *engine.Result
	ExecErr    error
	Executed   []string
	LastExec   engine.Settings

	FailMetadata bool // all metadata lookups return an error
}

var _ engine.QueryEngine = (*StubEngine)(nil)

func (s *StubEngine) Execute(stmt string, st engine.Settings) (*engine.Result, error) {
	s.Executed = append(s.Executed, stmt)
	s.LastExec = st
	if s.ExecErr != nil {
		return nil, s.ExecErr
	}
	if s.ExecResult != nil {
		return s.ExecResult, nil
	}
	return &engine.Result{}, nil
}

func (s *StubEngine) Keyspaces() ([]string, error) {
	if s.FailMetadata {
		return nil, errors.New("metadata unavailable")
	}
	return s.KeyspaceNames, nil
}

func (s *StubEngine) Tables(keyspace string) ([]string, error) {
	if s.FailMetadata {
		return nil, errors.New("metadata unavailable")
	}
	return s.TableNames[keyspace], nil
}

func (s *StubEngine) TableMetadata(spec string) (*engine.TableSchema, error) {
	if s.FailMetadata {
		return nil, errors.New("metadata unavailable")
	}
	ks, table := engine.SplitTableSpec(spec)
	if ks == "" {
		if s.Keyspace == "" {
			return nil, engine.ErrNoKeyspace()
		}
		ks = s.Keyspace
	}
	if ts, ok := s.Schemas[ks+"."+table]; ok {
		return ts, nil
	}
	return nil, &engine.LookupError{Kind: "table", Name: spec}
}

func (s *StubEngine) KeyspaceMetadata(name string) (*engine.KeyspaceSchema, error) {
	if s.FailMetadata {
		return nil, errors.New("metadata unavailable")
	}
	if ks, ok := s.KsSchemas[name]; ok {
		return ks, nil
	}
	return nil, &engine.LookupError{Kind: "keyspace", Name: name}
}

func (s *StubEngine) CurrentKeyspace() string { return s.Keyspace }

func (s *StubEngine) UseKeyspace(name string) error {
	for _, ks := range s.KeyspaceNames {
		if ks == name {
			s.Keyspace = name
			return nil
		}
	}
	return &engine.LookupError{Kind: "keyspace", Name: name}
}

func (s *StubEngine) Close() error { return nil }
