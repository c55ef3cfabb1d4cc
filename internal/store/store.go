// Package store reads the dated report files the pipeline materializes.
package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/alisaleks/Agenda-App/pkg/engine"
	"github.com/alisaleks/Agenda-App/pkg/parser"
	"github.com/alisaleks/Agenda-App/pkg/report"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// Kind names one of the report files.
type Kind string

const (
	KindLedger    Kind = "ledger"
	KindEmployees Kind = "employees"
	KindHCM       Kind = "hcm"
	KindClock     Kind = "clock"
)

var prefixes = map[Kind]string{
	KindLedger:    report.PrefixLedger,
	KindEmployees: report.PrefixEmployees,
	KindHCM:       report.PrefixHCM,
	KindClock:     report.PrefixClock,
}

// File is a loaded report with the date it was resolved to.
type File struct {
	Kind     Kind
	Resolved report.Resolved
	Table    *parser.Table
}

// Ledger is the decoded shop-day ledger.
type Ledger struct {
	Resolved report.Resolved
	Rows     []engine.LedgerRow
}

// Store resolves and caches report files in Dir. Files never change once
// renamed into place, so entries are keyed by path and modification time.
type Store struct {
	Dir    string
	Format report.Format
	// Today defaults to the current date in the local zone.
	Today func() timeutil.Date
	// OnLoad is called after a file is read from disk.
	OnLoad func(kind Kind, stale bool)

	mu    sync.Mutex
	cache map[string]entry
}

type entry struct {
	modTime time.Time
	table   *parser.Table
	ledger  []engine.LedgerRow
}

func (s *Store) today() timeutil.Date {
	if s.Today != nil {
		return s.Today()
	}
	return timeutil.DateOf(time.Now())
}

func (s *Store) ext() string {
	if s.Format == "" {
		return string(report.FormatXLSX)
	}
	return string(s.Format)
}

// Health fails when no ledger file is available on the fallback chain.
func (s *Store) Health(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := report.ResolveDated(s.Dir, report.PrefixLedger, s.ext(), s.today())
	return err
}

// Load returns the newest available file of kind.
func (s *Store) Load(ctx context.Context, kind Kind) (File, error) {
	return s.loadAsOf(ctx, kind, s.today())
}

func (s *Store) loadAsOf(ctx context.Context, kind Kind, day timeutil.Date) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	prefix, ok := prefixes[kind]
	if !ok {
		return File{}, fmt.Errorf("unknown report kind %q", kind)
	}
	res, err := report.ResolveDated(s.Dir, prefix, s.ext(), day)
	if err != nil {
		return File{}, err
	}
	e, err := s.read(kind, res)
	if err != nil {
		return File{}, err
	}
	return File{Kind: kind, Resolved: res, Table: e.table}, nil
}

// Ledger returns the newest decoded ledger.
func (s *Store) Ledger(ctx context.Context) (Ledger, error) {
	return s.LedgerAsOf(ctx, s.today())
}

// LedgerAsOf returns the ledger the fallback chain resolves to for day.
func (s *Store) LedgerAsOf(ctx context.Context, day timeutil.Date) (Ledger, error) {
	f, err := s.loadAsOf(ctx, KindLedger, day)
	if err != nil {
		return Ledger{}, err
	}
	s.mu.Lock()
	e := s.cache[f.Resolved.Path]
	s.mu.Unlock()
	if e.ledger == nil {
		rows, _, err := report.LedgerFromTable(f.Table)
		if err != nil {
			return Ledger{}, err
		}
		e.ledger = rows
		s.mu.Lock()
		if cur, ok := s.cache[f.Resolved.Path]; ok && cur.modTime.Equal(e.modTime) {
			cur.ledger = rows
			s.cache[f.Resolved.Path] = cur
		}
		s.mu.Unlock()
	}
	return Ledger{Resolved: f.Resolved, Rows: e.ledger}, nil
}

// Manifest reads the run manifest next to the newest ledger.
func (s *Store) Manifest(ctx context.Context) (*engine.Manifest, report.Resolved, error) {
	if err := ctx.Err(); err != nil {
		return nil, report.Resolved{}, err
	}
	res, err := report.ResolveDated(s.Dir, report.PrefixManifest, "json", s.today())
	if err != nil {
		return nil, report.Resolved{}, err
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		return nil, res, fmt.Errorf("read manifest: %w", err)
	}
	m, err := engine.DeserializeManifest(data)
	return m, res, err
}

func (s *Store) read(kind Kind, res report.Resolved) (entry, error) {
	s.mu.Lock()
	e, ok := s.cache[res.Path]
	s.mu.Unlock()
	if ok && e.modTime.Equal(res.ModTime) {
		return e, nil
	}

	t, err := parser.Load(res.Path, parser.Options{})
	if err != nil {
		return entry{}, err
	}
	e = entry{modTime: res.ModTime, table: t}
	s.mu.Lock()
	if s.cache == nil {
		s.cache = make(map[string]entry)
	}
	s.cache[res.Path] = e
	s.mu.Unlock()
	if s.OnLoad != nil {
		s.OnLoad(kind, res.Stale)
	}
	return e, nil
}
