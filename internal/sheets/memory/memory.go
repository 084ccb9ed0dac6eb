package memory

import (
	"context"
	"sort"
	"sync"

	"bankgold/internal/core"
	ports "bankgold/internal/sheets"
)

// Store keeps sheets and written tables in memory.
type Store struct {
	mu      sync.Mutex
	sheets  map[ports.Ref]core.Table
	written map[string]core.Table
}

var (
	_ ports.SheetReader = (*Store)(nil)
	_ ports.TableWriter = (*Store)(nil)
)

func New() *Store {
	return &Store{
		sheets:  make(map[ports.Ref]core.Table),
		written: make(map[string]core.Table),
	}
}

// Put registers raw rows under ref; the first row is the header.
func (s *Store) Put(ref ports.Ref, raw [][]string) {
	name := ref.Sheet
	if name == "" {
		name = ref.Source
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[ref] = core.NewTable(name, raw)
}

// ReadSheet returns the table registered under ref.
func (s *Store) ReadSheet(ctx context.Context, ref ports.Ref) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.sheets[ref]
	if !ok {
		if ref.Sheet != "" && s.hasSource(ref.Source) {
			return core.Table{}, &core.MissingInputError{Kind: core.InputSheet, Name: ref.Sheet, Where: ref.Source}
		}
		return core.Table{}, &core.MissingInputError{Kind: core.InputFile, Name: ref.Source}
	}
	return copyTable(t), nil
}

func (s *Store) hasSource(source string) bool {
	for r := range s.sheets {
		if r.Source == source {
			return true
		}
	}
	return false
}

// WriteTable records t under dest.
func (s *Store) WriteTable(ctx context.Context, dest string, t core.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written[dest] = copyTable(t)
	return nil
}

// Written returns the table last written to dest.
func (s *Store) Written(dest string) (core.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.written[dest]
	return t, ok
}

// Destinations lists every destination written so far, sorted.
func (s *Store) Destinations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.written))
	for d := range s.written {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func copyTable(t core.Table) core.Table {
	out := core.Table{Name: t.Name, Header: append([]string(nil), t.Header...)}
	out.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}
