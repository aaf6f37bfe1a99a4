// Package oeisstore implements the Sequence store collaborator (§6): a
// filesystem-backed resolver from a numeric OEIS id to the on-disk
// program that computes it and, if present, the b-file of independently
// known terms. Catalog ingestion (downloading programs or b-files from
// oeis.org) is out of scope here — DirStore only reads what is already
// on disk, the way the core expects a pre-populated programs directory.
package oeisstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"loda/internal/asm"
	"loda/internal/errs"
	"loda/internal/interp"
	"loda/internal/mem"
	"loda/internal/number"
	"loda/internal/program"
	"loda/internal/settings"
)

// IDString renders id the way the core identifies an OEIS sequence
// everywhere else: a leading "A", zero-padded to six digits.
func IDString(id int64) string {
	return fmt.Sprintf("A%06d", id)
}

// Store resolves an OEIS id to its program and, where available, its
// canonical expected terms. ProgramFor and Name together satisfy
// formulagen.SequenceSource; ResolveSeq satisfies interp.SeqResolver.
type Store interface {
	ProgramFor(id int64) (*program.Program, bool)
	Name(id int64) string
	ExpectedTerms(id int64) ([]number.Number, bool)
	ResolveSeq(id int64, input number.Number) (number.Number, error)
}

// DirStore is a Store backed by a directory tree laid out the way the
// upstream catalog ships programs: sharded into buckets of 1000 ids so
// no single directory holds more than a few thousand entries, with an
// adjacent "b" directory of OEIS b-files for cross-checking terms.
//
//	<root>/oeis/<id/1000 zero-padded to 3 digits>/A<id zero-padded to 6 digits>.asm
//	<root>/b/b<id zero-padded to 6 digits>.txt
type DirStore struct {
	root     string
	settings settings.Settings

	mu           sync.Mutex
	programCache map[int64]*program.Program
	termsCache   map[int64][]number.Number
}

// NewDirStore returns a DirStore rooted at dir, evaluating resolved
// programs under the given settings' cycle and memory ceilings.
func NewDirStore(dir string, s settings.Settings) *DirStore {
	return &DirStore{
		root:         dir,
		settings:     s,
		programCache: make(map[int64]*program.Program),
		termsCache:   make(map[int64][]number.Number),
	}
}

// ProgramPath returns the path DirStore expects id's program at,
// whether or not a program is actually there.
func (s *DirStore) ProgramPath(id int64) string {
	bucket := fmt.Sprintf("%03d", id/1000)
	return filepath.Join(s.root, "oeis", bucket, IDString(id)+".asm")
}

// BFilePath returns the path DirStore expects id's b-file at.
func (s *DirStore) BFilePath(id int64) string {
	return filepath.Join(s.root, "b", fmt.Sprintf("b%06d.txt", id))
}

// Name returns id's canonical identifier. DirStore carries no sequence
// catalog (titles, keywords — that's catalog ingestion, out of scope),
// so this is always the bare id string.
func (s *DirStore) Name(id int64) string {
	return IDString(id)
}

// ProgramFor parses and caches id's program from its conventional path.
// It reports false if no program is on disk or it fails to parse.
func (s *DirStore) ProgramFor(id int64) (*program.Program, bool) {
	s.mu.Lock()
	if p, ok := s.programCache[id]; ok {
		s.mu.Unlock()
		return p, true
	}
	s.mu.Unlock()

	p, err := asm.Parse(s.ProgramPath(id))
	if err != nil {
		return nil, false
	}
	if err := p.CheckWellFormed(); err != nil {
		return nil, false
	}

	s.mu.Lock()
	s.programCache[id] = p
	s.mu.Unlock()
	return p, true
}

// ExpectedTerms parses id's b-file, if one exists: one "<index> <value>"
// pair per line, blank lines and "#"-prefixed comments ignored. Terms
// are returned in index order starting from the first index present;
// gaps are not filled.
func (s *DirStore) ExpectedTerms(id int64) ([]number.Number, bool) {
	s.mu.Lock()
	if terms, ok := s.termsCache[id]; ok {
		s.mu.Unlock()
		return terms, true
	}
	s.mu.Unlock()

	f, err := os.Open(s.BFilePath(id))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var terms []number.Number
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		if _, err := strconv.ParseInt(fields[0], 10, 64); err != nil {
			continue
		}
		n, err := number.Parse(fields[1])
		if err != nil {
			continue
		}
		terms = append(terms, n)
	}
	if err := scanner.Err(); err != nil || len(terms) == 0 {
		return nil, false
	}

	s.mu.Lock()
	s.termsCache[id] = terms
	s.mu.Unlock()
	return terms, true
}

// ResolveSeq implements interp.SeqResolver: it evaluates id's program on
// input and returns its output cell. It builds its own Interpreter
// rather than reusing a caller's, since a `seq` dependency may recurse
// into another `seq` and each level needs its own run of the bound
// settings' cycle budget.
func (s *DirStore) ResolveSeq(id int64, input number.Number) (number.Number, error) {
	p, ok := s.ProgramFor(id)
	if !ok {
		return number.Number{}, &errs.UnsupportedOperand{
			Context: fmt.Sprintf("seq: no program found for %s", IDString(id)),
		}
	}

	ip := interp.New(s.settings).WithSeqResolver(s)
	m := mem.New()
	m.Set(program.InputCell, input)
	if _, err := ip.Run(p, &m); err != nil {
		return number.Number{}, err
	}
	return m.Get(program.OutputCell), nil
}

var _ Store = (*DirStore)(nil)
