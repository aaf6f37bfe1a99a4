package oeisstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"loda/internal/number"
	"loda/internal/settings"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProgramPathShardsByThousands(t *testing.T) {
	s := NewDirStore("/tmp/loda-progs", settings.Default())
	assert.Equal(t, filepath.Join("/tmp/loda-progs", "oeis", "000", "A000045.asm"), s.ProgramPath(45))
	assert.Equal(t, filepath.Join("/tmp/loda-progs", "oeis", "001", "A001175.asm"), s.ProgramPath(1175))
}

func TestProgramForParsesAndCaches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "oeis", "000", "A000045.asm"), "mov $1,$0\n")

	s := NewDirStore(dir, settings.Default())
	p, ok := s.ProgramFor(45)
	require.True(t, ok)
	require.Len(t, p.Ops, 1)

	// second call should hit the cache, not the filesystem
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "oeis")))
	p2, ok := s.ProgramFor(45)
	require.True(t, ok)
	assert.Same(t, p, p2)
}

func TestProgramForMissingFileReportsFalse(t *testing.T) {
	s := NewDirStore(t.TempDir(), settings.Default())
	_, ok := s.ProgramFor(999999)
	assert.False(t, ok)
}

func TestNameReturnsIdString(t *testing.T) {
	s := NewDirStore(t.TempDir(), settings.Default())
	assert.Equal(t, "A000045", s.Name(45))
}

func TestExpectedTermsParsesBFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b", "b000045.txt"), "# comment\n0 0\n1 1\n2 1\n3 2\n")

	s := NewDirStore(dir, settings.Default())
	terms, ok := s.ExpectedTerms(45)
	require.True(t, ok)
	require.Len(t, terms, 4)
	assert.True(t, number.Equal(terms[3], number.FromInt64(2)))
}

func TestExpectedTermsMissingReportsFalse(t *testing.T) {
	s := NewDirStore(t.TempDir(), settings.Default())
	_, ok := s.ExpectedTerms(45)
	assert.False(t, ok)
}

func TestResolveSeqEvaluatesReferencedProgram(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "oeis", "000", "A000045.asm"), "mul $0,$0\nmov $1,$0\n")

	s := NewDirStore(dir, settings.Default())
	got, err := s.ResolveSeq(45, number.FromInt64(6))
	require.NoError(t, err)
	assert.True(t, number.Equal(got, number.FromInt64(36)))
}

func TestResolveSeqMissingProgramReportsUnsupportedOperand(t *testing.T) {
	s := NewDirStore(t.TempDir(), settings.Default())
	_, err := s.ResolveSeq(123, number.FromInt64(1))
	assert.Error(t, err)
}
