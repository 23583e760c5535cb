package attribute

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/formulary/internal/variable"
)

func TestNewStatic(t *testing.T) {
	s, err := NewStatic(DefaultConfig())
	require.NoError(t, err)

	ctx := context.Background()
	rule, err := s.RuleTokens(ctx, uuid.New())
	require.NoError(t, err)
	require.True(t, rule.Has("__YEARS_OF_SERVICE__"))

	conditional, err := s.ConditionalTokens(ctx, uuid.New())
	require.NoError(t, err)
	require.True(t, conditional.Has("__MARITAL_STATUS__"))

	// callers get their own copy
	rule.Add("__EXTRA__")
	again, err := s.RuleTokens(ctx, uuid.New())
	require.NoError(t, err)
	require.False(t, again.Has("__EXTRA__"))
}

func TestNewStatic_errors(t *testing.T) {
	_, err := NewStatic(Config{Rule: []string{"Employee Age", "employee-age"}})
	var dupErr *variable.DuplicateTokenError
	require.ErrorAs(t, err, &dupErr)

	_, err = NewStatic(Config{Conditional: []string{"  "}})
	require.ErrorIs(t, err, variable.ErrEmptyLabel)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "attributes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rule:
  - Employee Age
  - Years of Service
conditional:
  - Employment Type
`), 0o600))

	s, err := LoadFile(path)
	require.NoError(t, err)

	rule, err := s.RuleTokens(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, []variable.Token{"__EMPLOYEE_AGE__", "__YEARS_OF_SERVICE__"}, rule.Sorted())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rule: [unterminated"), 0o600))
	_, err = LoadFile(bad)
	require.ErrorContains(t, err, "failed to parse attribute file")
}
