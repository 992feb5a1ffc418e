package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/bookkeeper/ledger"
)

const accountsYAML = `
accounts:
  - {id: 1, name: Cash, type: debit, description: Petty cash}
  - {id: 2, name: Revenue, type: CREDIT}
`

const transactionsYAML = `
transactions:
  - id: 1
    timestamp: 2024-01-01T00:00:00Z
    entries:
      - {account: 1, value: 1000}
      - {account: 2, value: 1000}
  - id: 2
    timestamp: 2024-02-01T00:00:00Z
    entries:
      - {account: 1, value: 500}
      - {account: 2, value: 500}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadSingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	mainFile := filepath.Join(tmpDir, "journal.yaml")
	writeFile(t, mainFile, accountsYAML+transactionsYAML)

	absMainFile, err := filepath.Abs(mainFile)
	assert.NoError(t, err)

	for _, ldr := range []*Loader{New(), New(WithFollowIncludes())} {
		result, err := ldr.Load(context.Background(), mainFile)
		assert.NoError(t, err)
		assert.Equal(t, absMainFile, result.Root)
		assert.Equal(t, 0, len(result.Includes))

		journal := result.Journal
		assert.Equal(t, []ledger.Account{
			{ID: 1, Name: "Cash", Type: ledger.AccountTypeDebit, Description: "Petty cash"},
			{ID: 2, Name: "Revenue", Type: ledger.AccountTypeCredit},
		}, journal.Accounts)

		assert.Equal(t, 2, len(journal.Transactions))
		txn := journal.Transactions[0]
		assert.Equal(t, int64(1), txn.ID)
		assert.True(t, txn.Timestamp.Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
		assert.Equal(t, []ledger.Entry{{AccountID: 1, Value: 1000}, {AccountID: 2, Value: 1000}}, txn.Entries)
	}
}

func TestLoadWithInclude_NoFollow(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "accounts.yaml"), accountsYAML)
	mainFile := filepath.Join(tmpDir, "main.yaml")
	writeFile(t, mainFile, "include:\n  - accounts.yaml\n"+transactionsYAML)

	result, err := New().Load(context.Background(), mainFile)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(result.Journal.Accounts))
	assert.Equal(t, 2, len(result.Journal.Transactions))
	assert.Equal(t, 0, len(result.Includes))
}

func TestLoadWithInclude_WithFollow(t *testing.T) {
	tmpDir := t.TempDir()
	accountsFile := filepath.Join(tmpDir, "accounts.yaml")
	writeFile(t, accountsFile, accountsYAML)
	mainFile := filepath.Join(tmpDir, "main.yaml")
	writeFile(t, mainFile, "include:\n  - accounts.yaml\n"+transactionsYAML)

	result, err := New(WithFollowIncludes()).Load(context.Background(), mainFile)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(result.Journal.Accounts))
	assert.Equal(t, 2, len(result.Journal.Transactions))
	assert.Equal(t, []string{accountsFile}, result.Includes)
	assert.Equal(t, []string{mainFile, accountsFile}, result.Files())
}

func TestLoadNestedIncludesOrder(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "nested", "b.yaml"), `
accounts:
  - {id: 2, name: B, type: credit}
`)
	writeFile(t, filepath.Join(tmpDir, "nested", "a.yaml"), `
include: [b.yaml]
accounts:
  - {id: 1, name: A, type: debit}
`)
	mainFile := filepath.Join(tmpDir, "main.yaml")
	writeFile(t, mainFile, `
include: [nested/a.yaml]
accounts:
  - {id: 3, name: Main, type: debit}
`)

	result, err := New(WithFollowIncludes()).Load(context.Background(), mainFile)
	assert.NoError(t, err)

	names := make([]string, len(result.Journal.Accounts))
	for i, acc := range result.Journal.Accounts {
		names[i] = acc.Name
	}
	assert.Equal(t, []string{"B", "A", "Main"}, names)
	assert.Equal(t, 2, len(result.Includes))
}

func TestLoadCircularInclude(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.yaml"), "include: [b.yaml]\naccounts:\n  - {id: 1, name: A, type: debit}\n")
	writeFile(t, filepath.Join(tmpDir, "b.yaml"), "include: [a.yaml]\naccounts:\n  - {id: 2, name: B, type: credit}\n")

	result, err := New(WithFollowIncludes()).Load(context.Background(), filepath.Join(tmpDir, "a.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(result.Journal.Accounts))
	assert.Equal(t, 1, len(result.Includes))
}

func TestLoadSameFileTwice(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "accounts.yaml"), accountsYAML)
	mainFile := filepath.Join(tmpDir, "main.yaml")
	writeFile(t, mainFile, "include:\n  - accounts.yaml\n  - ./accounts.yaml\n")

	result, err := New(WithFollowIncludes()).Load(context.Background(), mainFile)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(result.Journal.Accounts))
	assert.Equal(t, 1, len(result.Includes))
}

func TestLoadMissingInclude(t *testing.T) {
	tmpDir := t.TempDir()
	mainFile := filepath.Join(tmpDir, "main.yaml")
	writeFile(t, mainFile, "include: [missing.yaml]\n")

	_, err := New(WithFollowIncludes()).Load(context.Background(), mainFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "in file")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := New().Load(context.Background(), "/nonexistent/journal.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestLoadCancelled(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "accounts.yaml"), accountsYAML)
	mainFile := filepath.Join(tmpDir, "main.yaml")
	writeFile(t, mainFile, "include: [accounts.yaml]\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithFollowIncludes()).Load(ctx, mainFile)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoadBytes(t *testing.T) {
	t.Run("Basic", func(t *testing.T) {
		journal, err := New().LoadBytes(context.Background(), "journal.yaml", []byte(accountsYAML+transactionsYAML))
		assert.NoError(t, err)
		assert.Equal(t, 2, len(journal.Accounts))
		assert.Equal(t, 2, len(journal.Transactions))
	})

	t.Run("Empty", func(t *testing.T) {
		journal, err := New().LoadBytes(context.Background(), "empty.yaml", []byte(""))
		assert.NoError(t, err)
		assert.Equal(t, 0, len(journal.Accounts))
		assert.Equal(t, 0, len(journal.Transactions))
	})

	t.Run("IncludesIgnoredWithoutFollow", func(t *testing.T) {
		journal, err := New().LoadBytes(context.Background(), "main.yaml", []byte("include: [accounts.yaml]\n"+accountsYAML))
		assert.NoError(t, err)
		assert.Equal(t, 2, len(journal.Accounts))
	})

	t.Run("IncludesFromStdin", func(t *testing.T) {
		_, err := New(WithFollowIncludes()).LoadBytes(context.Background(), StdinFilename, []byte("include: [accounts.yaml]\n"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "include lists are not supported when reading from stdin")
	})

	t.Run("IncludesFromFile", func(t *testing.T) {
		_, err := New(WithFollowIncludes()).LoadBytes(context.Background(), "/path/to/main.yaml", []byte("include: [accounts.yaml]\n"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "use Load() instead of LoadBytes()")
	})

	t.Run("UnknownField", func(t *testing.T) {
		_, err := New().LoadBytes(context.Background(), "journal.yaml", []byte("acounts: []\n"))
		assert.Error(t, err)
		var parseErr *ParseError
		assert.True(t, errors.As(err, &parseErr))
		assert.Equal(t, "journal.yaml", parseErr.Filename)
	})

	t.Run("InvalidAccountType", func(t *testing.T) {
		_, err := New().LoadBytes(context.Background(), "journal.yaml", []byte("accounts:\n  - {id: 1, name: Cash, type: asset}\n"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid account type")
	})
}

func TestMustLoadBytes(t *testing.T) {
	journal := New().MustLoadBytes(context.Background(), "journal.yaml", []byte(accountsYAML))
	assert.Equal(t, 2, len(journal.Accounts))

	assert.Panics(t, func() {
		New().MustLoadBytes(context.Background(), "journal.yaml", []byte("accounts: {"))
	})
}

func TestMustLoad(t *testing.T) {
	tmpDir := t.TempDir()
	mainFile := filepath.Join(tmpDir, "journal.yaml")
	writeFile(t, mainFile, accountsYAML)

	result := New().MustLoad(context.Background(), mainFile)
	assert.Equal(t, 2, len(result.Journal.Accounts))

	assert.Panics(t, func() {
		New().MustLoad(context.Background(), "/nonexistent/journal.yaml")
	})
}
