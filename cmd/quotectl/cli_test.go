package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/bootstrap"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/mocks"
)

type cliEnv struct {
	t         *testing.T
	configDir string
	dbPath    string
	remote    *mocks.MockRemoteQuoteSource
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	remote := mocks.NewMockRemoteQuoteSource(t)
	remote.EXPECT().PublishQuote(mock.Anything, mock.Anything).Return(nil).Maybe()

	return &cliEnv{
		t:         t,
		configDir: t.TempDir(),
		dbPath:    filepath.Join(t.TempDir(), "quotes.db"),
		remote:    remote,
	}
}

// run executes one quotectl invocation against the env's database.
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()

	var out, errOut bytes.Buffer

	d := &cliDeps{
		out:    &out,
		errOut: &errOut,
		opts:   bootstrap.Options{Remote: e.remote},
	}

	argv := append([]string{"quotectl", "--config-dir", e.configDir, "--db", e.dbPath}, args...)
	err := newCLIApp(d).RunContext(context.Background(), argv)

	assert.False(e.t, d.owned, "components left open")

	return out.String(), err
}

func TestRandom(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("random", "--category", "life")
	require.NoError(t, err)
	assert.Equal(t, `"Life is what happens when you're busy making other plans." — Life`+"\n", out)

	out, err = env.run("random", "-c", "Nope")
	require.NoError(t, err)
	assert.Equal(t, domain.NoQuotesMessage+"\n", out)

	out, err = env.run("random", "-c", "Philosophy", "--json")
	require.NoError(t, err)

	var sel dto.RandomQuoteResponse
	require.NoError(t, json.Unmarshal([]byte(out), &sel))
	assert.True(t, sel.Found)
	require.NotNil(t, sel.Quote)
	assert.Equal(t, "Philosophy", sel.Quote.Category)
}

func TestAdd(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("add", "--text", "Ship it.", "--category", "Work")
	require.NoError(t, err)
	assert.Equal(t, `New quote added: "Ship it." — Work`+"\n", out)

	_, err = env.run("add", "-t", "No category")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[VALIDATION_ERROR]")
	assert.Contains(t, err.Error(), domain.MissingFieldsMessage)

	out, err = env.run("list")
	require.NoError(t, err)

	var quotes []dto.Quote
	require.NoError(t, json.Unmarshal([]byte(out), &quotes))
	require.Len(t, quotes, 4, "the add persisted across invocations")
	assert.Equal(t, "Ship it.", quotes[3].Text)
}

func TestCategoriesAndFilter(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("filter", "Life")
	require.NoError(t, err)
	assert.Equal(t, "filter: Life\n", out)

	out, err = env.run("categories")
	require.NoError(t, err)

	var cats dto.CategoriesResponse
	require.NoError(t, json.Unmarshal([]byte(out), &cats))
	assert.Equal(t, []string{"all", "Motivation", "Life", "Philosophy"}, cats.Options)
	assert.Equal(t, "Life", cats.Selected)

	// The saved filter applies when no category is given.
	out, err = env.run("random")
	require.NoError(t, err)
	assert.Contains(t, out, "— Life")

	_, err = env.run("filter", "Unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[VALIDATION_ERROR]")

	_, err = env.run("filter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[BAD_REQUEST]")
}

func TestExportImport(t *testing.T) {
	env := newCLIEnv(t)
	dir := t.TempDir()

	out, err := env.run("export", "--out", dir)
	require.NoError(t, err)

	var exported dto.ExportFileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	assert.Equal(t, filepath.Join(dir, "quotes.json"), exported.Path)
	assert.Equal(t, 3, exported.Count)

	out, err = env.run("import", exported.Path)
	require.NoError(t, err)

	var imported dto.ImportResponse
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	assert.Equal(t, 3, imported.Imported)
	assert.Equal(t, 6, imported.Total)
}

func TestImport_Errors(t *testing.T) {
	env := newCLIEnv(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"text":"x"}`), 0o600))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no file argument", args: []string{"import"}, want: "[BAD_REQUEST]"},
		{name: "missing file", args: []string{"import", filepath.Join(dir, "absent.json")}, want: "[NOT_FOUND]"},
		{name: "not an array", args: []string{"import", bad}, want: "[FORMAT_ERROR]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSync(t *testing.T) {
	env := newCLIEnv(t)
	env.remote.EXPECT().FetchQuotes(mock.Anything).Return([]domain.Quote{
		{Text: "From remote.", Category: "Remote"},
	}, nil).Once()

	out, err := env.run("sync")
	require.NoError(t, err)

	var resp dto.SyncResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Replaced)
	assert.Equal(t, 3, resp.Previous)
	assert.Equal(t, 1, resp.Current)

	out, err = env.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "From remote.")
}

func TestSync_RemoteFailure(t *testing.T) {
	env := newCLIEnv(t)
	env.remote.EXPECT().FetchQuotes(mock.Anything).
		Return(nil, domain.NewNetworkError("remote-quotes", "fetch", "connection refused")).Once()

	_, err := env.run("sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[UPSTREAM_ERROR]")
}

func TestBadConfig(t *testing.T) {
	env := newCLIEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "base.yaml"), []byte("log:\n  level: loud\n"), 0o600))

	_, err := env.run("list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[CONFIG_ERROR]")
}

func TestHelpSkipsStore(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("--help")
	require.NoError(t, err)
	assert.Contains(t, out, "quotectl")
	assert.Contains(t, out, "random")

	_, statErr := os.Stat(env.dbPath)
	assert.True(t, os.IsNotExist(statErr), "help must not open the database")
}
