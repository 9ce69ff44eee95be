package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl  string   `json:"base_url"`
	Email    string   `json:"email"`
	OrderIds []string `json:"order_ids"`
	Timeout  int      `json:"timeout_seconds"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestSplitExt(t *testing.T) {
	table := []struct {
		input  string
		prefix string
		ext    string
	}{
		{input: "ticketwatch.json5", prefix: "ticketwatch", ext: "json5"},
		{input: "a.b.c", prefix: "a.b", ext: "c"},
		{input: "noext", prefix: "noext", ext: ""},
	}

	for _, row := range table {
		prefix, ext := splitExt(row.input)
		require.Equal(t, row.prefix, prefix)
		require.Equal(t, row.ext, ext)
	}
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ticketwatch.json5"), `{
		// comments are allowed
		base_url: "https://example.com",
		email: "someone@example.com",
		timeout_seconds: 30,
	}`)
	writeFile(t, filepath.Join(dir, "ticketwatch.local.json5"), `{
		email: "override@example.com",
		order_ids: ["1", "2"],
	}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "ticketwatch.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseUrl:  "https://example.com",
		Email:    "override@example.com",
		OrderIds: []string{"1", "2"},
		Timeout:  30,
	}, cfg)
}

func TestReadConfigNotFound(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "missing.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	err := os.MkdirAll(nested, 0777)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "ticketwatch.json5"), `{email: "root@example.com"}`)

	cfg, err := ReadRecursively[testConfig](nested, "ticketwatch.json5")
	require.NoError(t, err)
	require.Equal(t, "root@example.com", cfg.Email)

	_, err = ReadRecursively[testConfig](nested, "nothing-here.json5")
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ticketwatch.local.json5"), `{email: "local@example.com"}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "ticketwatch.json5"))
	require.NoError(t, err)
	require.Equal(t, "local@example.com", cfg.Email)
}

func TestReadConfigParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ticketwatch.json5"), `{email: `)

	_, err := ReadConfig[testConfig](filepath.Join(dir, "ticketwatch.json5"))
	require.ErrorContains(t, err, "parse")
	require.False(t, os.IsNotExist(err))
}
