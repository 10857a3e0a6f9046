package commands_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalstore/cmd/signalstore/commands"
	"signalstore/internal/directory"
	"signalstore/internal/domain"
	"signalstore/internal/logger"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := commands.Execute(context.Background(), args, &out)
	return out.String(), err
}

func base(home string) []string {
	return []string{"--home", home, "--identity", "user1", "-p", "pw", "--log-level", "error"}
}

func TestCLI_SetGetKeysRm(t *testing.T) {
	home := t.TempDir()

	_, err := run(t, append(base(home), "set", "a", "42")...)
	require.NoError(t, err)
	_, err = run(t, append(base(home), "set", "session:Ym9i:123", `{"s":1}`)...)
	require.NoError(t, err)

	out, err := run(t, append(base(home), "get", "a")...)
	require.NoError(t, err)
	assert.Equal(t, "42", strings.TrimSpace(out))

	out, err = run(t, append(base(home), "keys")...)
	require.NoError(t, err)
	assert.Equal(t, "a\nsession:Ym9i:123\n", out)

	_, err = run(t, append(base(home), "rm-sessions", "bob")...)
	require.NoError(t, err)
	_, err = run(t, append(base(home), "rm", "a")...)
	require.NoError(t, err)

	out, err = run(t, append(base(home), "keys")...)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, append(base(home), "get", "a")...)
	require.Error(t, err)
}

func TestCLI_Set_RejectsInvalidJSON(t *testing.T) {
	_, err := run(t, append(base(t.TempDir()), "set", "a", "{nope")...)
	require.Error(t, err)
}

func TestCLI_WrongPassword(t *testing.T) {
	home := t.TempDir()
	_, err := run(t, append(base(home), "set", "a", "1")...)
	require.NoError(t, err)

	_, err = run(t, "--home", home, "--identity", "user1", "-p", "nope", "--log-level", "error", "keys")
	require.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestCLI_InitAndFingerprint(t *testing.T) {
	home := t.TempDir()
	dir := directory.NewMemory()
	srv := httptest.NewServer(directory.Handler(dir, directory.ServerOptions{Logger: logger.Discard()}))
	defer srv.Close()

	_, err := run(t, append(base(home), "fingerprint")...)
	require.ErrorIs(t, err, domain.ErrNotInitialized)

	_, err = run(t, append(base(home), "init")...)
	require.Error(t, err, "init needs a directory")

	out, err := run(t, append(base(home), "--directory", srv.URL, "init")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Identity created.")
	assert.Equal(t, 1, dir.Len())

	out, err = run(t, append(base(home), "--directory", srv.URL, "init")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Identity already registered.")

	fp, err := run(t, append(base(home), "fingerprint")...)
	require.NoError(t, err)
	assert.Contains(t, out, strings.TrimSpace(fp))
}
