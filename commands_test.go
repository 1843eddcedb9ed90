package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ipblocks/cidr"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cfg := Config{LogLevel: "error"}
	root := newRootCmd(&cfg)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestRangeCmd(t *testing.T) {
	out, err := execute(t, "", "range", "192.168.77.1/16")
	require.NoError(t, err)
	require.Equal(t, "192.168.0.0 192.168.255.255\n", out)

	_, err = execute(t, "", "range", "127.0.0.0/33")
	require.ErrorIs(t, err, cidr.ErrInvalidPrefix)

	_, err = execute(t, "", "range", "127.0.0.0")
	require.ErrorIs(t, err, cidr.ErrMissingPrefix)
}

func TestListCmd(t *testing.T) {
	out, err := execute(t, "", "list", "10.0.0.254/31")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.254\n10.0.0.255\n", out)

	out, err = execute(t, "", "list", "127.0.0.0/24")
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 256)
}

func TestAggregateCmd(t *testing.T) {
	stdin := `# peers
127.0.0.1
127.0.0.2
127.0.0.3

127.0.1.5 # lone
`
	out, err := execute(t, stdin, "aggregate")
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1/32\n127.0.0.2/31\n127.0.1.5\n", out)

	path := filepath.Join(t.TempDir(), "addrs.txt")
	require.NoError(t, os.WriteFile(path, []byte("10.0.0.0\n10.0.0.1\n"), 0644))
	out, err = execute(t, "", "aggregate", path)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.0/31\n", out)

	_, err = execute(t, "# nothing\n", "aggregate", "-")
	require.ErrorIs(t, err, cidr.ErrEmptyInput)

	_, err = execute(t, "1.2.3.4\nnope\n", "aggregate")
	require.ErrorIs(t, err, cidr.ErrInvalidFormat)
}

func TestMergeCmd(t *testing.T) {
	stdin := "10.0.0.0/25\n10.0.0.128-10.0.0.255\n10.0.1.0\n"

	out, err := execute(t, stdin, "merge")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.0/24\n10.0.1.0/32\n", out)

	out, err = execute(t, stdin, "merge", "--ranges")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.0-10.0.1.0\n", out)

	_, err = execute(t, "10.0.0.0/40\n", "merge")
	require.ErrorIs(t, err, cidr.ErrInvalidPrefix)
}
