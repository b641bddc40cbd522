package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate runs the test in a fresh working directory with no user config and
// no WHOSAID_* overrides. It returns the working directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{
		"WHOSAID_NICK_PATTERN", "WHOSAID_WORKERS", "WHOSAID_CACHE_SIZE",
		"WHOSAID_COLOR", "WHOSAID_WATCH_DEBOUNCE", "WHOSAID_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(dir)
	return dir
}

// writeLogs creates the fixture tree under logs/ in the working directory:
//
//	logs/a.log      alice, bob, carol
//	logs/sub/b.log  bob, alice
//	logs/sub/c.log  dave
func writeLogs(t *testing.T) {
	t.Helper()
	files := map[string]string{
		"logs/a.log": "12:00 <alice> hello world\n" +
			"12:01 <bob> hi alice\n" +
			"12:02 <@carol> release is tomorrow\n",
		"logs/sub/b.log": "13:00 <bob> the release slipped\r\n" +
			"13:01 <alice> release notes pending\r\n",
		"logs/sub/c.log": "14:00 <dave> nothing here\n",
	}
	for name, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
	}
}

// fixtureIndex is the compact index of writeLogs, as written to an outfile.
const fixtureIndex = `{"alice":["logs/a.log","logs/sub/b.log"],"bob":["logs/a.log","logs/sub/b.log"],"carol":["logs/a.log"],"dave":["logs/sub/c.log"]}` + "\n"

// indented returns compact JSON in the four-space form build writes to stdout.
func indented(t *testing.T, compact string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.Indent(&buf, []byte(compact), "", "    "))
	return buf.String()
}

// run executes the CLI with args and returns what it wrote.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return runContext(context.Background(), t, stdin, args...)
}

func runContext(ctx context.Context, t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}
