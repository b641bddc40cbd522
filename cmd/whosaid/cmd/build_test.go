package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/index"
	"github.com/Aman-CERP/whosaid/internal/store"
)

func TestBuildCmd_WritesIndexToStdout(t *testing.T) {
	// Given: a log tree
	isolate(t)
	writeLogs(t)

	// When: building without an outfile
	stdout, stderr, err := run(t, "", "build", "logs")

	// Then: indented JSON with sorted keys and paths goes to stdout
	require.NoError(t, err)
	assert.Equal(t, indented(t, fixtureIndex), stdout)
	assert.Empty(t, stderr)
}

func TestBuildCmd_PipedStdoutIsIndented(t *testing.T) {
	// Given: logs/log1 with two speakers, and a stdout that is not a terminal
	isolate(t)
	require.NoError(t, os.MkdirAll("logs", 0o755))
	require.NoError(t, os.WriteFile("logs/log1",
		[]byte("12:00 <alice> hi\n12:01 <+bob> hello there\n"), 0o644))

	for _, args := range [][]string{{"build", "logs"}, {"build", "-o", "-", "logs"}} {
		// When: building to stdout
		stdout, _, err := run(t, "", args...)

		// Then: the index uses four-space indentation
		require.NoError(t, err)
		assert.Equal(t, `{
    "alice": [
        "logs/log1"
    ],
    "bob": [
        "logs/log1"
    ]
}
`, stdout, args)
	}
}

func TestBuildCmd_OutfileIsCompactUnlessPretty(t *testing.T) {
	isolate(t)
	writeLogs(t)

	_, _, err := run(t, "", "build", "-o", "compact.json", "logs")
	require.NoError(t, err)
	_, _, err = run(t, "", "build", "--pretty", "-o", "pretty.json", "logs")
	require.NoError(t, err)

	compact, err := os.ReadFile("compact.json")
	require.NoError(t, err)
	pretty, err := os.ReadFile("pretty.json")
	require.NoError(t, err)
	assert.Equal(t, fixtureIndex, string(compact))
	assert.Equal(t, indented(t, fixtureIndex), string(pretty))
}

func TestBuildCmd_Aliases(t *testing.T) {
	isolate(t)
	writeLogs(t)

	for _, alias := range []string{"index", "rebuild-db"} {
		stdout, _, err := run(t, "", alias, "logs")
		require.NoError(t, err, alias)
		assert.Equal(t, indented(t, fixtureIndex), stdout, alias)
	}
}

func TestBuildCmd_VerboseListsFilesOnStderr(t *testing.T) {
	isolate(t)
	writeLogs(t)

	stdout, stderr, err := run(t, "", "build", "-v", "logs")

	require.NoError(t, err)
	assert.Equal(t, indented(t, fixtureIndex), stdout)
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	assert.ElementsMatch(t, []string{
		"logs/a.log",
		filepath.Join("logs", "sub", "b.log"),
		filepath.Join("logs", "sub", "c.log"),
	}, lines)
}

func TestBuildCmd_Outfile(t *testing.T) {
	isolate(t)
	writeLogs(t)

	t.Run("json", func(t *testing.T) {
		stdout, _, err := run(t, "", "build", "-o", "nicks.json", "logs")
		require.NoError(t, err)
		assert.Empty(t, stdout)

		data, err := os.ReadFile("nicks.json")
		require.NoError(t, err)
		assert.Equal(t, fixtureIndex, string(data))
	})

	t.Run("sqlite by extension", func(t *testing.T) {
		_, _, err := run(t, "", "build", "-o", "nicks.db", "--workers", "4", "logs")
		require.NoError(t, err)

		src, err := store.OpenSource("nicks.db", "", nil)
		require.NoError(t, err)
		defer func() { _ = src.Close() }()
		counts, err := src.Nicknames(t.Context())
		require.NoError(t, err)
		assert.Len(t, counts, 4)
	})

	t.Run("sqlite to stdout is refused", func(t *testing.T) {
		stdout, _, err := run(t, "", "build", "--format", "sqlite", "logs")
		assert.ErrorIs(t, err, werrors.ErrInvalidInput)
		assert.Empty(t, stdout)
	})
}

func TestBuildCmd_CustomNickPattern(t *testing.T) {
	// Given: logs in a different format and a matching pattern
	isolate(t)
	require.NoError(t, os.MkdirAll("logs", 0o755))
	require.NoError(t, os.WriteFile("logs/w.log", []byte("2024-01-01 12:00:00\terin\thello\n"), 0o644))

	// When: building with the pattern
	stdout, _, err := run(t, "", "build", "--nick-pattern", `\S+ \S+\t([^\t]+)\t`, "logs")

	// Then: the nickname comes from the custom group
	require.NoError(t, err)
	assert.Equal(t, indented(t, `{"erin":["logs/w.log"]}`+"\n"), stdout)
}

func TestBuildCmd_ProjectConfigPattern(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll("logs", 0o755))
	require.NoError(t, os.WriteFile("logs/w.log", []byte("[erin] hello\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".whosaid.yaml"),
		[]byte("index:\n  nick_pattern: '\\[([^\\]]+)\\]'\n"), 0o644))

	stdout, _, err := run(t, "", "build", "logs")

	require.NoError(t, err)
	assert.Equal(t, indented(t, `{"erin":["logs/w.log"]}`+"\n"), stdout)
}

func TestBuildCmd_ZeroWorkersFromConfig(t *testing.T) {
	// Given: a project config asking for one worker per CPU
	dir := isolate(t)
	writeLogs(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".whosaid.yaml"), []byte("index:\n  workers: 0\n"), 0o644))

	// When: building
	_, _, err := run(t, "", "build", "-o", "nicks.json", "logs")

	// Then: the config is accepted and the index is complete
	require.NoError(t, err)
	data, err := os.ReadFile("nicks.json")
	require.NoError(t, err)
	assert.Equal(t, fixtureIndex, string(data))
}

func TestBuildCmd_Failures(t *testing.T) {
	isolate(t)
	writeLogs(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing directory", []string{"build", "nope"}, werrors.ErrFileAccess},
		{"file instead of directory", []string{"build", "logs/a.log"}, werrors.ErrFileAccess},
		{"pattern without group", []string{"build", "--nick-pattern", "<[^>]+>", "logs"}, werrors.ErrInvalidPattern},
		{"unknown format", []string{"build", "--format", "xml", "logs"}, werrors.ErrInvalidInput},
		{"negative workers", []string{"build", "--workers", "-1", "logs"}, werrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := run(t, "", tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, stdout, "nothing is printed on failure")
		})
	}

	_, _, err := run(t, "", "build")
	assert.Error(t, err, "LOGDIR is required")
}

func TestBuildCmd_UnreadableFileWritesNothing(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read everything")
	}
	isolate(t)
	writeLogs(t)
	require.NoError(t, os.Chmod("logs/sub/c.log", 0))
	t.Cleanup(func() { _ = os.Chmod("logs/sub/c.log", 0o644) })

	stdout, _, err := run(t, "", "build", "-o", "nicks.json", "logs")

	assert.ErrorIs(t, err, werrors.ErrFileAccess)
	assert.Empty(t, stdout)
	assert.NoFileExists(t, "nicks.json")
}

func TestBuildCmd_MatchesLibraryCrawl(t *testing.T) {
	isolate(t)
	writeLogs(t)

	stdout, _, err := run(t, "", "build", "logs")
	require.NoError(t, err)

	got, err := index.Decode(strings.NewReader(stdout))
	require.NoError(t, err)
	want, err := index.NewCrawler().Crawl(t.Context(), "logs")
	require.NoError(t, err)
	assert.True(t, index.Equal(want, got))
}
