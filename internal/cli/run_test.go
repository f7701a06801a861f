package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jokebox/internal/engine"
)

type runResponse struct {
	Status string    `json:"status"`
	Data   RunResult `json:"data"`
}

// executeRun runs the run command with a fixed session token and stdin.
func executeRun(t *testing.T, format, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: format},
		Sessions:    engine.NewFixedGenerator("run-session"),
	}
	cmd := newRunCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func decodeRun(t *testing.T, out string) RunResult {
	t.Helper()
	var resp runResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func viewIDs(views []RecordView) []string {
	ids := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
	}
	return ids
}

func TestRun_EndToEnd(t *testing.T) {
	out, err := executeRun(t, "json", "add joke1\nadd joke2\nlike k1\nsort\n", "--id-prefix", "k")
	require.NoError(t, err)

	result := decodeRun(t, out)
	assert.Equal(t, "run-session", result.Session)
	assert.Equal(t, []string{"k1", "k2", "1", "2"}, viewIDs(result.Records))
	assert.Equal(t, int64(1), result.Records[0].Score)
	assert.Equal(t, "joke1", result.Records[0].Text)

	assert.Equal(t, int64(2), result.Metrics.Intents["add"])
	assert.Equal(t, int64(1), result.Metrics.Intents["like"])
	assert.Equal(t, int64(1), result.Metrics.Intents["sort"])
	assert.Equal(t, int64(4), result.Metrics.Records)
	assert.Empty(t, result.Skipped)
	assert.Empty(t, result.Steps)
}

func TestRun_TextOutput(t *testing.T) {
	out, err := executeRun(t, "text", "add joke1\nadd joke2\nlike k1\nsort\n", "--id-prefix", "k")
	require.NoError(t, err)

	assert.Contains(t, out, "Session run-session")
	assert.Contains(t, out, "joke1")
	assert.Contains(t, out, "+1")
	assert.Contains(t, out, "4 intents, 0 no-op, 0 rejected, 4 jokes")

	// k1 was liked and sorted to the top.
	assert.Less(t, strings.Index(out, "joke1"), strings.Index(out, "joke2"))
}

func TestRun_NoInputKeepsSeed(t *testing.T) {
	out, err := executeRun(t, "json", "")
	require.NoError(t, err)

	result := decodeRun(t, out)
	assert.Equal(t, []string{"1", "2"}, viewIDs(result.Records))
	assert.Equal(t, int64(2), result.Metrics.Records)
}

func TestRun_CommentsAndSkippedLines(t *testing.T) {
	script := "# warm up\n\nfrobnicate\nlike\nremove 1\nlike nope\n"
	out, err := executeRun(t, "json", script)
	require.NoError(t, err)

	result := decodeRun(t, out)
	assert.Equal(t, []string{"2"}, viewIDs(result.Records))
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, `line 3: unknown intent "frobnicate"`, result.Skipped[0])
	assert.Equal(t, "line 4: like requires a record id", result.Skipped[1])

	assert.Equal(t, int64(1), result.Metrics.Intents["remove"])
	assert.Equal(t, int64(1), result.Metrics.Noops["like"])
}

func TestRun_ShowStepsText(t *testing.T) {
	out, err := executeRun(t, "text", "add joke1\nlike nope\n", "--id-prefix", "k", "--show-steps")
	require.NoError(t, err)

	assert.Contains(t, out, "[1] add joke1 -> k1")
	assert.Contains(t, out, "[2] like nope (no such joke)")
}

func TestRun_ShowStepsJSON(t *testing.T) {
	out, err := executeRun(t, "json", "add joke1\nremove 2\n", "--id-prefix", "k", "--show-steps")
	require.NoError(t, err)

	result := decodeRun(t, out)
	require.Len(t, result.Steps, 2)

	assert.Equal(t, int64(1), result.Steps[0].Seq)
	assert.Equal(t, "k1", result.Steps[0].AssignedID)
	assert.Equal(t, []string{"k1", "1", "2"}, viewIDs(result.Steps[0].Records))

	assert.Equal(t, "remove 2", result.Steps[1].Intent)
	assert.True(t, result.Steps[1].Applied)
	assert.Equal(t, []string{"k1", "1"}, viewIDs(result.Steps[1].Records))
}

func TestRun_ScriptFile(t *testing.T) {
	script := filepath.Join(t.TempDir(), "session.txt")
	require.NoError(t, os.WriteFile(script, []byte("dislike 2\nsort\n"), 0o644))

	out, err := executeRun(t, "json", "ignored stdin", "--script", script)
	require.NoError(t, err)

	result := decodeRun(t, out)
	assert.Equal(t, []string{"1", "2"}, viewIDs(result.Records))
	assert.Equal(t, int64(-1), result.Records[1].Score)
	assert.Empty(t, result.Skipped, "stdin is not read when --script is set")
}

func TestRun_MissingScript(t *testing.T) {
	_, err := executeRun(t, "text", "", "--script", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to open script")
}

func TestRun_SeedCatalog(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "jokes.cue")
	require.NoError(t, os.WriteFile(seed, []byte(`jokes: [
	{id: "a", text: "alpha", score: 2},
	{id: "b", text: "bravo"},
]
`), 0o644))

	out, err := executeRun(t, "json", "like b\nlike b\nlike b\nsort\n", "--seed", seed)
	require.NoError(t, err)

	result := decodeRun(t, out)
	assert.Equal(t, []string{"b", "a"}, viewIDs(result.Records))
	assert.Equal(t, int64(3), result.Records[0].Score)
	assert.Equal(t, int64(2), result.Records[1].Score)
}

func TestRun_SeedSharesIDPrefix(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "jokes.cue")
	require.NoError(t, os.WriteFile(seed, []byte(`jokes: [{id: "k1", text: "seeded"}]`), 0o644))

	out, err := executeRun(t, "json", "add fresh\nlike k1\n", "--seed", seed, "--id-prefix", "k")
	require.NoError(t, err)

	result := decodeRun(t, out)
	assert.Equal(t, []string{"k2", "k1"}, viewIDs(result.Records))
	assert.Equal(t, int64(0), result.Records[0].Score)
	assert.Equal(t, int64(1), result.Records[1].Score)
}

func TestRun_InvalidSeed(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "dup.cue")
	require.NoError(t, os.WriteFile(seed, []byte(`jokes: [{id: "a", text: "x"}, {id: "a", text: "y"}]`), 0o644))

	_, err := executeRun(t, "text", "", "--seed", seed)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "duplicate id")
}

func TestRun_UUIDIdsByDefault(t *testing.T) {
	out, err := executeRun(t, "json", "add fresh\n")
	require.NoError(t, err)

	result := decodeRun(t, out)
	require.Len(t, result.Records, 3)
	assert.Equal(t, "fresh", result.Records[0].Text)

	parsed, err := uuid.Parse(result.Records[0].ID)
	require.NoError(t, err, "generated id should be a UUID")
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestRun_RejectsArgs(t *testing.T) {
	_, err := executeRun(t, "text", "", "extra")
	require.Error(t, err)
}
