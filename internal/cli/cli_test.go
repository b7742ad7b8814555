package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/MJE43/dodepa/internal/autoplay"
	"github.com/MJE43/dodepa/internal/games"
)

// isolate keeps tests away from the real config dir and environment.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	for _, k := range []string{"DODEPA_BACKEND", "DODEPA_DATA_DIR", "DODEPA_SAVE_KEY", "DODEPA_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("DODEPA_SEED", "7")
	return t.TempDir()
}

func execute(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func decode[T any](t *testing.T, raw string) T {
	t.Helper()
	var resp struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &resp), raw)
	return resp.Data
}

func stats(t *testing.T, dataDir string, extra ...string) games.State {
	t.Helper()
	out, err := execute(t, dataDir, append(extra, "--format", "json", "stats")...)
	require.NoError(t, err)
	return decode[games.State](t, out)
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "dodepa", cmd.Use)
	assert.Contains(t, cmd.Long, "casino")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"stats", "logs", "gamble", "work", "shady", "borrow", "credit", "help-friend",
		"repay", "reset", "bet", "play", "autoplay", "export", "import", "history", "runs", "actions", "saves",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

func TestAutoplayCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	autoCmd, _, err := cmd.Find([]string{"autoplay"})
	require.NoError(t, err)

	stepsFlag := autoCmd.Flags().Lookup("steps")
	require.NotNil(t, stepsFlag)
	assert.Equal(t, "100", stepsFlag.DefValue)
	require.NotNil(t, autoCmd.Flags().Lookup("seed"))
}

func TestHistoryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	histCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)

	limitFlag := histCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "20", limitFlag.DefValue)
	assert.Equal(t, "n", limitFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	dir := isolate(t)
	_, err := execute(t, dir, "--format", "xml", "stats")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidConfig(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: redis\n"), 0o600))

	_, err := execute(t, dir, "--config", path, "stats")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestWorkPersistsAcrossInvocations(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, dir, "work")
	require.NoError(t, err)
	assert.Contains(t, out, "[ok] Side job paid")
	assert.Contains(t, out, "Energy:     40")

	st := stats(t, dir)
	assert.Equal(t, 40, st.Energy)
	assert.Equal(t, 11, st.Reputation)
	assert.GreaterOrEqual(t, st.Money, 1253)

	out, err = execute(t, dir, "logs")
	require.NoError(t, err)
	assert.Contains(t, out, " 1. Side job paid")
}

func TestRejectedActionExitCode(t *testing.T) {
	dir := isolate(t)
	out, err := execute(t, dir, "repay")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "[rejected] Debt is already paid off")

	out, err = execute(t, dir, "--format", "json", "repay", "1500")
	require.Error(t, err)
	assert.Contains(t, out, `"status":"rejected"`)
}

func TestRepayRejectsBadAmount(t *testing.T) {
	dir := isolate(t)
	for _, arg := range []string{"abc", "-5", "0"} {
		_, err := execute(t, dir, "repay", arg)
		require.Error(t, err, arg)
		assert.Equal(t, ExitCommandError, GetExitCode(err), arg)
	}
}

func TestPlayCommand(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, dir, "play", "job")
	require.NoError(t, err)
	assert.Contains(t, out, "Side job paid")

	_, err = execute(t, dir, "play", "wrok")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `did you mean "work"`)
}

func TestBetCommand(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, dir, "bet", "10.7")
	require.NoError(t, err)
	assert.Equal(t, "Bet set to 50\n", out)

	_, err = execute(t, dir, "bet", "1234.9")
	require.NoError(t, err)
	assert.Equal(t, 1234, stats(t, dir).Bet)

	_, err = execute(t, dir, "bet", "inf")
	require.NoError(t, err)
	assert.Equal(t, 50, stats(t, dir).Bet)

	_, err = execute(t, dir, "bet", "lots")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestResetCommand(t *testing.T) {
	dir := isolate(t)
	_, err := execute(t, dir, "shady")
	require.NoError(t, err)

	out, err := execute(t, dir, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Progress reset")
	assert.Equal(t, games.DefaultRules().Defaults, stats(t, dir))
}

func TestExportImport(t *testing.T) {
	dir := isolate(t)
	archive := filepath.Join(t.TempDir(), "save.zst")

	_, err := execute(t, dir, "work")
	require.NoError(t, err)
	before := stats(t, dir)

	out, err := execute(t, dir, "export", archive)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported to")

	_, err = execute(t, dir, "reset")
	require.NoError(t, err)
	require.Equal(t, 1000, stats(t, dir).Money)

	_, err = execute(t, dir, "import", archive)
	require.NoError(t, err)
	assert.Equal(t, before, stats(t, dir))

	bad := filepath.Join(t.TempDir(), "bad.zst")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o600))
	_, err = execute(t, dir, "import", bad)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryCommand(t *testing.T) {
	dir := isolate(t)
	_, err := execute(t, dir, "work")
	require.NoError(t, err)
	_, _ = execute(t, dir, "repay")

	out, err := execute(t, dir, "--format", "json", "history")
	require.NoError(t, err)
	data := decode[struct {
		Total   int64 `json:"total"`
		Entries []struct {
			Action   string `json:"action"`
			Accepted bool   `json:"accepted"`
		} `json:"entries"`
	}](t, out)
	assert.EqualValues(t, 2, data.Total)
	require.Len(t, data.Entries, 2)
	assert.Equal(t, games.ActionRepay, data.Entries[0].Action)
	assert.False(t, data.Entries[0].Accepted)

	out, err = execute(t, dir, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 2 of 2 entries")

	_, err = execute(t, dir, "history", "--summary")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistoryRequiresSQLite(t *testing.T) {
	dir := isolate(t)
	_, err := execute(t, dir, "--backend", "memory", "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "sqlite")
}

func TestSavesCommand(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, dir, "saves")
	require.NoError(t, err)
	assert.Equal(t, "No saves yet.\n", out)

	_, err = execute(t, dir, "work")
	require.NoError(t, err)
	t.Setenv("DODEPA_SAVE_KEY", "alt")
	_, err = execute(t, dir, "help-friend")
	require.NoError(t, err)

	out, err = execute(t, dir, "--format", "json", "saves")
	require.NoError(t, err)
	data := decode[struct {
		Active string   `json:"active"`
		Keys   []string `json:"keys"`
	}](t, out)
	assert.Equal(t, "alt", data.Active)
	assert.ElementsMatch(t, []string{"dodepaSave", "alt"}, data.Keys)

	out, err = execute(t, dir, "saves")
	require.NoError(t, err)
	assert.Contains(t, out, "* alt\n")
	assert.Contains(t, out, "  dodepaSave\n")

	_, err = execute(t, dir, "--backend", "memory", "saves")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestKeyringBackend(t *testing.T) {
	keyring.MockInit()
	dir := isolate(t)

	_, err := execute(t, dir, "--backend", "keyring", "help-friend")
	require.NoError(t, err)
	assert.Equal(t, 11, stats(t, dir, "--backend", "keyring").Reputation)
}

func TestAutoplayCommand(t *testing.T) {
	dir := isolate(t)
	script := filepath.Join(t.TempDir(), "grind.js")
	require.NoError(t, os.WriteFile(script, []byte(`
		function next() {
			log("step", step, "energy", energy)
			return "help"
		}
	`), 0o600))

	out, err := execute(t, dir, "--format", "json", "autoplay", script, "--steps", "3")
	require.NoError(t, err)
	rep := decode[autoplay.Report](t, out)
	assert.Equal(t, 3, rep.Steps)
	assert.Equal(t, autoplay.StopMaxSteps, rep.Reason)
	assert.Equal(t, 13, rep.Final.Reputation)
	require.Len(t, rep.Logs, 3)
	assert.Equal(t, "step 2 energy 40", rep.Logs[2].Message)

	assert.Equal(t, 13, stats(t, dir).Reputation, "autoplay progress is saved")

	out, err = execute(t, dir, "--format", "json", "runs")
	require.NoError(t, err)
	runs := decode[struct {
		Total int64 `json:"total"`
		Runs  []struct {
			ID     string `json:"id"`
			Steps  int    `json:"steps"`
			Reason string `json:"reason"`
		} `json:"runs"`
	}](t, out)
	assert.EqualValues(t, 1, runs.Total)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, rep.RunID.String(), runs.Runs[0].ID)
	assert.Equal(t, "max_steps", runs.Runs[0].Reason)

	out, err = execute(t, dir, "runs", runs.Runs[0].ID, "--script")
	require.NoError(t, err)
	assert.Contains(t, out, `return "help"`)
}

func TestAutoplayScriptError(t *testing.T) {
	dir := isolate(t)
	script := filepath.Join(t.TempDir(), "broken.js")
	require.NoError(t, os.WriteFile(script, []byte(`function next() { return "dance" }`), 0o600))

	_, err := execute(t, dir, "autoplay", script)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execute(t, dir, "autoplay", filepath.Join(t.TempDir(), "missing.js"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
