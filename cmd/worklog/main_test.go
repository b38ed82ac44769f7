package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpggio/worklog/internal/config"
	"github.com/rpggio/worklog/internal/domain/reconcile"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) {
	t.Setenv("WORKLOG_CONFIG_PATH", "")
	t.Setenv("WORKLOG_DB_PATH", filepath.Join(t.TempDir(), "data", "worklog.db"))
	t.Setenv("WORKLOG_LLM_PROVIDER", "none")
	t.Setenv("WORKLOG_EMBEDDING_PROVIDER", "none")
	t.Setenv("WORKLOG_LOG_LEVEL", "error")
}

func TestCLI_APIKeyCreate(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "apikey", "create", "--user", "u1", "--description", "laptop")
	require.NoError(t, err)
	require.NotEmpty(t, strings.TrimSpace(out))
}

func TestCLI_SyncOnEmptyDatabase(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "sync")
	require.NoError(t, err)

	var res reconcile.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, reconcile.Result{}, res)
}

func TestCLI_ModelCommandsNeedProvider(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "classify")
	require.Error(t, err)

	_, err = runCLI(t, "embed")
	require.Error(t, err)
}

func TestCLI_ReportWithoutLogs(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "report", "2026-02-09")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no logs")
}

func TestCLI_DefaultTimezoneResolves(t *testing.T) {
	loc, err := config.Default().Report.Location()
	require.NoError(t, err)
	require.Equal(t, "Asia/Seoul", loc.String())

	setupEnv(t)
	_, err = runCLI(t, "sync")
	require.NoError(t, err)
}
