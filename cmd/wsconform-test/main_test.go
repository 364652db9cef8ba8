package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsconform/wsconform-go/internal/testharness/caseset"
	"github.com/wsconform/wsconform-go/internal/testharness/mock"
	"github.com/wsconform/wsconform-go/internal/testharness/runner"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func startServer(t *testing.T, cases ...*mock.Case) (*mock.Server, string, string) {
	t.Helper()
	srv := mock.NewServer(cases...)
	srv.Start()
	t.Cleanup(srv.Close)
	host, port, err := srv.Addr()
	require.NoError(t, err)
	return srv, host, strconv.Itoa(port)
}

func TestRunAllPass(t *testing.T) {
	srv, host, port := startServer(t, mock.NewCase("1.1.1", "OK"), mock.NewCase("1.1.2", "OK"), mock.NewCase("1.1.3", "OK"))

	stdout, _, err := execute(t, "--nocolor", "--all", "-p", port, host)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, srv.RanCases())
	assert.Contains(t, stdout, "Test range: All")
	assert.Contains(t, stdout, "[SUCCESS] All tests ran OK!")
}

func TestRunFailingVerdictExitsNonZero(t *testing.T) {
	_, host, port := startServer(t, mock.NewCase("1.1.1", "FAILED"))

	_, _, err := execute(t, "--nocolor", "-t", "1", "-p", port, host)

	assert.True(t, errors.Is(err, errRunFailed))
}

func TestRunMetadataConnectFailureContinues(t *testing.T) {
	srv, host, port := startServer(t, mock.NewCase("1.1.1", "OK"), mock.NewCase("1.1.2", "OK"))
	srv.Refuse(mock.EndpointCaseInfo, 1)

	_, stderr, err := execute(t, "--nocolor", "--all", "-p", port, host)

	assert.True(t, errors.Is(err, errRunFailed))
	assert.Equal(t, []int{2}, srv.RanCases(), "run and verdict of case 1 are skipped")
	assert.Contains(t, stderr, "Case 1:")
}

func TestRangeStartZeroFailsBeforeContactingServer(t *testing.T) {
	srv, host, port := startServer(t, mock.NewCase("1.1.1", "OK"))

	_, _, err := execute(t, "--testrange", "0,3", "-p", port, host)

	require.Error(t, err)
	assert.True(t, errors.Is(err, caseset.ErrInvalidStart))
	assert.Empty(t, srv.Requests())
}

func TestNoServer(t *testing.T) {
	_, _, err := execute(t, "--all")
	require.Error(t, err)
	assert.True(t, errors.Is(err, runner.ErrNoServer))
}

func TestBuildConfigMergesRangeAndTests(t *testing.T) {
	var opts options
	cmd := newFlagCmd(&opts)
	require.NoError(t, cmd.ParseFlags([]string{"-t", "5,12", "--testrange", "10,14", "--maxtime", "3"}))

	cfg, err := buildConfig(cmd, []string{"localhost"}, &opts)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.MaxTime)

	merged, err := caseset.Merge(20, cfg.TestRange, cfg.Tests)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{5, 10, 11, 12, 13, 14}, merged); diff != "" {
		t.Errorf("run list mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildConfigFilePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wsconform.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "server": "from-file",
  "port": 9100,
  "agent": "file-agent",
  "nocolor": 1,
  "tests": [3],
  "skiprange": [4, 6]
}`), 0o644))

	var opts options
	cmd := newFlagCmd(&opts)
	require.NoError(t, cmd.ParseFlags([]string{"-c", path, "--agent", "cli-agent", "-t", "1"}))

	cfg, err := buildConfig(cmd, nil, &opts)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Server)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "cli-agent", cfg.Agent)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, []int{1, 3}, cfg.Tests)
	assert.Equal(t, caseset.Range{4, 6}, cfg.SkipRange)

	cfg, err = buildConfig(cmd, []string{"positional"}, &opts)
	require.NoError(t, err)
	assert.Equal(t, "positional", cfg.Server)
}

func TestBuildConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ssl": "maybe"}`), 0o644))

	var opts options
	cmd := newFlagCmd(&opts)
	require.NoError(t, cmd.ParseFlags([]string{"-c", path}))

	_, err := buildConfig(cmd, []string{"localhost"}, &opts)
	require.Error(t, err)
	assert.True(t, runner.IsCategory(err, runner.ErrCatConfig))
}

func TestReportsOnly(t *testing.T) {
	srv, host, port := startServer(t, mock.NewCase("1.1.1", "OK"))

	_, _, err := execute(t, "--nocolor", "-r", "-p", port, host)

	require.NoError(t, err)
	assert.Equal(t, 1, srv.ReportUpdates())
	assert.Empty(t, srv.RanCases())
}

func TestJSONFormat(t *testing.T) {
	_, host, port := startServer(t, mock.NewCase("1.1.1", "OK"))

	stdout, stderr, err := execute(t, "--nocolor", "--format", "json", "-t", "1", "-p", port, host)

	require.NoError(t, err)
	assert.Contains(t, stdout, `"passed": 1`)
	assert.Contains(t, stderr, "All tests ran OK!")
}

// newFlagCmd returns a bare command with the flags bound to opts.
func newFlagCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{}
	bindFlags(cmd, opts)
	return cmd
}
