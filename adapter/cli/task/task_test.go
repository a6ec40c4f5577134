package task

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/taskboard/adapter/cli"
	internalApp "github.com/felixgeelhaar/taskboard/internal/app"
	"github.com/felixgeelhaar/taskboard/pkg/config"
)

// setupTestStore starts a file-backed task store and points the CLI at it.
func setupTestStore(t *testing.T) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.AppEnv = "test"
	cfg.StoreURL = filepath.Join(t.TempDir(), "tasks.json")

	container, err := internalApp.NewContainer(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	srv := httptest.NewServer(cli.NewAPIServer(container).Handler())
	t.Cleanup(srv.Close)

	cfg.APIURL = srv.URL
	cli.SetApp(cli.NewApp(cfg, logger))
	t.Cleanup(func() { cli.SetApp(nil) })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	search, status = "", "all"
	description, deadline = "", ""

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(io.Discard)
	Cmd.SetArgs(args)
	err := Cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// add creates a task through the CLI and returns the id it reports.
func add(t *testing.T, args ...string) (int64, string) {
	t.Helper()

	out, err := run(t, append([]string{"add"}, args...)...)
	require.NoError(t, err)

	var id int64
	_, err = fmt.Sscanf(out, "Task created: %d", &id)
	require.NoError(t, err, "unexpected add output: %q", out)
	return id, out
}

func TestTaskCommands_AddAndList(t *testing.T) {
	setupTestStore(t)

	milk, _ := add(t, "Buy milk", "--description", "2 litres")
	bills, out := add(t, "Pay bills", "--deadline", "2024-04-15")
	assert.Greater(t, bills, milk)
	assert.Contains(t, out, "deadline: 2024-04-15")

	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("[ ] %d  Buy milk  (Mark Complete)", milk))
	assert.Contains(t, out, "2 litres")
	assert.Contains(t, out, "deadline: 2024-04-15")
	assert.Contains(t, out, "Progress: 0%")
}

func TestTaskCommands_AddRejectsBlankTitle(t *testing.T) {
	setupTestStore(t)

	_, err := run(t, "add", "   ")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create task")
}

func TestTaskCommands_ToggleAndFilter(t *testing.T) {
	setupTestStore(t)

	add(t, "Buy milk")
	bills, _ := add(t, "Pay bills")
	id := fmt.Sprint(bills)

	out, err := run(t, "toggle", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Task "+id+" is now completed")

	out, err = run(t, "list", "--status", "completed")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] "+id+"  Pay bills  (Mark Pending)")
	assert.NotContains(t, out, "Buy milk")
	assert.Contains(t, out, "Progress: 50%")

	out, err = run(t, "list", "--search", "MILK")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy milk")
	assert.NotContains(t, out, "Pay bills")

	out, err = run(t, "toggle", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Task "+id+" is now pending")
}

func TestTaskCommands_ListRejectsUnknownStatus(t *testing.T) {
	setupTestStore(t)

	_, err := run(t, "list", "--status", "done")

	assert.Error(t, err)
}

func TestTaskCommands_Remove(t *testing.T) {
	setupTestStore(t)

	milk, _ := add(t, "Buy milk")
	id := fmt.Sprint(milk)

	out, err := run(t, "rm", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Task deleted: "+id)

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks found.")
	assert.Contains(t, out, "Progress: 0%")
}

func TestTaskCommands_MissingTask(t *testing.T) {
	setupTestStore(t)

	_, err := run(t, "rm", "42")
	require.Error(t, err)
	assert.Equal(t, "task 42 not found", err.Error())

	_, err = run(t, "toggle", "42")
	require.Error(t, err)
	assert.Equal(t, "task 42 not found", err.Error())

	_, err = run(t, "toggle", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid task ID")
}

func TestTaskCommands_Due(t *testing.T) {
	setupTestStore(t)

	out, err := run(t, "due")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing due today")

	today := time.Now().UTC().Format("2006-01-02")
	add(t, "Pay rent", "--deadline", today)

	out, err = run(t, "due")
	require.NoError(t, err)
	assert.Contains(t, out, "Due today:")
	assert.Contains(t, out, "  - Pay rent")
}
