package cmd

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offercube/api"
	"offercube/config"
	"offercube/logger"
	"offercube/manager"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

const taskYAML = `name: web
image: nginx
cpu: 1
memory: 256MiB
ports:
  - "8080/tcp"
`

const offersYAML = `offers:
  - id: 3f1c4a9e-0000-4000-8000-000000000001
    agent_id: agent-1
    hostname: small
    resources:
      - name: cpus
        scalar: 0.5
      - name: mem
        size: 1GiB
  - id: 3f1c4a9e-0000-4000-8000-000000000002
    agent_id: agent-2
    hostname: big
    resources:
      - name: cpus
        scalar: 4
      - name: mem
        size: 4GiB
      - name: ports
        ranges: ["31000-31005"]
`

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEvaluateCommand(t *testing.T) {
	taskFile := writeFile(t, "task.yaml", taskYAML)
	offersFile := writeFile(t, "offers.yaml", offersYAML)

	out, err := execute(t, "evaluate", "--task", taskFile, "--offers", offersFile, "--json=false")
	require.NoError(t, err)

	assert.Contains(t, out, "offer 3f1c4a9e-0000-4000-8000-000000000001 (small)")
	assert.Contains(t, out, "FAIL(OfferEvaluator)")
	assert.Contains(t, out, "PASS(OfferEvaluator): all 7 stages passed")
	assert.Contains(t, out, "  -> LAUNCH")
	assert.Contains(t, out, "chosen offer 3f1c4a9e-0000-4000-8000-000000000002 on big")
}

func TestEvaluateCommandJSON(t *testing.T) {
	taskFile := writeFile(t, "task.yaml", taskYAML)
	offersFile := writeFile(t, "offers.yaml", offersYAML)

	out, err := execute(t, "evaluate", "--task", taskFile, "--offers", offersFile, "--json")
	require.NoError(t, err)

	var evals []evaluation
	require.NoError(t, json.Unmarshal([]byte(out), &evals))
	require.Len(t, evals, 2)
	assert.False(t, evals[0].Chosen)
	assert.Equal(t, "FAIL", evals[0].Report.Verdict)
	assert.True(t, evals[1].Chosen)
	assert.Equal(t, "PASS", evals[1].Report.Verdict)
}

func TestEvaluateCommandNoMatch(t *testing.T) {
	taskFile := writeFile(t, "task.yaml", taskYAML)

	out, err := execute(t, "evaluate", "--task", taskFile, "--offers", "", "--json=false")
	require.NoError(t, err)
	assert.Contains(t, out, "no offer matched (0 evaluated)")
}

func TestRunCommand(t *testing.T) {
	m, err := manager.New(config.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(api.New("test", m).Router)
	defer srv.Close()

	taskFile := writeFile(t, "task.yaml", taskYAML)
	server := strings.TrimPrefix(srv.URL, "http://")

	out, err := execute(t, "run", "--server", server, "--filename", taskFile)
	require.NoError(t, err)

	tasks, err := m.GetTasks()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "web", tasks[0].Name)
	assert.Equal(t, tasks[0].ID.String()+"\n", out)

	_, err = execute(t, "run", "--server", server, "--filename", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStopCommand(t *testing.T) {
	m, err := manager.New(config.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(api.New("test", m).Router)
	defer srv.Close()
	server := strings.TrimPrefix(srv.URL, "http://")

	_, err = execute(t, "stop", "--server", server, "0d9f6a52-8b7e-4c1a-9b55-3f2a1e0c7d11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response error (404)")
}
