package e2e

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	stdout, stderr, err := runLingua(t, binaryPath, home, nil, "routes")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "llama3.1:8b")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		_, _ = fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Bonjour"},"done":true}`)
	}))
	defer server.Close()

	stdout, stderr, err = runLingua(t, binaryPath, home,
		[]string{"OLLAMA_BASE_URL=" + server.URL},
		"chat", "--plain", "-m", "llama3.1:8b", "hello")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Bonjour")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "lingua-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/lingua")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build lingua binary: %s", string(output))
	return binaryPath
}

func runLingua(t *testing.T, binaryPath, home string, extraEnv []string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)
	cmd.Env = append(cmd.Env, extraEnv...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
