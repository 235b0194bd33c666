package e2e

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

var (
	ftreeBin string
	projRoot string
)

func TestMain(m *testing.M) {
	// Build ftree binary once for all tests
	tmpBinDir, err := os.MkdirTemp("", "ftree-bin")
	if err != nil {
		panic(err)
	}

	ftreeBin = filepath.Join(tmpBinDir, "ftree")

	// Determine project root
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot determine current file path")
	}
	projRoot = filepath.Join(filepath.Dir(thisFile), "..", "..")

	cmd := exec.Command("go", "build", "-o", ftreeBin, "./cmd/ftree")
	cmd.Dir = projRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic(string(out))
	}

	code := m.Run()
	if err := os.RemoveAll(tmpBinDir); err != nil {
		panic(err)
	}
	os.Exit(code)
}

func TestE2ELoadAndPrint(t *testing.T) {
	nodes := []*TestNodeSpec{
		NewTestNode("root/docs/readme.txt").WithTextContent("hello").Build(),
		NewTestNode("root/docs/img").Dir().Build(),
		NewTestNode("root/a.bin").WithBinaryContent(64).Build(),
	}

	run := runFtree(t, writeNodesJSON(t, nodes))
	if run.ExitCode != 0 {
		t.Fatalf("ftree exited %d\nstderr: %s", run.ExitCode, run.Stderr)
	}

	// node, then files, then directories
	expected := "root\n" +
		"root/a.bin\n" +
		"root/docs\n" +
		"root/docs/readme.txt\n" +
		"root/docs/img\n"
	if run.Stdout != expected {
		t.Fatalf("tree mismatch:\nexpected: %q\ngot:      %q", expected, run.Stdout)
	}
}

func TestE2EStat(t *testing.T) {
	nodes := []*TestNodeSpec{
		NewTestNode("root/f1").WithTextContent("12345").Build(),
		NewTestNode("root/sub").Dir().Build(),
	}

	run := runFtree(t, writeNodesJSON(t, nodes), "-s", "root")
	if run.ExitCode != 0 {
		t.Fatalf("ftree exited %d\nstderr: %s", run.ExitCode, run.Stderr)
	}
	if !strings.Contains(run.Stdout, "type=dir") || !strings.Contains(run.Stdout, "children=[f1 sub]") {
		t.Fatalf("unexpected stat output: %q", run.Stdout)
	}

	// root is created first, has one subdirectory and is read-only
	if !strings.Contains(run.Stdout, "attr\tino=1\tmode=040555\tnlink=3\tsize=0\tblocks=0") {
		t.Fatalf("unexpected dir attributes: %q", run.Stdout)
	}

	run = runFtree(t, writeNodesJSON(t, nodes), "-stat", "root/f1")
	if !strings.Contains(run.Stdout, "type=file\tsize=5") {
		t.Fatalf("unexpected stat output: %q", run.Stdout)
	}
	if !strings.Contains(run.Stdout, "mode=0100444\tnlink=1\tsize=5\tblocks=1") {
		t.Fatalf("unexpected file attributes: %q", run.Stdout)
	}

	run = runFtree(t, writeNodesJSON(t, nodes), "-s", "root/missing")
	if !strings.Contains(run.Stderr, "Failed to stat") {
		t.Fatalf("expected stat failure in logs, got: %s", run.Stderr)
	}
}

func TestE2EYAMLNodes(t *testing.T) {
	nodesPath := filepath.Join(t.TempDir(), "nodes.yaml")
	writeFile(t, nodesPath, []byte(`
- path: root
  type: dir
- path: root/notes.md
  type: file
  content: "# notes"
`))

	run := runFtree(t, nodesPath)
	if run.ExitCode != 0 {
		t.Fatalf("ftree exited %d\nstderr: %s", run.ExitCode, run.Stderr)
	}
	if run.Stdout != "root\nroot/notes.md\n" {
		t.Fatalf("tree mismatch: %q", run.Stdout)
	}
}

func TestE2EBadEntries(t *testing.T) {
	nodesPath := filepath.Join(t.TempDir(), "nodes.json")
	writeFile(t, nodesPath, []byte(`[
		{"type": "dir", "path": "root"},
		{"type": "symlink", "path": "root/link"},
		{"type": "dir", "path": "other"},
		{"type": "file", "path": "root/ok"}
	]`))

	run := runFtree(t, nodesPath)
	if run.ExitCode != 0 {
		t.Fatalf("bad entries must not abort, exited %d\nstderr: %s", run.ExitCode, run.Stderr)
	}
	if run.Stdout != "root\nroot/ok\n" {
		t.Fatalf("tree mismatch: %q", run.Stdout)
	}
	if !strings.Contains(run.Stderr, "Skipped node definition") {
		t.Fatalf("expected skipped entry warning, got: %s", run.Stderr)
	}
	if !strings.Contains(run.Stderr, "Failed to add node") {
		t.Fatalf("expected conflicting root warning, got: %s", run.Stderr)
	}
}

func TestE2EConfigLimits(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	writeFile(t, cfgPath, []byte("max_file_size: 4\nmax_children: 1\n"))

	nodes := []*TestNodeSpec{
		NewTestNode("root/small").WithTextContent("abc").Build(),
		NewTestNode("root/big").WithTextContent("abcdef").Build(),
		NewTestNode("root/d1").Dir().Build(),
		NewTestNode("root/d2").Dir().Build(),
	}

	run := runFtree(t, writeNodesJSON(t, nodes), "-c", cfgPath)
	if run.ExitCode != 0 {
		t.Fatalf("ftree exited %d\nstderr: %s", run.ExitCode, run.Stderr)
	}
	if run.Stdout != "root\nroot/small\nroot/d1\n" {
		t.Fatalf("tree mismatch: %q", run.Stdout)
	}
}

func TestE2EMissingNodesFile(t *testing.T) {
	run := runFtree(t, filepath.Join(t.TempDir(), "nope.json"))
	if run.ExitCode == 0 {
		t.Fatalf("expected non-zero exit for missing nodes file")
	}
}

// TestNodeSpec is one entry of a nodes definition file
type TestNodeSpec struct {
	Path     string `json:"path"`
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

type TestNodeBuilder struct {
	spec *TestNodeSpec
}

func NewTestNode(path string) *TestNodeBuilder {
	return &TestNodeBuilder{
		spec: &TestNodeSpec{Path: path, Type: "file"},
	}
}

func (b *TestNodeBuilder) Dir() *TestNodeBuilder {
	b.spec.Type = "dir"
	return b
}

func (b *TestNodeBuilder) WithTextContent(content string) *TestNodeBuilder {
	b.spec.Content = content
	b.spec.Encoding = ""
	return b
}

func (b *TestNodeBuilder) WithBinaryContent(size int) *TestNodeBuilder {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 256)
	}
	b.spec.Content = base64.StdEncoding.EncodeToString(data)
	b.spec.Encoding = "base64"
	return b
}

func (b *TestNodeBuilder) Build() *TestNodeSpec {
	return b.spec
}

type FtreeRun struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runFtree runs the binary against nodesPath with extra args at debug verbosity
func runFtree(t *testing.T, nodesPath string, args ...string) FtreeRun {
	t.Helper()
	argv := append([]string{"-v", "4", "-n", nodesPath}, args...)
	cmd := exec.Command(ftreeBin, argv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	run := FtreeRun{}
	if err := cmd.Run(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			t.Fatalf("failed to run ftree: %v", err)
		}
		run.ExitCode = exitErr.ExitCode()
	}
	run.Stdout = stdout.String()
	run.Stderr = stderr.String()
	return run
}

func writeNodesJSON(t *testing.T, nodes []*TestNodeSpec) string {
	t.Helper()
	data, err := json.Marshal(nodes)
	if err != nil {
		t.Fatalf("failed to marshal nodes: %v", err)
	}
	path := filepath.Join(t.TempDir(), "nodes.json")
	writeFile(t, path, data)
	return path
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
