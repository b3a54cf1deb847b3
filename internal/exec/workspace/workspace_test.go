package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"termchat/internal/exec/workspace"
	appErr "termchat/pkg/errors"
)

func TestCreateStagesSource(t *testing.T) {
	mgr, err := workspace.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ws, err := mgr.Create("job-1", "main.c", []byte("int main(){return 0;}"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() { _ = ws.Destroy() }()

	data, err := os.ReadFile(ws.SourcePath())
	if err != nil {
		t.Fatalf("read staged source: %v", err)
	}
	if string(data) != "int main(){return 0;}" {
		t.Fatalf("staged source = %q", data)
	}
	if filepath.Dir(ws.SourcePath()) != ws.Dir() {
		t.Fatalf("source %s not inside workspace %s", ws.SourcePath(), ws.Dir())
	}
	if got := ws.BinaryPath("program_c"); got != filepath.Join(ws.Dir(), "program_c") {
		t.Fatalf("binary path = %s", got)
	}
}

func TestCreateIsolatesJobs(t *testing.T) {
	mgr, err := workspace.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	a, err := mgr.Create("job-a", "main.c", []byte("a"))
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	defer func() { _ = a.Destroy() }()
	b, err := mgr.Create("job-b", "main.c", []byte("b"))
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	defer func() { _ = b.Destroy() }()

	if a.Dir() == b.Dir() {
		t.Fatalf("jobs share directory %s", a.Dir())
	}
	dataA, _ := os.ReadFile(a.SourcePath())
	dataB, _ := os.ReadFile(b.SourcePath())
	if string(dataA) != "a" || string(dataB) != "b" {
		t.Fatalf("sources crossed: a=%q b=%q", dataA, dataB)
	}
}

func TestCreateRejectsUnsafeFilenames(t *testing.T) {
	mgr, err := workspace.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	for _, name := range []string{
		"",
		"../escape.c",
		"..",
		"a/b.c",
		`a\b.c`,
		"/etc/passwd",
		"bad\x00name.c",
	} {
		_, err := mgr.Create("job-x", name, []byte("x"))
		if appErr.GetCode(err) != appErr.UnsafeFilename {
			t.Fatalf("create with name %q: got code %d, want UnsafeFilename", name, appErr.GetCode(err))
		}
	}
}

func TestCreateRejectsUnsafeJobIDs(t *testing.T) {
	root := t.TempDir()
	mgr, err := workspace.NewManager(root)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	for _, jobID := range []string{
		"../escape",
		"..",
		"a/b",
		`a\b`,
		"/tmp/elsewhere",
		"bad\x00id",
	} {
		_, err := mgr.Create(jobID, "main.c", []byte("x"))
		if appErr.GetCode(err) != appErr.ValidationFailed {
			t.Fatalf("create with job id %q: got code %d, want ValidationFailed", jobID, appErr.GetCode(err))
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape")); !os.IsNotExist(err) {
		t.Fatal("workspace created outside root")
	}
}

func TestDestroyRemovesEverything(t *testing.T) {
	mgr, err := workspace.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ws, err := mgr.Create("job-1", "run.sh", []byte("echo hi"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Simulate a build artifact next to the source.
	if err := os.WriteFile(ws.BinaryPath("out"), []byte("bin"), 0o755); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	if err := ws.Destroy(); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Fatalf("workspace %s still exists after destroy", ws.Dir())
	}
	// Second destroy is a no-op, not an error.
	if err := ws.Destroy(); err != nil {
		t.Fatalf("second destroy: %v", err)
	}
}

func TestNewManagerRequiresRoot(t *testing.T) {
	if _, err := workspace.NewManager("  "); err == nil {
		t.Fatal("manager accepted blank root")
	}
}
