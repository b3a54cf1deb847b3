package chat_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"termchat/internal/auth"
	"termchat/internal/chat"
	"termchat/internal/exec"
	"termchat/internal/exec/runner"
	"termchat/internal/files"
	appErr "termchat/pkg/errors"
)

type fakeCodeRunner struct {
	res  exec.Result
	err  error
	reqs []exec.Request
}

func (f *fakeCodeRunner) TryExecute(_ context.Context, req exec.Request) (exec.Result, error) {
	f.reqs = append(f.reqs, req)
	return f.res, f.err
}

type testEnv struct {
	hub    *chat.Hub
	disp   *chat.Dispatcher
	runner *fakeCodeRunner
	store  *files.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := files.NewStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	userStore, err := auth.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	if err != nil {
		t.Fatalf("new user store: %v", err)
	}
	authSvc, err := auth.NewService(userStore, auth.ServiceConfig{JWTSecret: []byte("k")})
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	hub := chat.NewHub()
	runner := &fakeCodeRunner{}
	return &testEnv{
		hub:    hub,
		disp:   chat.NewDispatcher(hub, authSvc, store, runner),
		runner: runner,
		store:  store,
	}
}

func TestHandleRequiresLoginForChat(t *testing.T) {
	env := newTestEnv(t)
	conn, client := connPair(t)
	env.hub.Register(conn)

	env.disp.Handle(context.Background(), conn, "hello?")
	if got := readText(t, client); !strings.Contains(got, "logged in") {
		t.Fatalf("reply = %q", got)
	}
}

func TestHandleRegisterLoginAndChat(t *testing.T) {
	env := newTestEnv(t)
	connA, clientA := connPair(t)
	connB, clientB := connPair(t)
	env.hub.Register(connA)
	env.hub.Register(connB)

	env.disp.Handle(context.Background(), connA, "/register alice s3cret-pw")
	if got := readText(t, clientA); !strings.Contains(got, "created") {
		t.Fatalf("register reply = %q", got)
	}
	env.disp.Handle(context.Background(), connA, "/login alice s3cret-pw")
	if got := readText(t, clientA); !strings.Contains(got, "Logged in as alice") {
		t.Fatalf("login reply = %q", got)
	}
	env.disp.Handle(context.Background(), connB, "/register bob s3cret-pw")
	readText(t, clientB)
	env.disp.Handle(context.Background(), connB, "/login bob s3cret-pw")
	readText(t, clientB)

	env.disp.Handle(context.Background(), connA, "hello bob")
	if got := readText(t, clientA); got != "[you:alice] hello bob" {
		t.Fatalf("echo = %q", got)
	}
	if got := readText(t, clientB); got != "[peer:alice] hello bob" {
		t.Fatalf("peer message = %q", got)
	}
}

func TestHandleLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	conn, client := connPair(t)
	env.hub.Register(conn)

	env.disp.Handle(context.Background(), conn, "/login ghost whatever")
	if got := readText(t, client); !strings.HasPrefix(got, "[ERROR]") {
		t.Fatalf("reply = %q", got)
	}
	if env.hub.UsernameOf(conn) != "" {
		t.Fatal("connection authenticated despite failed login")
	}
}

func TestHandleUnknownCommand(t *testing.T) {
	env := newTestEnv(t)
	conn, client := connPair(t)
	env.hub.Register(conn)

	env.disp.Handle(context.Background(), conn, "/frobnicate")
	if got := readText(t, client); !strings.Contains(got, "Unknown command") {
		t.Fatalf("reply = %q", got)
	}
}

func TestHandlePrivateMessage(t *testing.T) {
	env := newTestEnv(t)
	connA, clientA := connPair(t)
	connB, clientB := connPair(t)
	env.hub.Register(connA)
	env.hub.Register(connB)
	env.hub.SetUsername(connA, "alice")
	env.hub.SetUsername(connB, "bob")

	env.disp.Handle(context.Background(), connA, "/msg bob psst over here")
	if got := readText(t, clientA); got != "[pm-sent:bob] psst over here" {
		t.Fatalf("sender echo = %q", got)
	}
	if got := readText(t, clientB); got != "[pm:alice] psst over here" {
		t.Fatalf("recipient message = %q", got)
	}

	env.disp.Handle(context.Background(), connA, "/msg carol hello")
	if got := readText(t, clientA); !strings.Contains(got, "not connected") {
		t.Fatalf("missing-recipient reply = %q", got)
	}
}

func TestHandlePrivateMessageRequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	conn, client := connPair(t)
	env.hub.Register(conn)

	env.disp.Handle(context.Background(), conn, "/msg bob hi")
	if got := readText(t, client); !strings.Contains(got, "logged in") {
		t.Fatalf("reply = %q", got)
	}
}

func TestHandleRunRequiresLogin(t *testing.T) {
	env := newTestEnv(t)
	conn, client := connPair(t)
	env.hub.Register(conn)

	env.disp.Handle(context.Background(), conn, "/run c main.c")
	if got := readText(t, client); !strings.Contains(got, "logged in") {
		t.Fatalf("reply = %q", got)
	}
	if len(env.runner.reqs) != 0 {
		t.Fatal("runner invoked without login")
	}
}

func TestHandleRunSubmitsStoredFile(t *testing.T) {
	env := newTestEnv(t)
	conn, client := connPair(t)
	env.hub.Register(conn)
	env.hub.SetUsername(conn, "alice")

	if _, err := env.store.Save("main.c", strings.NewReader("int main(){}")); err != nil {
		t.Fatalf("save: %v", err)
	}
	env.runner.res = exec.Result{
		JobID:   "job-42",
		Status:  exec.StatusSucceeded,
		Summary: "program completed successfully",
	}

	env.disp.Handle(context.Background(), conn, "/run c main.c arg1 arg2")
	got := readText(t, client)
	if !strings.Contains(got, "[RUN job-42] Succeeded") {
		t.Fatalf("reply = %q", got)
	}

	if len(env.runner.reqs) != 1 {
		t.Fatalf("runner invoked %d times", len(env.runner.reqs))
	}
	req := env.runner.reqs[0]
	if req.LanguageID != "c" || req.SourceFilename != "main.c" {
		t.Fatalf("request = %+v", req)
	}
	if string(req.SourceBytes) != "int main(){}" {
		t.Fatalf("source = %q", req.SourceBytes)
	}
	if len(req.Args) != 2 || req.Args[0] != "arg1" || req.Args[1] != "arg2" {
		t.Fatalf("args = %v", req.Args)
	}
}

func TestHandleRunMissingFile(t *testing.T) {
	env := newTestEnv(t)
	conn, client := connPair(t)
	env.hub.Register(conn)
	env.hub.SetUsername(conn, "alice")

	env.disp.Handle(context.Background(), conn, "/run c absent.c")
	if got := readText(t, client); !strings.Contains(got, "not found") {
		t.Fatalf("reply = %q", got)
	}
	if len(env.runner.reqs) != 0 {
		t.Fatal("runner invoked for missing file")
	}
}

func TestHandleRunQueueFull(t *testing.T) {
	env := newTestEnv(t)
	conn, client := connPair(t)
	env.hub.Register(conn)
	env.hub.SetUsername(conn, "alice")

	if _, err := env.store.Save("main.c", strings.NewReader("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	env.runner.err = appErr.New(appErr.ExecQueueFull)

	env.disp.Handle(context.Background(), conn, "/run c main.c")
	got := readText(t, client)
	if !strings.HasPrefix(got, "[ERROR]") {
		t.Fatalf("reply = %q", got)
	}
}

func TestHandleRunInternalErrorShowsCorrelationOnly(t *testing.T) {
	env := newTestEnv(t)
	conn, client := connPair(t)
	env.hub.Register(conn)
	env.hub.SetUsername(conn, "alice")

	if _, err := env.store.Save("main.c", strings.NewReader("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	env.runner.res = exec.Result{
		JobID:   "job-7",
		Status:  exec.StatusInternalError,
		Summary: "internal error, correlation id job-7",
	}
	env.runner.err = appErr.Newf(appErr.ExecSystemError, "disk full in /var/lib")

	env.disp.Handle(context.Background(), conn, "/run c main.c")
	got := readText(t, client)
	if !strings.Contains(got, "correlation id job-7") {
		t.Fatalf("reply = %q", got)
	}
	if strings.Contains(got, "disk full") {
		t.Fatalf("reply %q leaks internal detail", got)
	}
}

func TestFormatResultSections(t *testing.T) {
	res := exec.Result{
		JobID:  "j1",
		Status: exec.StatusRuntimeFailed,
		Run: &runner.PhaseResult{
			ExitCode:        2,
			Stdout:          "some output\n",
			Stderr:          "boom\n",
			StderrTruncated: true,
			DurationMs:      57,
		},
		Summary: "program exited with code 2",
	}
	out := chat.FormatResult(res)
	for _, want := range []string{
		"[RUN j1] RuntimeFailed: program exited with code 2",
		"--- stdout ---",
		"--- stderr ---",
		"boom",
		"[output truncated]",
		"[57ms]",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("formatted result missing %q:\n%s", want, out)
		}
	}
}
