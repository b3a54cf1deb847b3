package chat

import (
	"context"
	"fmt"
	"strings"

	"termchat/internal/auth"
	"termchat/internal/exec"
	"termchat/internal/files"
	appErr "termchat/pkg/errors"
	"termchat/pkg/utils/contextkey"
	"termchat/pkg/utils/logger"

	"go.uber.org/zap"
)

const helpText = `[INFO] Available commands:
- /help : show this help
- /register <user> <pass> [email] : create an account
- /login <user> <pass> : log in
- /logout : log out
- /users : list connected users
- /msg <user> <message> : send a private message
- /files : list files on the server
- /run <lang> <file> [args...] : compile and run an uploaded file
- /quit : disconnect`

// CodeRunner submits execution requests with backpressure.
type CodeRunner interface {
	TryExecute(ctx context.Context, req exec.Request) (exec.Result, error)
}

// Dispatcher routes incoming chat messages and slash commands.
type Dispatcher struct {
	hub    *Hub
	auth   *auth.Service
	store  *files.Store
	runner CodeRunner
}

// NewDispatcher creates a dispatcher over the hub and its collaborators.
func NewDispatcher(hub *Hub, authSvc *auth.Service, store *files.Store, runner CodeRunner) *Dispatcher {
	return &Dispatcher{hub: hub, auth: authSvc, store: store, runner: runner}
}

// Handle processes one incoming text frame from conn.
func (d *Dispatcher) Handle(ctx context.Context, conn *Conn, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if !strings.HasPrefix(text, "/") {
		d.handleMessage(conn, text)
		return
	}

	parts := strings.Fields(text)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help":
		d.hub.SendPersonal(conn, helpText)
	case "/register":
		d.handleRegister(conn, args)
	case "/login":
		d.handleLogin(conn, args)
	case "/logout":
		d.handleLogout(conn)
	case "/users":
		d.handleUsers(conn)
	case "/msg":
		d.handlePrivateMessage(conn, args)
	case "/files":
		d.handleFiles(conn)
	case "/run":
		d.handleRun(ctx, conn, args)
	default:
		d.hub.SendPersonal(conn, fmt.Sprintf("[ERROR] Unknown command %s. Try /help.", command))
	}
}

func (d *Dispatcher) handleMessage(conn *Conn, text string) {
	username := d.hub.UsernameOf(conn)
	if username == "" {
		d.hub.SendPersonal(conn, "[ERROR] You must be logged in to chat. Use /login <user> <pass>.")
		return
	}
	d.hub.SendPersonal(conn, fmt.Sprintf("[you:%s] %s", username, text))
	d.hub.BroadcastExcept(conn, fmt.Sprintf("[peer:%s] %s", username, text))
}

func (d *Dispatcher) handleRegister(conn *Conn, args []string) {
	if len(args) < 2 {
		d.hub.SendPersonal(conn, "[ERROR] Usage: /register <user> <pass> [email]")
		return
	}
	email := ""
	if len(args) >= 3 {
		email = args[2]
	}
	if err := d.auth.Register(args[0], args[1], email); err != nil {
		d.hub.SendPersonal(conn, "[ERROR] "+userMessage(err))
		return
	}
	d.hub.SendPersonal(conn, fmt.Sprintf("[INFO] Account %s created. Use /login to connect.", args[0]))
}

func (d *Dispatcher) handleLogin(conn *Conn, args []string) {
	if len(args) < 2 {
		d.hub.SendPersonal(conn, "[ERROR] Usage: /login <user> <pass>")
		return
	}
	if _, _, err := d.auth.Login(args[0], args[1]); err != nil {
		d.hub.SendPersonal(conn, "[ERROR] "+userMessage(err))
		return
	}
	d.hub.SetUsername(conn, args[0])
	d.hub.SendPersonal(conn, fmt.Sprintf("[INFO] Logged in as %s", args[0]))
}

func (d *Dispatcher) handleLogout(conn *Conn) {
	if d.hub.UsernameOf(conn) == "" {
		d.hub.SendPersonal(conn, "[ERROR] You are not logged in.")
		return
	}
	d.hub.SetUsername(conn, "")
	d.hub.SendPersonal(conn, "[INFO] Logged out.")
}

func (d *Dispatcher) handleUsers(conn *Conn) {
	if d.hub.UsernameOf(conn) == "" {
		d.hub.SendPersonal(conn, "[ERROR] You must be logged in. Use /login <user> <pass>.")
		return
	}
	users := d.hub.ConnectedUsers()
	if len(users) == 0 {
		d.hub.SendPersonal(conn, "[INFO] No users connected.")
		return
	}
	d.hub.SendPersonal(conn, "[INFO] Connected users: "+strings.Join(users, ", "))
}

func (d *Dispatcher) handlePrivateMessage(conn *Conn, args []string) {
	sender := d.hub.UsernameOf(conn)
	if sender == "" {
		d.hub.SendPersonal(conn, "[ERROR] You must be logged in to send private messages. Use /login <user> <pass>.")
		return
	}
	if len(args) < 2 {
		d.hub.SendPersonal(conn, "[ERROR] Usage: /msg <user> <message>")
		return
	}
	recipient := args[0]
	body := strings.Join(args[1:], " ")
	if !d.hub.SendToUser(recipient, fmt.Sprintf("[pm:%s] %s", sender, body)) {
		d.hub.SendPersonal(conn, fmt.Sprintf("[ERROR] User %s is not connected.", recipient))
		return
	}
	d.hub.SendPersonal(conn, fmt.Sprintf("[pm-sent:%s] %s", recipient, body))
}

func (d *Dispatcher) handleFiles(conn *Conn) {
	infos, err := d.store.List()
	if err != nil {
		d.hub.SendPersonal(conn, "[ERROR] "+userMessage(err))
		return
	}
	if len(infos) == 0 {
		d.hub.SendPersonal(conn, "[INFO] No files on the server.")
		return
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, fmt.Sprintf("%s (%d bytes)", info.Name, info.Size))
	}
	d.hub.SendPersonal(conn, "[INFO] Files: "+strings.Join(names, ", "))
}

func (d *Dispatcher) handleRun(ctx context.Context, conn *Conn, args []string) {
	username := d.hub.UsernameOf(conn)
	if username == "" {
		d.hub.SendPersonal(conn, "[ERROR] You must be logged in to run code. Use /login <user> <pass>.")
		return
	}
	if len(args) < 2 {
		d.hub.SendPersonal(conn, "[ERROR] Usage: /run <lang> <file> [args...]")
		return
	}

	source, err := d.store.Read(args[1])
	if err != nil {
		d.hub.SendPersonal(conn, "[ERROR] "+userMessage(err))
		return
	}

	ctx = context.WithValue(ctx, contextkey.Username, username)
	res, err := d.runner.TryExecute(ctx, exec.Request{
		LanguageID:     args[0],
		SourceFilename: args[1],
		SourceBytes:    source,
		Args:           args[2:],
	})
	if err != nil && res.Status != exec.StatusInternalError {
		d.hub.SendPersonal(conn, "[ERROR] "+userMessage(err))
		return
	}
	if err != nil {
		logger.Error(ctx, "run command failed", zap.String("file", args[1]), zap.Error(err))
	}
	d.hub.SendPersonal(conn, FormatResult(res))
}

// FormatResult renders an execution result for the chat channel.
func FormatResult(res exec.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[RUN %s] %s: %s", res.JobID, res.Status, res.Summary)

	if res.Compile != nil && res.Status == exec.StatusCompileFailed {
		b.WriteString("\n--- compiler output ---\n")
		b.WriteString(strings.TrimRight(res.Compile.Stderr, "\n"))
		if res.Compile.StderrTruncated {
			b.WriteString("\n[output truncated]")
		}
	}
	if res.Run != nil {
		if res.Run.Stdout != "" {
			b.WriteString("\n--- stdout ---\n")
			b.WriteString(strings.TrimRight(res.Run.Stdout, "\n"))
			if res.Run.StdoutTruncated {
				b.WriteString("\n[output truncated]")
			}
		}
		if res.Run.Stderr != "" {
			b.WriteString("\n--- stderr ---\n")
			b.WriteString(strings.TrimRight(res.Run.Stderr, "\n"))
			if res.Run.StderrTruncated {
				b.WriteString("\n[output truncated]")
			}
		}
		fmt.Fprintf(&b, "\n[%dms]", res.Run.DurationMs)
	}
	return b.String()
}

// userMessage maps an error to the text shown to the requester, hiding
// internal detail behind the generic message for uncoded errors.
func userMessage(err error) string {
	return appErr.GetError(err).Error()
}
