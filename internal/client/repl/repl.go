// Package repl is the interactive terminal session: a readline loop
// over the chat websocket, with file transfer over the REST API.
package repl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"termchat/internal/client/api"
	"termchat/internal/client/progress"
	"termchat/internal/client/state"
	"termchat/internal/client/theme"

	"github.com/chzyer/readline"
	"github.com/gorilla/websocket"
)

const localHelp = `client commands:
  /send <path>        upload a local file to the server
  /get <name> [dir]   download a server file
  /theme [name]       show or switch the color theme
  /quit               disconnect and exit
everything else is sent to the server; try /help there`

// Session drives the interactive loop.
type Session struct {
	apiClient *api.Client
	themes    *theme.Manager
	session   *state.Session
	statePath string

	conn    *websocket.Conn
	writeMu sync.Mutex
	rl      *readline.Instance
}

func New(apiClient *api.Client, themes *theme.Manager, st *state.Session, statePath string) *Session {
	return &Session{
		apiClient: apiClient,
		themes:    themes,
		session:   st,
		statePath: statePath,
	}
}

// Run connects to the websocket endpoint and loops until the user
// quits or the connection drops.
func (s *Session) Run(ctx context.Context, wsURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", wsURL, err)
	}
	s.conn = conn
	defer func() { _ = conn.Close() }()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.themes.Paint(theme.KindPrompt, "termchat> "),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	s.rl = rl
	defer func() { _ = rl.Close() }()

	done := make(chan struct{})
	go s.readPump(done)

	s.printInfo("connected to %s (theme %s), /quit to leave", wsURL, s.themes.Current())
	if s.session.Username != "" {
		s.printInfo("previous session for %s found, /login again to authenticate", s.session.Username)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			s.printError("connection closed by server")
			return nil
		default:
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		quit, err := s.handleLine(ctx, line)
		if err != nil {
			s.printError("%v", err)
		}
		if quit {
			return nil
		}
	}
}

// handleLine runs client-side commands and forwards the rest to the
// server. Returns true when the session should end.
func (s *Session) handleLine(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		s.printInfo("bye")
		return true, nil
	case "/send":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: /send <path>")
		}
		return false, s.upload(ctx, fields[1])
	case "/get":
		if len(fields) < 2 || len(fields) > 3 {
			return false, fmt.Errorf("usage: /get <name> [dir]")
		}
		destDir := "."
		if len(fields) == 3 {
			destDir = fields[2]
		}
		return false, s.download(ctx, fields[1], destDir)
	case "/theme":
		s.handleTheme(fields[1:])
		return false, nil
	case "/help":
		s.printInfo("%s", localHelp)
		// fall through to the server help too
	case "/login":
		// Authenticate the REST side first so uploads work, then let
		// the server command authenticate the websocket.
		if len(fields) == 3 {
			if err := s.restLogin(ctx, fields[1], fields[2]); err != nil {
				return false, err
			}
		}
	case "/logout":
		s.session.AccessToken = ""
		s.session.Username = ""
		if err := state.Clear(s.statePath); err != nil {
			s.printError("clear session: %v", err)
		}
	}
	return false, s.send(line)
}

func (s *Session) restLogin(ctx context.Context, username, password string) error {
	token, err := s.apiClient.Login(ctx, username, password)
	if err != nil {
		return err
	}
	s.session.AccessToken = token
	s.session.Username = username
	if err := state.Save(s.statePath, *s.session); err != nil {
		s.printError("save session: %v", err)
	}
	return nil
}

func (s *Session) upload(ctx context.Context, path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	bar := progress.NewBar(s.rl.Stdout(), "uploading", fi.Size())
	info, err := s.apiClient.Upload(ctx, path, bar.Writer())
	bar.Finish()
	if err != nil {
		return err
	}
	s.printInfo("uploaded %s (%d bytes, sha256 %s)", info.Name, info.Size, info.SHA256)
	return nil
}

func (s *Session) download(ctx context.Context, name, destDir string) error {
	var bar *progress.Bar
	local, size, err := s.apiClient.Download(ctx, name, destDir, func(total int64) io.Writer {
		bar = progress.NewBar(s.rl.Stdout(), "downloading", total)
		return bar.Writer()
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	s.printInfo("downloaded %s (%d bytes)", local, size)
	return nil
}

func (s *Session) handleTheme(args []string) {
	if len(args) == 0 {
		s.printInfo("theme %s (available: %s)", s.themes.Current(), strings.Join(s.themes.Names(), ", "))
		return
	}
	if !s.themes.Switch(args[0]) {
		s.printError("unknown theme %q (available: %s)", args[0], strings.Join(s.themes.Names(), ", "))
		return
	}
	s.session.Theme = args[0]
	if err := state.Save(s.statePath, *s.session); err != nil {
		s.printError("save session: %v", err)
	}
	s.rl.SetPrompt(s.themes.Paint(theme.KindPrompt, "termchat> "))
	s.printInfo("theme set to %s", args[0])
}

func (s *Session) send(text string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}

// readPump prints incoming server messages above the prompt.
func (s *Session) readPump(done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.printServer(string(data))
	}
}

func (s *Session) printServer(text string) {
	kind := theme.KindPeer
	switch {
	case strings.HasPrefix(text, "[you:"):
		kind = theme.KindSelf
	case strings.HasPrefix(text, "error"):
		kind = theme.KindError
	case !strings.HasPrefix(text, "[peer:"):
		kind = theme.KindInfo
	}
	fmt.Fprintln(s.rl.Stdout(), s.themes.Paint(kind, text))
}

func (s *Session) printInfo(format string, args ...any) {
	fmt.Fprintln(s.out(), s.themes.Paint(theme.KindInfo, fmt.Sprintf(format, args...)))
}

func (s *Session) printError(format string, args ...any) {
	fmt.Fprintln(s.out(), s.themes.Paint(theme.KindError, fmt.Sprintf(format, args...)))
}

func (s *Session) out() io.Writer {
	if s.rl != nil {
		return s.rl.Stdout()
	}
	return os.Stdout
}
