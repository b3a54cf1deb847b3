package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"termchat/internal/client/api"
	"termchat/internal/client/repl"
	"termchat/internal/client/state"
	"termchat/internal/client/theme"
)

const defaultConfigPath = "configs/client.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override server base URL")
	themeName := flag.String("theme", "", "Override color theme")
	statePath := flag.String("state", "", "Override session state path")
	flag.Parse()

	cfg, err := loadClientConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *themeName != "" {
		cfg.Theme = *themeName
	}
	if *statePath != "" {
		cfg.StatePath = *statePath
	}

	st, err := state.Load(cfg.StatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load session state failed: %v\n", err)
		os.Exit(1)
	}
	if st.Theme != "" && *themeName == "" {
		cfg.Theme = st.Theme
	}

	wsURL, err := websocketURL(cfg.BaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid base URL: %v\n", err)
		os.Exit(1)
	}

	apiClient := api.New(cfg.BaseURL, cfg.Timeout, func() string {
		return st.AccessToken
	})
	session := repl.New(apiClient, theme.NewManager(cfg.Theme), &st, cfg.StatePath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := session.Run(ctx, wsURL); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "session failed: %v\n", err)
		os.Exit(1)
	}
}

func websocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}
