// Command marsmission starts the Mars mission game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings come from the environment (optionally a .env file) and can be
// overridden with flags. ngrok tunneling is available for easy external
// access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/marsmission/api"
	"github.com/wricardo/mcp-training/marsmission/game/config"
	"github.com/wricardo/mcp-training/marsmission/game/service"
	"github.com/wricardo/mcp-training/marsmission/game/session"
	"github.com/wricardo/mcp-training/marsmission/transport/mcp"
	"github.com/wricardo/mcp-training/marsmission/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Mars Mission Game Server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the command line interface
func newCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port (PORT)"},
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host (HOST)"},
		&cli.StringFlag{Name: "map-dir", Value: "maps", Usage: "Directory containing map files (MAP_DIR)"},
		&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (NGROK_ENABLED)"},
	}

	return &cli.Command{
		Name:    "marsmission",
		Usage:   AppName,
		Version: Version,
		Flags:   flags,
		Action:  runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Flags:   flags,
				Action:  runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Flags:   flags,
				Action:  runStdioMCP,
			},
		},
	}
}

// setup loads configuration and builds the logger. Logs go to stderr so
// stdio-mcp keeps stdout for the protocol.
func setup(cmd *cli.Command) (*Config, zerolog.Logger, error) {
	envErr := loadDotEnv()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	level, _ := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	zerolog.SetGlobalLevel(level)
	logger := newLogger(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()))

	if envErr != nil {
		logger.Warn().Err(envErr).Msg("ignoring .env file")
	}
	return cfg, logger, nil
}

// newLogger writes human readable logs to terminals and JSON otherwise
func newLogger(out io.Writer, console bool) zerolog.Logger {
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// initializeServices wires the map manager, the game registry and the game service.
func initializeServices(cfg *Config, logger zerolog.Logger) (service.GameService, error) {
	maps, err := config.NewManager(cfg.MapDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create map manager: %w", err)
	}

	registry, err := session.NewRegistry(maps, logger, session.WithGameOptions(cfg.GameOptions()...))
	if err != nil {
		return nil, fmt.Errorf("failed to create game registry: %w", err)
	}

	for _, board := range registry.Maps() {
		logger.Info().Str("map", board.Name()).Int("width", board.Width()).Int("height", board.Height()).Msg("map loaded")
	}

	return service.NewGameService(registry, logger), nil
}

// newHandler combines the REST API with the /mcp endpoint
func newHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runServer starts the HTTP server with REST API, WebSocket hub, and an /mcp endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runServer(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	logger.Info().Str("version", Version).Str("mode", "server").Msg("starting " + AppName)

	gameService, err := initializeServices(cfg, logger)
	if err != nil {
		return err
	}
	adminHash, adminPassword, err := cfg.adminCredentials(logger)
	if err != nil {
		return err
	}

	hub := websocket.NewHub(logger)
	apiServer := api.NewServer(gameService, hub, adminHash, logger)

	addr := cfg.Addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr), adminPassword, cfg.StartingBattery, logger)
	handler := newHandler(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		logger.Info().Msgf("REST API: http://%s/api", addr)
		logger.Info().Msgf("WebSocket: ws://%s/ws?game=<game_id>", addr)
		logger.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		return nil
	})

	if cfg.NgrokEnabled {
		g.Go(func() error {
			return runNgrok(ctx, cfg, handler, logger)
		})
	}

	err = g.Wait()
	logger.Info().Msg("server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is cancelled.
// A missing auth token or a failed tunnel is logged and does not stop the server.
func runNgrok(ctx context.Context, cfg *Config, handler http.Handler, logger zerolog.Logger) error {
	if cfg.NgrokAuthToken == "" {
		logger.Warn().Msg("ngrok enabled but NGROK_AUTHTOKEN is not set")
		return nil
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuthToken))
	if err != nil {
		logger.Error().Err(err).Msg("failed to start ngrok tunnel")
		return nil
	}

	ngrokServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		ngrokServer.Close()
	}()

	logger.Info().Str("url", tun.URL()).Msg("ngrok tunnel established")
	if err := ngrokServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("ngrok server error")
	}
	logger.Info().Msg("ngrok tunnel closed")
	return nil
}

// runStdioMCP runs an MCP stdio server.
// It reuses API_URL or an API at the configured address when reachable;
// otherwise it starts an internal HTTP API bound to a random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	logger.Info().Str("version", Version).Str("mode", "stdio-mcp").Msg("starting " + AppName)

	baseURL := cfg.APIURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://%s", cfg.Addr())
	}

	g, ctx := errgroup.WithContext(ctx)
	adminPassword := cfg.AdminPassword

	if apiAvailable(ctx, baseURL) {
		logger.Info().Str("url", baseURL).Msg("using external API server")
	} else {
		logger.Info().Msg("no external API server found, starting internal HTTP server")

		gameService, err := initializeServices(cfg, logger)
		if err != nil {
			return err
		}
		adminHash, password, err := cfg.adminCredentials(logger)
		if err != nil {
			return err
		}
		adminPassword = password

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())

		hub := websocket.NewHub(logger)
		httpServer := &http.Server{Handler: api.NewServer(gameService, hub, adminHash, logger)}

		g.Go(func() error {
			return hub.Run(ctx)
		})
		g.Go(func() error {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("internal HTTP server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return httpServer.Close()
		})
	}

	mcpClient := mcp.NewClient(baseURL, adminPassword, cfg.StartingBattery, logger)
	if adminPassword == "" {
		logger.Warn().Msg("ADMIN_PASSWORD not set, MCP admin tools will be rejected")
	}

	g.Go(func() error {
		logger.Info().Str("api", baseURL).Msg("MCP stdio server ready")
		stdio := server.NewStdioServer(mcpClient.GetMCPServer())
		err := stdio.Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			return fmt.Errorf("MCP stdio server error: %w", err)
		}
		// stdin closed: stop the internal server too
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// apiAvailable reports whether a game API answers at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
