package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amterp/ra"

	"github.com/pegboard-io/pegboard/internal/api"
)

func registerServe(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("serve")
	cmd.SetDescription("Start the board server")

	ctx.ServePort, _ = ra.NewInt("port").
		SetOptional(true).
		SetDefault(0).
		SetShort("p").
		SetFlagOnly(true).
		SetUsage("Port to listen on (overrides config)").
		Register(cmd)

	ctx.ServeDataDir, _ = ra.NewString("data-dir").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Directory holding the board store files (overrides config)").
		Register(cmd)

	ctx.ServeUsed, _ = parent.RegisterCmd(cmd)
}

func runServe(configPath string, port int, dataDir string) {
	app, err := NewApp(configPath, dataDir, false)
	if err != nil {
		Fatal(err)
	}
	defer app.Close()

	if port != 0 {
		app.Config.Port = port
	}

	// The default store is the only one created implicitly.
	if err := app.Registry.EnsureDefault(); err != nil {
		Fatal(err)
	}

	handler := api.NewHandler(app.Registry, app.Config.Limits)
	admin := api.NewAdminHandler(app.Registry, app.Config.AdminToken)
	server := api.NewServer(handler, admin, app.Registry, app.Config.Port)

	slog.Info("server starting",
		"addr", server.Addr(),
		"data_dir", app.Registry.DataDir(),
		"admin_enabled", admin.Enabled())
	fmt.Printf("Pegboard running at http://localhost:%d\n", app.Config.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Serve until interrupted, then drain in-flight requests.
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			Fatal(err)
		}
	case <-sigCh:
		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			Fatal(err)
		}
	}
}
