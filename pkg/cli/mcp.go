package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/euonia/pkg/service/mcp"
	goaluc "github.com/m-mizutani/euonia/pkg/usecase/goal"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func mcpCommand() *cli.Command {
	var (
		cfg      config
		uid      string
		httpAddr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID owning the goals (stdio only; HTTP takes it from the session token)",
			Sources:     cli.EnvVars("EUONIA_USER"),
			Destination: &uid,
		},
		&cli.StringFlag{
			Name:        "http",
			Usage:       "Serve streamable HTTP on this address instead of stdio. Requests need a bearer session token",
			Sources:     cli.EnvVars("EUONIA_MCP_HTTP"),
			Destination: &httpAddr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, sessionFlags(&cfg)...)

	return &cli.Command{
		Name:  "mcp",
		Usage: "Expose goal tools as an MCP server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// stdout belongs to the MCP transport
			ctx = cfg.configureLogger(ctx, c.Root().ErrWriter)
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if httpAddr == "" && uid == "" {
				return goerr.New("user is required for stdio")
			}

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			goalTool, err := newGoalTool(goaluc.New(repo))
			if err != nil {
				return err
			}

			if httpAddr != "" {
				verifier, err := cfg.newVerifier()
				if err != nil {
					return err
				}
				return mcp.ListenAndServe(ctx, httpAddr, mcp.NewHTTPHandler(goalTool, verifier, Version))
			}

			srv, err := mcp.NewServer(goalTool, model.UserID(uid), Version)
			if err != nil {
				return err
			}
			return mcp.ServeStdio(ctx, srv)
		},
	}
}
