package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Version is the application version reported by the MCP server
const Version = "0.1.0"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "euonia",
		Usage: "Journaling assistant with goal tracking",
		Commands: []*cli.Command{
			serveCommand(),
			chatCommand(),
			goalCommand(),
			mcpCommand(),
			tokenCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
