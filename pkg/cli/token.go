package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/urfave/cli/v3"
)

func tokenCommand() *cli.Command {
	var (
		cfg config
		uid string
		ttl time.Duration
	)

	flags := []cli.Flag{
		userFlag(&uid),
		&cli.DurationFlag{
			Name:        "ttl",
			Usage:       "Token lifetime",
			Value:       24 * time.Hour,
			Destination: &ttl,
		},
	}
	flags = append(flags, loggingFlags(&cfg)...)
	flags = append(flags, sessionFlags(&cfg)...)

	return &cli.Command{
		Name:  "token",
		Usage: "Issue a session token for a user",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.configureLogger(ctx, c.Root().ErrWriter)

			verifier, err := cfg.newVerifier()
			if err != nil {
				return err
			}

			token, err := verifier.Issue(model.UserID(uid), ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, token)
			return nil
		},
	}
}
