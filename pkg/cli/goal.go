package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/euonia/pkg/model"
	goaluc "github.com/m-mizutani/euonia/pkg/usecase/goal"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func goalCommand() *cli.Command {
	return &cli.Command{
		Name:  "goal",
		Usage: "Inspect and manage a user's goals",
		Commands: []*cli.Command{
			goalListCommand(),
			goalResolveCommand(),
		},
	}
}

func userFlag(uid *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "user",
		Aliases:     []string{"u"},
		Usage:       "User ID owning the goals",
		Sources:     cli.EnvVars("EUONIA_USER"),
		Destination: uid,
		Required:    true,
	}
}

func goalListCommand() *cli.Command {
	var (
		cfg  config
		uid  string
		days int64
	)

	flags := []cli.Flag{
		userFlag(&uid),
		&cli.IntFlag{
			Name:        "days",
			Usage:       "Only goals created within this many days around today. All goals when negative",
			Value:       -1,
			Destination: &days,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List goals",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.configureLogger(ctx, c.Root().ErrWriter)

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			uc := goaluc.New(repo)

			var goals []*model.Goal
			if days < 0 {
				goals, err = uc.ListAll(ctx, model.UserID(uid))
			} else {
				goals, err = uc.ListByWindow(ctx, model.UserID(uid), int(days))
			}
			if err != nil {
				return goerr.Wrap(err, "failed to list goals")
			}

			for _, g := range goals {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\t%s\n", g.ID, g.Priority, g.Deadline, g.Name)
			}
			return nil
		},
	}
}

func goalResolveCommand() *cli.Command {
	var (
		cfg config
		uid string
	)

	flags := []cli.Flag{userFlag(&uid)}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve (delete) a goal",
		ArgsUsage: "<goal-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.configureLogger(ctx, c.Root().ErrWriter)

			if c.Args().Len() != 1 {
				return goerr.New("goal ID is required")
			}
			id := model.GoalID(c.Args().First())

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := goaluc.New(repo).Resolve(ctx, id, model.UserID(uid)); err != nil {
				return goerr.Wrap(err, "failed to resolve goal", goerr.V("id", id))
			}

			fmt.Fprintf(c.Root().Writer, "Goal %s resolved\n", id)
			return nil
		},
	}
}
