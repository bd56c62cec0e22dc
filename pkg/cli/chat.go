package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/euonia/pkg/usecase/chat"
	goaluc "github.com/m-mizutani/euonia/pkg/usecase/goal"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg        config
		uid        string
		chatID     string
		archiveKey string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID to chat as",
			Sources:     cli.EnvVars("EUONIA_USER"),
			Destination: &uid,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "chat-id",
			Aliases:     []string{"c"},
			Usage:       "Chat to continue. A new chat is created when omitted",
			Sources:     cli.EnvVars("EUONIA_CHAT_ID"),
			Destination: &chatID,
		},
		&cli.StringFlag{
			Name:        "from-archive",
			Usage:       "Start a new chat from an archived transcript object (requires --archive-bucket)",
			Destination: &archiveKey,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive journaling session in the terminal",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.configureLogger(ctx, c.Root().ErrWriter)
			w := c.Root().Writer

			repo, closeRepo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			goals := goaluc.New(repo)
			uc, err := cfg.newChatUseCase(ctx, repo, goals)
			if err != nil {
				return err
			}

			var session *model.Chat
			switch {
			case chatID != "" && archiveKey != "":
				return goerr.New("chat-id and from-archive cannot be used together")
			case archiveKey != "":
				session, err = uc.RestoreArchive(ctx, model.UserID(uid), archiveKey)
			case chatID != "":
				session, err = uc.EnsureChat(ctx, model.UserID(uid), model.ChatID(chatID), "terminal")
			default:
				session, err = uc.CreateChat(ctx, model.UserID(uid), "terminal")
			}
			if err != nil {
				return goerr.Wrap(err, "failed to open chat")
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "> ",
				HistoryFile:     historyFile(),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdout:          w,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			fmt.Fprintf(w, "Chat %s started. Type 'exit' to quit.\n", session.ID)

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						break
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "exit" {
					break
				}
				if message == "" {
					continue
				}

				s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
				s.Suffix = " thinking..."
				s.Start()
				out, err := uc.Turn(ctx, chat.TurnInput{
					UserID:  model.UserID(uid),
					ChatID:  session.ID,
					Message: message,
				})
				s.Stop()
				if err != nil {
					return goerr.Wrap(err, "failed to run turn")
				}

				fmt.Fprintf(w, "%s\n", out.ResponseText)
				if out.ToolCalls > 0 {
					fmt.Fprintf(w, "  (%d goal(s) tracked)\n", len(out.Goals))
				}
			}

			fmt.Fprintf(w, "\nChat session completed\n")
			return nil
		},
	}
}

// historyFile keeps REPL history in the user's cache directory when available
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "euonia")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return ""
	}
	return filepath.Join(dir, "chat_history")
}
