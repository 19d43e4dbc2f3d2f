package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/sortalost/blackjack/config"
	"github.com/sortalost/blackjack/profile"
	"github.com/sortalost/blackjack/session"
)

func main() {
	if err := run(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv(nil)
	if err != nil {
		return err
	}
	flag.StringVar(&cfg.APIURL, "api", cfg.APIURL, "room server URL")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "timeout of a single request")
	flag.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "state polling interval")
	flag.DurationVar(&cfg.QueueInterval, "queue", cfg.QueueInterval, "random match retry interval")
	flag.IntVar(&cfg.MaxPollFailures, "failures", cfg.MaxPollFailures, "consecutive polling failures before giving up")
	flag.StringVar(&cfg.ProfilePath, "profile", cfg.ProfilePath, "profile database, empty to disable")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "debug logging")
	nameFlag := flag.String("name", "", "display name, skips the prompt")
	flag.Parse()

	if flag.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [OPTIONS]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Debug)
	ctx := context.Background()

	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Black", pterm.FgDarkGray.ToStyle()),
		putils.LettersFromStringWithStyle("jack", pterm.FgRed.ToStyle()),
	).Srender()
	if err != nil {
		logger.Error(err.Error())
	}
	pterm.Print(title)
	pterm.Info.Printfln("Server: %s", cfg.APIURL)

	var store *profile.Store
	if cfg.ProfilePath != "" {
		store, err = profile.Open(ctx, cfg.ProfilePath)
		if err != nil {
			logger.Warn("profile unavailable, nothing will be remembered", "path", cfg.ProfilePath, "error", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	sess := session.New()
	prompt := ptermPrompter{}
	if err := askName(ctx, sess, store, *nameFlag, logger, prompt); err != nil {
		return err
	}

	a := newApp(cfg, sess, store, logger, prompt)
	defer a.match.Close()

	return a.menu(ctx)
}

// newLogger logs through pterm; below debug only warnings and errors are
// shown so they do not interleave with the table.
func newLogger(debug bool) *slog.Logger {
	l := pterm.DefaultLogger
	l.Level = pterm.LogLevelWarn
	if debug {
		l.Level = pterm.LogLevelDebug
	}
	return slog.New(pterm.NewSlogHandler(&l))
}

func askName(ctx context.Context, s *session.Session, store *profile.Store, name string, logger *slog.Logger, prompt prompter) error {
	if name != "" {
		if err := s.SetIdentity(name); err != nil {
			return fmt.Errorf("-name: %w", err)
		}
	} else {
		saved := ""
		if store != nil {
			var err error
			if saved, err = store.DisplayName(ctx); err != nil {
				logger.Warn("could not read the saved name", "error", err)
			}
		}
		for {
			input, err := prompt.Input("Enter your name", saved)
			if err != nil {
				return err
			}
			pterm.Println()
			if err := s.SetIdentity(input); err != nil {
				pterm.Error.Println(describe(err))
				continue
			}
			break
		}
	}
	if store != nil {
		if err := store.SetDisplayName(ctx, s.Name()); err != nil {
			logger.Warn("could not save the name", "error", err)
		}
	}
	return nil
}
