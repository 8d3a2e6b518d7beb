package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"serialhub-go/services/config"
	"serialhub-go/x/strx"
)

type globalFlags struct {
	config string
	preset string
	debug  bool
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:          "hubd",
		Short:        "Serial line multiplexer: six ports over one upstream link",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := newLogger(cmd.ErrOrStderr(), g.debug)
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, stdio{in: cmd.InOrStdin(), out: cmd.OutOrStdout()}, log)
		},
	}

	cmd.PersistentFlags().StringVarP(&g.config, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&g.preset, "preset", "stdio", "embedded configuration used when --config is not given")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "log every routing decision to stderr")

	cmd.AddCommand(checkCmd(&g))
	return cmd
}

func checkCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and print the port map",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*g)
			if err != nil {
				return err
			}
			printPortMap(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func loadConfig(g globalFlags) (*config.Config, error) {
	if g.config != "" {
		return config.Load(g.config)
	}
	return config.Preset(g.preset)
}

func printPortMap(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "upstream  %s\n", strx.Coalesce(cfg.Upstream.Device, "stdio"))
	for p := 1; p <= 6; p++ {
		pc, ok := cfg.PortFor(portOf(p))
		if !ok {
			fmt.Fprintf(w, "port %d    idle\n", p)
			continue
		}
		fmt.Fprintf(w, "port %d    %s %d %s\n", p, pc.Device, pc.Baud, formatOf(pc))
	}
	fmt.Fprintf(w, "buffer    %d\n", cfg.BufferSize)
}

func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}).
		Level(level).
		With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
