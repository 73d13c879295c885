package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/benz9527/xhome/config"
	"github.com/benz9527/xhome/home"
	"github.com/benz9527/xhome/xlog"
)

type banner struct{}

func (banner) JSON() string {
	return `{"app":"xhome"}`
}

func (banner) PlainText() string {
	return `
 __  __ _   _  ___  __  __ _____
 \ \/ /| | | |/ _ \|  \/  | ____|
  \  / | |_| | | | | |\/| |  _|
  /  \ |  _  | |_| | |  | | |___
 /_/\_\|_| |_|\___/|_|  |_|_____|
`
}

type flags struct {
	configPath string
	once       bool
	watch      bool
}

func parseFlags(args []string) (flags, error) {
	f := flags{}
	fs := pflag.NewFlagSet("xhome", pflag.ContinueOnError)
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML site layout, the demo house when empty")
	fs.BoolVar(&f.once, "once", false, "print the report and exit")
	fs.BoolVar(&f.watch, "watch", false, "reload the houses when the config file changes")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

func loadConfig(f flags) (*config.Config, error) {
	if f.configPath == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(f.configPath)
}

// report prints every device, every room report, the lookups of every
// device plus one miss, and the house report.
func report(w io.Writer, houses []*home.SyncHouse) {
	for _, sh := range houses {
		_ = sh.View(func(h *home.House) error {
			for _, room := range h.Rooms() {
				for _, d := range room.Devices() {
					_, _ = fmt.Fprintln(w, d.String())
				}
				_, _ = fmt.Fprintln(w, room.Info())
			}
			for _, room := range h.Rooms() {
				for _, name := range append(room.DeviceNames(), "missing") {
					_, found := h.FindRoomAndDevice(room.Name(), name)
					_, _ = fmt.Fprintf(w, "find %s/%s/%s: %t\n", h.Name(), room.Name(), name, found)
				}
			}
			_, _ = fmt.Fprintln(w, h.Info())
			return nil
		})
	}
}

func newApp(f flags, cfg *config.Config, logger xlog.XLogger, out io.Writer) *fx.App {
	return fx.New(
		fx.Supply(f, cfg),
		fx.Provide(
			func() xlog.XLogger { return logger },
			newHomeStats,
			newHouses,
		),
		fx.WithLogger(func() fxevent.Logger {
			return xlog.NewFxXLogger(logger, appName)
		}),
		fx.Invoke(
			func(houses []*home.SyncHouse) { report(out, houses) },
			startRefresher,
			startMetricsServer,
			startWatcher,
		),
	)
}

func run(args []string, out io.Writer) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	logger := xlog.NewXLogger(cfg.Logging.LoggerOptions()...)
	defer func() {
		_ = logger.Sync()
	}()
	logger.Banner(banner{})

	app := newApp(f, cfg, logger, out)
	if err = app.Err(); err != nil {
		return err
	}
	if !f.once {
		app.Run()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = app.Start(ctx); err != nil {
		return err
	}
	return app.Stop(ctx)
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "xhome: %v\n", err)
		os.Exit(1)
	}
}
