package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"golang.org/x/net/context"
	"gopkg.in/natefinch/lumberjack.v2"

	sniffle "github.com/FDlucifer/Sniffle"
	"github.com/FDlucifer/Sniffle/ll"
	"github.com/FDlucifer/Sniffle/radio/uart"
)

func main() {
	app := cli.NewApp()

	app.Name = "sniffle"
	app.Usage = "A passive BLE link-layer sniffer"
	app.Version = "0.1.0"
	app.Action = cli.ShowAppHelp

	app.Commands = []cli.Command{
		{
			Name:    "sniff",
			Aliases: []string{"s"},
			Usage:   "Scan for connections and follow them",
			Action:  sniff,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "config, c", Usage: "YAML config file"},
				cli.StringFlag{Name: "port, p", Usage: "capture firmware serial port"},
				cli.IntFlag{Name: "baud, b", Usage: "serial baud rate"},
				cli.UintFlag{Name: "channel", Usage: "advertising channel to scan (37-39)"},
				cli.StringFlag{Name: "out, o", Usage: "NDJSON capture output file (default stdout)"},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("sniffle: %v", err)
	}
}

func sniff(c *cli.Context) error {
	cfg, err := loadAndMerge(c)
	if err != nil {
		return err
	}
	if cfg.Port == "" {
		return errors.New("no serial port given (see --port)")
	}

	if cfg.Log.File != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		})
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}
	w := NewNDJSONWriter(out)

	var ropts []uart.Option
	if cfg.Baud != 0 {
		ropts = append(ropts, uart.OptBaudRate(cfg.Baud))
	}
	radio, err := uart.New(cfg.Port, ropts...)
	if err != nil {
		return errors.Wrap(err, "can't open radio")
	}
	defer radio.Close()

	s, err := ll.NewSniffer(radio,
		ll.OptAdvChannel(cfg.AdvChannel),
		ll.OptFrameHandler(func(f *sniffle.Frame) {
			if err := w.WriteFrame(f); err != nil {
				log.Printf("can't write frame: %v", err)
			}
		}),
	)
	if err != nil {
		return errors.Wrap(err, "can't create sniffer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		<-sigc
		cancel()
	}()

	log.Printf("sniffing on %s, advertising channel %d", cfg.Port, cfg.AdvChannel)
	if err := s.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// loadAndMerge reads the config file, if any, then lets flags win.
func loadAndMerge(c *cli.Context) (*Config, error) {
	cfg := DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if p := c.String("port"); p != "" {
		cfg.Port = p
	}
	if b := c.Int("baud"); b != 0 {
		cfg.Baud = b
	}
	if ch := c.Uint("channel"); ch != 0 {
		cfg.AdvChannel = uint8(ch)
	}
	if o := c.String("out"); o != "" {
		cfg.Output = o
	}
	return cfg, nil
}

func openOutput(path string) (io.Writer, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create %s", path)
	}
	return f, nil
}
