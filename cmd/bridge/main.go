package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/brutella/hc/log"
	"github.com/brutella/hc/util"
	"github.com/urfave/cli/v2"

	toofar "github.com/cloudkucooland/toofar-sonoff"
	"github.com/cloudkucooland/toofar-sonoff/config"
	"github.com/cloudkucooland/toofar-sonoff/homecontrol"
	"github.com/cloudkucooland/toofar-sonoff/sonoff"
)

func main() {
	var dir, file string
	var debug bool

	app := cli.App{
		Name:  "toofar-sonoff",
		Usage: "HomeKit bridge for Sonoff relays",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Value:       "config",
				Usage:       "configuration directory",
				Destination: &dir,
			},
			&cli.StringFlag{
				Name:        "config",
				Value:       "server.json",
				Usage:       "configuration file",
				Destination: &file,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "enable debug logging",
				Destination: &debug,
			},
		},
		Before: func(c *cli.Context) error {
			if debug {
				log.Debug.Enable()
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return run(dir, file, debug)
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the bridge (default)",
				Action: func(c *cli.Context) error {
					return run(dir, file, debug)
				},
			},
			{
				Name:  "probe",
				Usage: "query the state of every configured device",
				Action: func(c *cli.Context) error {
					conf, err := loadConfig(dir, file)
					if err != nil {
						return err
					}
					return probe(c.Context, conf)
				},
			},
			{
				Name:  "cache",
				Usage: "list the cached accessories",
				Action: func(c *cli.Context) error {
					conf, err := loadConfig(dir, file)
					if err != nil {
						return err
					}
					return listCache(conf)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Info.Panic(err)
	}
}

func loadConfig(dir, file string) (*config.Config, error) {
	fulldir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to get config directory %s: %w", dir, err)
	}
	conf, err := config.Load(filepath.Join(fulldir, file))
	if err != nil {
		return nil, err
	}
	conf.ConfigDir = fulldir
	return conf, nil
}

func run(dir, file string, debug bool) error {
	conf, err := loadConfig(dir, file)
	if err != nil {
		return err
	}

	d, err := toofar.Bootstrap(conf, debug)
	if err != nil {
		return err
	}

	// wait for signal to shut down
	sigch := make(chan os.Signal, 3)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGHUP, os.Interrupt)

	sig := <-sigch
	log.Info.Printf("shutdown requested by signal: %s", sig)
	d.Shutdown()
	return nil
}

func probe(ctx context.Context, conf *config.Config) error {
	client := sonoff.NewClient()
	for i, d := range conf.Devices {
		url := sonoff.StatusURL(sonoff.BaseURL(d.Hostname, d.Password))
		res := client.SendRequest(ctx, url)
		key := sonoff.PowerKey(d.Relay)
		state, ok := res.Lookup(key)
		switch {
		case res.Outcome != sonoff.Success:
			fmt.Printf("%d\t%s\t%s\t%s: %v\n", i, d.Name, d.Hostname, res.Outcome, res.Err)
		case !ok:
			fmt.Printf("%d\t%s\t%s\tno %s in response\n", i, d.Name, d.Hostname, key)
		default:
			fmt.Printf("%d\t%s\t%s\t%s\n", i, d.Name, d.Hostname, state)
		}
	}
	return nil
}

func listCache(conf *config.Config) error {
	storage, err := util.NewFileStorage(toofar.StoragePath(conf))
	if err != nil {
		return err
	}
	records, err := homecontrol.NewCache(storage).Load()
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("%d\t%s\t%s\t%s/%s\n", r.Index, r.DisplayName, r.UUID, r.Plugin, r.Platform)
	}
	return nil
}
