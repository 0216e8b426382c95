package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/clarktrimble/sabot"

	"gridlite/config"
	"gridlite/store/duck"
	"gridlite/tui"
)

var (
	cfgPath = flag.String("config", "gridlite.yaml", "path of config file")
	sample  = flag.Bool("sample", false, "write a sample config and exit")
)

func main() {

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <file.json>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *sample {
		err := config.Sample(*cfgPath, 0644)
		check(err)
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := loadConfig(*cfgPath)
	check(err)

	logFile := cfg.OpenLog(os.Stderr)
	defer logFile.Close()

	lgr := &sabot.Sabot{Writer: logFile}
	ctx := lgr.WithFields(context.Background(), "app", "gridlite", "source", path)
	lgr.Info(ctx, "starting", "config", *cfgPath)

	dk, err := duck.New(lgr)
	check(err)
	defer dk.Close()

	err = dk.Load(ctx, path)
	check(err)

	records, err := dk.Records(ctx)
	check(err)

	if cfg.Pushdown {
		cfg.Grid.Hooks = dk.Hooks()
	}
	grid := cfg.Grid.New(lgr)
	defer grid.Close()

	if len(cfg.Columns) == 0 && !cfg.Grid.AutoGenerate {
		cfg.Columns, err = dk.Columns(ctx)
		check(err)
	}

	grid.SetData(ctx, records)
	err = cfg.Apply(ctx, grid)
	check(err)

	model := tui.New(ctx, grid, dk.Name(), lgr)
	_, err = tea.NewProgram(model).Run()
	if err != nil {
		lgr.Error(ctx, "program failed", err)
	}
	check(err)

	lgr.Info(ctx, "stopping")
}

func loadConfig(path string) (*config.Config, error) {

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func check(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %+v\n", err)
		os.Exit(1)
	}
}
