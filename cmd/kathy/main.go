package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"git.sr.ht/~heptal/kathy"
	"golang.org/x/term"
)

func main() {
	var configPath string
	var debug bool
	flag.StringVar(&configPath, "config", "", "path to the configuration file")
	flag.BoolVar(&debug, "debug", false, "show raw protocol data")
	flag.Parse()

	if configPath == "" {
		var err error
		configPath, err = kathy.DefaultConfigPath()
		if err != nil {
			panic(err)
		}
	}

	cfg, err := kathy.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load the required configuration file at %q: %s\n", configPath, err)
		os.Exit(1)
	}

	cfg.Debug = cfg.Debug || debug

	oldState, err := term.MakeRaw(0)
	if err != nil {
		panic(err)
	}
	defer term.Restore(0, oldState)

	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}

	app, err := kathy.NewApp(cfg, screen)
	if err != nil {
		term.Restore(0, oldState)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer app.Close()

	err = app.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
