package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"cvision/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "cvision:", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	writeConfig bool
	store       string
	storePath   string
	noEcho      bool
}

func parseArgs(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("cvision", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "settings file (default: user config dir)")
	fs.BoolVar(&o.writeConfig, "write-config", false, "write the effective settings to the settings file and exit")
	fs.StringVar(&o.store, "store", "", "log store backend: file, sqlite or none")
	fs.StringVar(&o.storePath, "log", "", "where the log is saved")
	fs.BoolVar(&o.noEcho, "no-echo", false, "do not echo messages back")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

// loadConfig resolves the settings file and applies command line overrides.
func loadConfig(o options) (config.Config, string, error) {
	path := o.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Config{}, "", err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, err
	}
	if o.store != "" {
		cfg.Store.Backend = o.store
	}
	if o.storePath != "" {
		cfg.Store.Path = o.storePath
	}
	if o.noEcho {
		cfg.Echo = false
	}
	return cfg, path, cfg.Validate()
}

func run(args []string) error {
	o, err := parseArgs(args)
	if err != nil {
		return err
	}
	cfg, path, err := loadConfig(o)
	if err != nil {
		return err
	}
	if o.writeConfig {
		if err := config.Write(path, cfg); err != nil {
			return err
		}
		fmt.Println("wrote", path)
		return nil
	}

	closeLog, err := redirectLog(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	return runTUI(cfg)
}

// redirectLog sends log output to path, or discards it, so nothing writes
// over the screen.
func redirectLog(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}
