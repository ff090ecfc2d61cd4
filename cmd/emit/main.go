// Package main is a command-line harness for the emitter dispatcher:
// it loads a declarative config, binds Lua script listeners, triggers the
// named events and prints the resulting parameters.
//
// Usage:
//
//	emit -config events.toml -script 'user.*=audit.lua' user.created user.deleted
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/emitter"
	"github.com/dshills/emitter/config"
	"github.com/dshills/emitter/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
)

func main() {
	os.Exit(run())
}

// bindings collects repeated -script pattern=path flags.
type bindings []string

func (b *bindings) String() string { return strings.Join(*b, ",") }

func (b *bindings) Set(v string) error {
	*b = append(*b, v)
	return nil
}

func run() int {
	var (
		configPath  string
		scriptFlags bindings
		target      string
		params      bindings
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "TOML or YAML config file with event templates")
	flag.Var(&scriptFlags, "script", "listener binding as event=path.lua (repeatable)")
	flag.StringVar(&target, "target", "", "target label set on triggered events")
	flag.Var(&params, "param", "event parameter as key=value (repeatable)")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println("emit", version)
		return 0
	}

	events := flag.Args()
	if len(events) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no events to trigger")
		flag.Usage()
		return 2
	}

	m := emitter.NewManager()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if cfg != nil {
		if err := cfg.Apply(m); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	listeners, err := bindScripts(m, cfg, scriptFlags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		for _, l := range listeners {
			_ = l.Close()
		}
	}()

	p := emitter.NewParams()
	for _, kv := range params {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "Error: -param %q is not key=value\n", kv)
			return 2
		}
		p.Set(key, value)
	}

	ctx := context.Background()
	for _, name := range events {
		var tgt any
		if target != "" {
			tgt = target
		}
		// With no -param flags, leave template params intact.
		var eventParams *emitter.Params
		if p.Len() > 0 {
			eventParams = p.Clone()
		}
		evt, err := m.Trigger(ctx, name, tgt, eventParams)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: trigger %s: %v\n", name, err)
			return 1
		}
		out, err := json.Marshal(evt.Params())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: encoding params for %s: %v\n", name, err)
			return 1
		}
		fmt.Printf("%s\t%s\t%s\n", evt.Name(), evt.ID(), out)
	}
	return 0
}

// loadConfig picks the loader from the file extension.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, nil
	}
	switch filepath.Ext(path) {
	case ".toml":
		return config.NewTOMLLoader(path).Load()
	case ".yaml", ".yml":
		return config.NewYAMLLoader(path).Load()
	}
	return nil, fmt.Errorf("unsupported config format: %s", path)
}

// bindScripts compiles each event=path binding and attaches the listener,
// using the config's declared priority for the event when one exists.
func bindScripts(m *emitter.Manager, cfg *config.Config, args bindings) ([]*script.Listener, error) {
	var listeners []*script.Listener
	for _, arg := range args {
		event, path, ok := strings.Cut(arg, "=")
		if !ok {
			return listeners, fmt.Errorf("-script %q is not event=path", arg)
		}
		l, err := script.NewFile(path)
		if err != nil {
			return listeners, err
		}
		listeners = append(listeners, l)

		priority := emitter.PriorityNormal
		if cfg != nil {
			priority = cfg.PriorityFor(event)
		}
		if !m.Attach(event, l, priority) {
			return listeners, fmt.Errorf("cannot attach script to event %q", event)
		}
	}
	return listeners, nil
}
