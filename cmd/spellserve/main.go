// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the SpellServe word finder: an HTTP service, an IPC
server and a CLI [DBG] over one dictionary.

Given a pool of letters, SpellServe lists every dictionary word that can be
spelled from it, optionally borrowing up to two letters that are not in the
pool. Words are grouped by Scrabble score (or by length when scoring is off).

# Usage

Serve HTTP on :8888 with the word list next to the binary:

	spellserve

Use another word list, fetched over HTTP, and enable debug logs:

	spellserve -dict https://example.com/words.txt -d

Run in CLI mode for interactive testing:

	spellserve -c

Serve msgpack frames on stdin/stdout for an embedding process:

	spellserve -ipc

# Queries

	GET /cat?distance=0

	{"word": "CAT", "words": {"5": ["ACT", "CAT"], "2": ["AT", "TA"]}}

The distance is the number of letters a word may use beyond the pool and
must be 0, 1 or 2.

# Caching

Results are kept in a BadgerDB store for an hour. While one request computes
a result, identical requests wait for it instead of computing it again. The
store lives in memory unless cache.dir is set, and is flushed at startup so
results from an older word list are never served.

# Configuration

Runtime configuration lives in a TOML file, created with defaults on first
run at ~/.config/spellserve/config.toml:

	[server]
	addr = ":8888"
	requests_per_second = 100.0
	burst = 200
	max_letters = 60

	[dict]
	path = "OWL2.txt"
	scoring = true

	[cache]
	enabled = true
	dir = ""
	pending_ttl = "3s"
	ready_ttl = "1h0m0s"

# Command Line Flags

	-config string
	    Path to config file (default: user config dir)
	-dict string
	    Word list file or http(s) URL (default from config)
	-addr string
	    HTTP listen address (default from config)
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-ipc
	    Serve msgpack IPC on stdin/stdout instead of HTTP
	-no-cache
	    Compute every query directly
	-version
	    Show current version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bastiangx/spellserve/internal/cli"
	"github.com/bastiangx/spellserve/internal/logger"
	"github.com/bastiangx/spellserve/internal/utils"
	"github.com/bastiangx/spellserve/pkg/cache"
	"github.com/bastiangx/spellserve/pkg/config"
	"github.com/bastiangx/spellserve/pkg/dictionary"
	"github.com/bastiangx/spellserve/pkg/ipc"
	"github.com/bastiangx/spellserve/pkg/server"
	"github.com/bastiangx/spellserve/pkg/spell"
	"github.com/bastiangx/spellserve/pkg/store"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

const (
	Version = "0.1.0-beta"
	gh      = "https://github.com/bastiangx/spellserve"
)

// sigContext returns a context cancelled on SIGINT or SIGTERM. A second
// signal exits immediately.
func sigContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx, cancel
}

// main wires config, dictionary, cache and the selected front end.
// It does not implement logic for them and only manages the flow.
func main() {
	ctx, cancel := sigContext()
	defer cancel()

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to config file (default: user config dir)")
	dictSrc := flag.String("dict", "", "Word list file or http(s) URL (default from config)")
	addr := flag.String("addr", "", "HTTP listen address (default from config)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	ipcMode := flag.Bool("ipc", false, "Serve msgpack IPC on stdin/stdout instead of HTTP")
	noCache := flag.Bool("no-cache", false, "Compute every query directly")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// stdout carries frames in IPC mode and the prompt in CLI mode, so only
	// warnings are logged there unless debugging.
	level := log.InfoLevel
	if *ipcMode || *cliMode {
		level = log.WarnLevel
	}
	logger.Setup(*debugMode, level, "text")
	if !*debugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, usedConfig, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Log.Level != "" {
		level = logger.ParseLevel(cfg.Log.Level)
	}
	logger.Setup(*debugMode, level, cfg.Log.Format)
	log.Debugf("Using config: %s", config.GetActiveConfigPath(usedConfig))

	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *noCache {
		cfg.Cache.Enabled = false
	}

	src := resolveDictSource(*dictSrc, cfg.Dict)
	trie, stats := dictionary.Open(ctx, src, dictionary.DefaultFetchConfig())
	if trie.Len() == 0 {
		log.Warn("Dictionary is empty, every query will return no words")
	}

	opts := []spell.SpellerOption{spell.WithScoringVariant(cfg.Dict.Scoring)}
	cacheMode := "off"
	if cfg.Cache.Enabled {
		st, err := openStore(cfg.Cache)
		if err != nil {
			log.Warnf("Cache store unavailable, computing every query directly: %v", err)
		} else {
			defer st.Close()
			cacheMode = "memory"
			if st.Path() != "" {
				cacheMode = st.Path()
			}
			opts = append(opts, spell.WithCoalescer(cache.New(st, cache.Config{
				PendingTTL:   cfg.Cache.PendingTTL.Duration,
				ReadyTTL:     cfg.Cache.ReadyTTL.Duration,
				PollInterval: cfg.Cache.PollInterval.Duration,
			})))
		}
	}
	speller := spell.NewSpeller(trie, opts...)

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		log.SetReportTimestamp(false)
		handler := cli.NewInputHandler(speller, cfg.CLI.DefaultDistance, cfg.CLI.MaxPrint, cfg.Server.MaxLetters, os.Stdin, os.Stdout)
		if err := handler.Start(ctx); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	if *ipcMode {
		log.Debug("spawning IPC")
		srv := ipc.NewServer(speller, cfg.Server.MaxLetters, os.Stdin, os.Stdout)
		if err := srv.Start(ctx); err != nil {
			log.Fatalf("IPC error: %v", err)
		}
		return
	}

	srv := server.New(speller, cfg.Server)
	showStartupInfo(stats, speller, srv.Addr(), cacheMode)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Errorf("Shutdown: %v", err)
		}
	}
}

// resolveDictSource picks the flag, then the configured URL, then the
// configured path. Relative paths are searched for next to the binary.
func resolveDictSource(flagSrc string, dict config.DictConfig) string {
	src := flagSrc
	if src == "" {
		src = dict.URL
	}
	if src == "" {
		src = dict.Path
	}
	if src == "" || isRemote(src) {
		return src
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Warnf("Failed to initialize path resolver: %v", err)
		return src
	}
	return pathResolver.ResolveDictPath(src)
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// openStore opens the cache store and drops whatever an earlier run left.
func openStore(cc config.CacheConfig) (*store.Store, error) {
	sc := store.InMemoryConfig()
	if cc.Dir != "" {
		sc = store.DefaultConfig()
		sc.Path = cc.Dir
		sc.GCInterval = cc.GCInterval.Duration
	}
	// Badger is chatty at info; only its warnings surface unless debugging.
	badgerLevel := log.WarnLevel
	if log.GetLevel() == log.DebugLevel {
		badgerLevel = log.DebugLevel
	}
	sc.Logger = logger.NewWithConfig("badger", badgerLevel, false, true, log.TextFormatter)

	st, err := store.Open(sc)
	if err != nil {
		return nil, err
	}
	if err := st.Flush(); err != nil {
		st.Close()
		return nil, fmt.Errorf("flush cache store: %w", err)
	}
	return st, nil
}

func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ SpellServe ] Finds every word your letters can spell!")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(stats dictionary.LoadStats, speller *spell.Speller, addr, cacheMode string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	buckets := "length"
	if speller.Scoring() {
		buckets = "score"
	}

	println("============")
	println(" SpellServe ")
	println("============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("dictionary: ( %s ) %d words, %d nodes, %d skipped", stats.Source, speller.Trie().Len(), speller.Trie().Nodes(), stats.Skipped)
	log.Infof("buckets by: ( %s )", buckets)
	log.Infof("cache: ( %s )", cacheMode)
	log.Infof("listening: ( %s )", addr)
	println("============")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
