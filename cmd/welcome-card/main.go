// 命令行入口：在终端生成一次欢迎卡片，缓存保存在本地 JSON 文件中
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ip-welcome/internal/cache"
	"ip-welcome/internal/config"
	"ip-welcome/internal/controller"
	"ip-welcome/internal/logger"
	"ip-welcome/internal/render"
	"ip-welcome/internal/resolver"
	"ip-welcome/internal/welcome"
)

type options struct {
	path      string
	ip        string
	cacheFile string
	retry     bool
	asJSON    bool
	noNotice  bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	config.LoadEnv()
	logger.Setup()
	cfg := config.FromEnv()
	opts := options{path: "/", cacheFile: cfg.CacheFile}

	root := &cobra.Command{
		Use:          "welcome-card",
		Short:        "Render the visitor welcome card for the current network",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cfg, opts, out)
		},
	}
	f := root.Flags()
	f.StringVar(&opts.path, "path", opts.path, "page path used by the home-page-only gate")
	f.StringVar(&opts.ip, "ip", "", "visitor IPv4 (default: egress address via the echo service)")
	f.BoolVar(&opts.retry, "retry", false, "clear the cached location before resolving")
	f.BoolVar(&opts.asJSON, "json", false, "print the outcome as JSON instead of HTML")
	f.BoolVar(&opts.noNotice, "no-announcements", false, "simulate a page without announcement cards")

	root.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the cached location",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache.NewStore(cache.NewFileKV(opts.cacheFile), cache.Key, cfg.CacheDuration, nil).Clear(cmd.Context())
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "css",
		Short: "Print the welcome card stylesheet",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = io.WriteString(out, render.Styles)
		},
	})
	root.PersistentFlags().StringVar(&opts.cacheFile, "cache-file", opts.cacheFile, "JSON file backing the location cache")
	return root
}

func run(cmd *cobra.Command, cfg config.Config, opts options, out io.Writer) error {
	ctx := cmd.Context()
	table := welcome.DefaultTable()
	if cfg.GreetingsPath != "" {
		t, err := welcome.LoadTable(cfg.GreetingsPath)
		if err != nil {
			return fmt.Errorf("load greetings: %w", err)
		}
		table = t
	}
	res, closeTiers := resolver.FromConfig(cfg)
	defer closeTiers()
	ctl := controller.New(cfg, cache.NewFileKV(opts.cacheFile), res, table)

	var target render.Target = render.WriterTarget{W: out, OnlyFinal: true}
	if opts.asJSON {
		target = &render.Buffer{}
	}
	page := &controller.Page{Path: opts.path, Announcements: !opts.noNotice, Target: target}
	runFn := ctl.Run
	if opts.retry {
		runFn = ctl.Retry
	}
	o, err := runFn(ctx, page, opts.ip)
	if page.Removed {
		logger.L().Info("welcome_announcement_removed", "path", opts.path)
	}
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(o); encErr != nil {
			return encErr
		}
	}
	return err
}
