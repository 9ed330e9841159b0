// Package main 提供爬虫命令行入口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	crawler "github.com/dep2p/go-crawler"
	"github.com/dep2p/go-crawler/internal/app"
	"github.com/dep2p/go-crawler/internal/util/logger"
)

var log = logger.Logger("cmd")

// errNoBootnodes 没有任何引导地址时爬虫无事可做
var errNoBootnodes = errors.New("no bootnodes configured")

func main() {
	if err := run(context.Background(), os.Args[1:], os.LookupEnv, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, lookup func(string) (string, bool), stdout io.Writer) error {
	fs := flag.NewFlagSet("crawler", flag.ContinueOnError)
	f := bindFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	// 显示版本
	if f.showVersion {
		printVersion(stdout)
		return nil
	}

	// 显示帮助
	if f.showHelp {
		fs.SetOutput(stdout)
		fs.Usage()
		return nil
	}

	cfg, err := buildConfig(fs, f, lookup)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	// 只输出合并后的配置
	if f.printConfig {
		data, err := cfg.ToJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(data))
		return err
	}

	if len(cfg.Crawler.Bootnodes) == 0 {
		return fmt.Errorf("配置错误: %w", errNoBootnodes)
	}

	fmt.Fprintf(stdout, "📦 %s\n", crawler.VersionInfo())
	log.Info("启动爬虫", "version", crawler.Version, "commit", crawler.GitCommit, "buildDate", crawler.BuildDate)

	b := app.NewBootstrap(cfg,
		app.WithFxDebug(f.fxDebug),
		app.WithLogFile(f.logFile),
		app.WithLogLevel(f.logLevel),
	)
	a, err := app.RunApp(ctx, b)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	fmt.Fprintln(stdout, "爬虫已启动，按 Ctrl+C 退出")
	a.Wait(ctx)
	return a.Stop()
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "crawler %s\n", crawler.Version)
	if crawler.GitCommit != "" {
		fmt.Fprintf(w, "  commit: %s\n", crawler.GitCommit)
	}
	if crawler.BuildDate != "" {
		fmt.Fprintf(w, "  built:  %s\n", crawler.BuildDate)
	}
}
