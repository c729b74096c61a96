package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/chesterccchen/synthetic-handwriting-data/generator"
	"github.com/chesterccchen/synthetic-handwriting-data/server"
	"github.com/chesterccchen/synthetic-handwriting-data/writer"
)

func main() {
	configPath := flag.String("config", "config.json", "生成配置 JSON 路径")
	serve := flag.String("serve", "", "预览服务监听地址（例如 :8080），留空则直接生成整批")
	verbose := flag.Bool("v", false, "输出详细日志")
	debug := flag.Bool("debug", false, "同时输出每个样本的排版计划 JSON")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	generator.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := generator.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	if *debug {
		cfg.PlanDebug = true
	}

	gen, err := generator.New(cfg)
	if err != nil {
		log.Fatalf("初始化生成器失败: %v", err)
	}

	if *serve != "" {
		srv := server.New(gen)
		log.Printf("预览服务: http://localhost%s/api/preview", *serve)
		if err := srv.Router().Run(*serve); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := run(gen, cfg); err != nil {
		log.Fatalf("生成失败: %v", err)
	}
}

// run 串联生成与写出，结束时打印汇总。
func run(gen *generator.Generator, cfg generator.Config) error {
	w, err := writer.New(cfg.OutputDir, cfg.HOCR)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := gen.Run(ctx, w.Write)
	if report != nil {
		fmt.Printf("完成：生成 %d / %d，跳过 %d\n", report.Generated, report.Requested, report.Skipped)
		for kind, n := range report.Failures {
			fmt.Printf("  %s: %d\n", kind, n)
		}
	}
	return err
}
