package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/daniil11ru/tracksync/cli/bridge/config"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configFilePath := ""
	flag.StringVar(&configFilePath, "c", "", "путь к конфигу (необязательно, значения можно задать переменными окружения)")
	flag.Parse()

	conf, err := config.New(configFilePath)
	if err != nil {
		log.Fatalf("Не удалось получить конфиг: %v", err)
		return
	}

	configureLogging(conf)

	if err := conf.Validate(); err != nil {
		log.Fatalf("Некорректная конфигурация: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, conf)
	if err != nil {
		log.Fatalf("Не удалось инициализировать приложение: %v", err)
		return
	}

	if err := a.Start(); err != nil {
		log.Fatalf("Не удалось запустить приложение: %v", err)
		return
	}

	<-ctx.Done()
	log.Info("Получен сигнал остановки")
	a.Shutdown()
}

func configureLogging(conf config.Settings) {
	log.SetLevel(conf.GetLogLevel())

	consoleFmt := &log.TextFormatter{ForceColors: true, FullTimestamp: false}
	log.SetFormatter(consoleFmt)
	log.SetOutput(os.Stdout)

	if conf.LogFilePath != "" {
		logDir := filepath.Dir(conf.LogFilePath)
		if _, err := os.Stat(logDir); os.IsNotExist(err) {
			if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
				log.Fatalf("Не получилось создать директорию для логов: %v", err)
			}
		}

		lumberjackLogger := &lumberjack.Logger{
			Filename:   conf.LogFilePath,
			MaxSize:    100,
			MaxBackups: 366,
			MaxAge:     conf.LogMaxAgeDays,
			Compress:   true,
		}

		fileFmt := &log.TextFormatter{DisableColors: true, FullTimestamp: true}
		hook := lfshook.NewHook(lfshook.WriterMap{
			log.PanicLevel: lumberjackLogger,
			log.FatalLevel: lumberjackLogger,
			log.ErrorLevel: lumberjackLogger,
			log.WarnLevel:  lumberjackLogger,
			log.InfoLevel:  lumberjackLogger,
			log.DebugLevel: lumberjackLogger,
			log.TraceLevel: lumberjackLogger,
		}, fileFmt)

		log.AddHook(hook)
	}
}
