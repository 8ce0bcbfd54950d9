// Йоу, чат! Сьогодні ми будемо розбирати як запустити ядро ігрового сервера!
// Це ліцензія AGPL - означає що наш код має бути відкритим, і всі модифікації теж.

// Пакет main - це точка входу нашої програми, звідси все починається!
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"SagaCore/game"
	"SagaCore/world"
)

// isDebug - флаг який можна включити при запуску через -debug
// В дебаг режимі буде більше логів і інформації для розробки
var (
	isDebug    = flag.Bool("debug", false, "Enable debug log output")
	configPath = flag.String("config", "config.toml", "Path to the server config")
)

func main() {
	// Парсимо командний рядок
	flag.Parse()

	// Конфіг читаємо першим: в ньому налаштування логів
	config, cfgErr := readConfig(*configPath)
	logger := newLogger(*isDebug || config.Log.Debug, config.Log)

	// Тут ми закриваємо логер, щоб всі логи записались на диск
	defer func(logger *zap.Logger) {
		// stdout/stderr не вміють Sync на деяких системах, це не помилка
		_ = logger.Sync()
	}(logger)

	logger.Info("Server start")
	printBuildInfo(logger)
	defer logger.Info("Server exit")

	if cfgErr != nil {
		logger.Error("Read config fail", zap.Error(cfgErr))
		return
	}

	// Фізика світу: tuning.yaml або значення за замовчуванням
	tuning := world.DefaultTuning()
	if config.TuningFile != "" {
		var err error
		if tuning, err = world.LoadTuning(config.TuningFile); err != nil {
			logger.Error("Read tuning fail", zap.String("path", config.TuningFile), zap.Error(err))
			return
		}
	}

	g, err := game.NewGame(logger, config, tuning)
	if err != nil {
		logger.Error("Init game fail", zap.Error(err))
		return
	}

	// Ctrl+C або SIGTERM - акуратно зупиняємось
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := g.Start(ctx); err != nil {
		logger.Error("Server listening error", zap.Error(err))
		return
	}
	<-ctx.Done()
	if err := g.Stop(config.ShutdownTimeout.Duration); err != nil {
		logger.Error("Server stop error", zap.Error(err))
	}
}

// newLogger створює zap логер. Якщо в конфігу є файл - логи йдуть
// ще й туди, з ротацією через lumberjack.
func newLogger(debugMode bool, cfg game.LogConfig) *zap.Logger {
	var logger *zap.Logger
	// Якщо включений дебаг - використовуємо розширені логи
	if debugMode {
		logger = unwrap(zap.NewDevelopment())
	} else {
		// Інакше - швидкі продакшен логи
		logger = unwrap(zap.NewProduction())
	}
	if cfg.File == "" {
		return logger
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // days
		Compress:   cfg.Compress,
	}
	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	level := zapcore.InfoLevel
	if debugMode {
		level = zapcore.DebugLevel
	}
	fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(lj), level)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}

// printBuildInfo виводить інформацію про збірку
// Це допомагає знайти проблеми з версіями бібліотек
func printBuildInfo(logger *zap.Logger) {
	binaryInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	settings := make(map[string]string)
	for _, v := range binaryInfo.Settings {
		settings[v.Key] = v.Value
	}
	logger.Debug("Build info", zap.Any("settings", settings))
}

// readConfig читає конфіг з файлу поверх game.DefaultConfig.
// Файлу немає - працюємо на значеннях за замовчуванням.
// Якщо знайдемо невідомі налаштування - повернемо помилку
func readConfig(path string) (game.Config, error) {
	c := game.DefaultConfig()
	meta, err := toml.DecodeFile(path, &c)
	if errors.Is(err, fs.ErrNotExist) {
		return game.DefaultConfig(), nil
	}
	if err != nil {
		return game.DefaultConfig(), err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		var err errUnknownConfig
		for _, key := range undecoded {
			err = append(err, key.String())
		}
		return game.DefaultConfig(), err
	}

	return c, nil
}

// errUnknownConfig - це список невідомих налаштувань
// Коли знаходимо щось чого не очікували в конфігу
type errUnknownConfig []string

func (e errUnknownConfig) Error() string {
	return "unknown config keys: [" + strings.Join(e, ", ") + "]"
}

// unwrap - хелпер функція яка спрощує обробку помилок
// Якщо є помилка - відразу панікуємо
func unwrap[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
