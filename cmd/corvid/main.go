// Command corvid runs the voice-assistant core: provider registry scan,
// pipeline engine, and the HTTP/WS surface, or one of the operator
// subcommands used in CI/deploy pipelines (spec §13).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/corvid-assistant/corvid/internal/config"
	"github.com/corvid-assistant/corvid/internal/coordinator"
	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/donation"
	"github.com/corvid-assistant/corvid/internal/httpapi"
	"github.com/corvid-assistant/corvid/internal/pipeline"
	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/internal/registry"
	"github.com/corvid-assistant/corvid/internal/session"
	"github.com/corvid-assistant/corvid/internal/session/pgsink"
	"github.com/corvid-assistant/corvid/internal/telemetry"
	"github.com/corvid-assistant/corvid/internal/textproc"
	corvidio "github.com/corvid-assistant/corvid/pkg/io"
	"github.com/corvid-assistant/corvid/pkg/io/registry/memoryregistry"
	"github.com/corvid-assistant/corvid/pkg/logger"

	// Built-in providers register themselves into the global manifest
	// from their package init(), mirroring the teacher's adapter-map
	// package-level registration style.
	_ "github.com/corvid-assistant/corvid/internal/providers/asr/openai"
	_ "github.com/corvid-assistant/corvid/internal/providers/asr/remote"
	_ "github.com/corvid-assistant/corvid/internal/providers/asr/whispercpp"
	_ "github.com/corvid-assistant/corvid/internal/providers/audio/local"
	_ "github.com/corvid-assistant/corvid/internal/providers/llm/gemini"
	_ "github.com/corvid-assistant/corvid/internal/providers/llm/ollama"
	_ "github.com/corvid-assistant/corvid/internal/providers/llm/openai"
	_ "github.com/corvid-assistant/corvid/internal/providers/wakeword/builtin"
	_ "github.com/corvid-assistant/corvid/pkg/io/tts/piper"
)

// Exit codes per spec §13.
const (
	exitOK                  = 0
	exitGeneralError        = 1
	exitConfigInvalid       = 2
	exitProviderUnavailable = 3
	exitDonationInvalid     = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "run":
		return cmdRun(args)
	case "check-deps":
		return cmdCheckDeps(args)
	case "validate-config":
		return cmdValidateConfig(args)
	case "validate-donations":
		return cmdValidateDonations(args)
	default:
		fmt.Fprintf(os.Stderr, "corvid: unknown command %q (want run|check-deps|validate-config|validate-donations)\n", cmd)
		return exitGeneralError
	}
}

func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "", "path to the TOML config file (defaults to the CORVID_CONFIG/CORVID_ENV discovery used by corvid run)")
}

func loadSettings(path string) (*config.Settings, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func cmdValidateConfig(args []string) int {
	fs := flag.NewFlagSet("validate-config", flag.ContinueOnError)
	path := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return exitGeneralError
	}

	settings, err := loadSettings(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corvid: config load failed: %v\n", err)
		return exitConfigInvalid
	}
	if err := config.Validate(settings); err != nil {
		fmt.Fprintf(os.Stderr, "corvid: config invalid: %v\n", err)
		return exitConfigInvalid
	}
	fmt.Println("config valid")
	return exitOK
}

func cmdValidateDonations(args []string) int {
	fs := flag.NewFlagSet("validate-donations", flag.ContinueOnError)
	path := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return exitGeneralError
	}

	settings, err := loadSettings(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corvid: config load failed: %v\n", err)
		return exitConfigInvalid
	}

	log := logger.BuildLogger(settings.Core.Debug)
	if _, err := donation.NewStore(settings.Intents.DonationsDir, settings.Intents.MatchThreshold, settings.Intents.StrictSchema, log); err != nil {
		fmt.Fprintf(os.Stderr, "corvid: donations invalid: %v\n", err)
		return exitDonationInvalid
	}
	fmt.Println("donations valid")
	return exitOK
}

func cmdCheckDeps(args []string) int {
	fs := flag.NewFlagSet("check-deps", flag.ContinueOnError)
	path := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return exitGeneralError
	}

	settings, err := loadSettings(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corvid: config load failed: %v\n", err)
		return exitConfigInvalid
	}
	if err := config.Validate(settings); err != nil {
		fmt.Fprintf(os.Stderr, "corvid: config invalid: %v\n", err)
		return exitConfigInvalid
	}

	log := logger.BuildLogger(settings.Core.Debug)
	bank := registry.NewBank(provider.Global(), log)
	bank.ScanAll(settings)

	missing := 0
	for kind, reg := range map[string]*registry.Registry{
		string(provider.KindASR): bank.ASR, string(provider.KindTTS): bank.TTS,
		string(provider.KindAudio): bank.Audio, string(provider.KindLLM): bank.LLM,
		string(provider.KindWakeWord): bank.WakeWord,
	} {
		name, ok := settings.DefaultProviderName(kind)
		if !ok {
			continue
		}
		if _, err := reg.Get(name); err != nil {
			fmt.Fprintf(os.Stderr, "corvid: default provider %s.%s unavailable: %v\n", kind, name, err)
			missing++
		}
	}
	if missing > 0 {
		return exitProviderUnavailable
	}
	fmt.Println("all configured default providers available")
	return exitOK
}

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	path := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return exitGeneralError
	}

	store, err := openConfigStore(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corvid: %v\n", err)
		return exitConfigInvalid
	}
	defer store.Close()
	settings := store.Get()

	log := logger.BuildLogger(settings.Core.Debug)
	log.Infow("corvid starting", "env", settings.Core.Env)

	metrics, metricsHandler, err := buildTelemetry()
	if err != nil {
		log.With("error", err).Errorw("failed to build telemetry pipeline")
		return exitGeneralError
	}

	bank := registry.NewBank(provider.Global(), log)
	bank.ScanAll(settings)
	bank.AttachTo(store)

	asr := coordinator.NewASR(coordinator.New(bank.ASR, log, firstOr(settings, string(provider.KindASR)), nil))
	tts := coordinator.NewTTS(coordinator.New(bank.TTS, log, firstOr(settings, string(provider.KindTTS)), nil))
	audio := coordinator.NewAudio(coordinator.New(bank.Audio, log, firstOr(settings, string(provider.KindAudio)), nil))
	llm := coordinator.NewLLM(coordinator.New(bank.LLM, log, firstOr(settings, string(provider.KindLLM)), nil))
	var wakeWord *coordinator.WakeWord
	if settings.WakeWord.Enabled {
		wakeWord = coordinator.NewWakeWord(coordinator.New(bank.WakeWord, log, firstOr(settings, string(provider.KindWakeWord)), nil))
	}

	donations, err := donation.NewStore(settings.Intents.DonationsDir, settings.Intents.MatchThreshold, settings.Intents.StrictSchema, log)
	if err != nil {
		log.With("error", err).Errorw("failed to load donations")
		return exitDonationInvalid
	}

	sessions := session.NewStore(32, 30*time.Minute)
	if settings.SessionStore.Backend == "postgres" {
		sink, err := pgsink.New(context.Background(), settings.SessionStore.DSN)
		if err != nil {
			log.With("error", err).Errorw("failed to open postgres session sink")
			return exitGeneralError
		}
		defer sink.Close()
		sessions.SetSink(sink)
	}
	processor := textproc.BuildProcessor(settings.TextProcessing)

	stages := pipeline.StageSet{
		ASR:       asr,
		TTS:       tts,
		Audio:     audio,
		WakeWord:  wakeWord,
		Processor: processor,
		Donations: donations,
		Sessions:  sessions,
		Handlers:  pipeline.NewHandlerRegistry(),
		Metrics:   metrics,
	}
	engine := pipeline.New(log, metrics)

	deviceRegistry := memoryregistry.New()

	deps := httpapi.Dependencies{
		Config:         settings,
		Log:            log,
		Engine:         engine,
		VoiceWorkflow:  pipeline.NewVoiceWorkflow(stages),
		TextWorkflow:   pipeline.NewTextWorkflow(stages),
		ASR:            asr,
		TTS:            tts,
		Audio:          audio,
		LLM:            llm,
		WakeWord:       wakeWord,
		Sessions:       sessions,
		Donations:      donations,
		DeviceRegistry: deviceRegistry,
		Publisher:      corvidio.New(deviceRegistry),
	}

	router := httpapi.NewRouter(deps)
	router.GET("/metrics", gin.WrapH(metricsHandler))

	addr := settings.WebAPI.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		log.Infow("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.With("error", err).Fatalw("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.With("error", err).Errorw("server forced to shutdown")
		return exitGeneralError
	}
	log.Infow("shutdown complete")
	return exitOK
}

func openConfigStore(path string) (*config.Store, error) {
	if path == "" {
		if p := os.Getenv("CORVID_CONFIG"); p != "" {
			path = p
		} else {
			env := os.Getenv("CORVID_ENV")
			if env == "" {
				env = "dev"
			}
			path = "config_" + env + ".toml"
		}
	}
	return config.NewStore(path, logger.BuildLogger(false))
}

func firstOr(settings *config.Settings, kind string) string {
	if name, ok := settings.DefaultProviderName(kind); ok {
		return name
	}
	return ""
}

// buildTelemetry wires the real SDK-backed MeterProvider telemetry.New
// expects, scraped through the standard prometheus client's handler
// (spec §11 domain stack: otel/sdk + otel/exporters/prometheus).
func buildTelemetry() (*telemetry.Metrics, http.Handler, error) {
	exporter, err := otelprometheus.New()
	if err != nil {
		return nil, nil, corerrors.Wrap(corerrors.Internal, "failed to build prometheus exporter", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)

	metrics, err := telemetry.New(mp)
	if err != nil {
		return nil, nil, corerrors.Wrap(corerrors.Internal, "failed to build metrics instruments", err)
	}
	return metrics, promhttp.Handler(), nil
}
