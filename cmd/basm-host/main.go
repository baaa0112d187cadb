// Command basm-host runs one function of a basm guest module.
//
//	basm-host -wasm guest.wasm -func greet -input '{"name":"bob"}' -secret '{}'
//	basm-host -wasm guest.wasm -describe
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/basm-dev/basm-sdk-go/application/config"
	"github.com/basm-dev/basm-sdk-go/domain/entities"
	"github.com/basm-dev/basm-sdk-go/domain/ports"
	"github.com/basm-dev/basm-sdk-go/host"
	"github.com/basm-dev/basm-sdk-go/hostfuncs"
	"github.com/basm-dev/basm-sdk-go/infrastructure/attestlog"
)

var version = "dev"

type options struct {
	configPath     string
	wasmFile       string
	funcName       string
	input          string
	secret         string
	measurements   string
	devAttestation bool
	describe       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.wasmFile, "wasm", "", "Path to guest module")
	flag.StringVar(&opts.funcName, "func", "", "Guest function to invoke")
	flag.StringVar(&opts.input, "input", "{}", "Input JSON, or @file to read it from a file")
	flag.StringVar(&opts.secret, "secret", "{}", "Secret JSON, or @file to read it from a file")
	flag.StringVar(&opts.measurements, "measurements", "", "YAML file of enclave measurements the host allows")
	flag.BoolVar(&opts.devAttestation, "dev-attestation", false, "Accept unsigned development attestations")
	flag.BoolVar(&opts.describe, "describe", false, "Print the guest manifest as YAML and exit")
	flag.Parse()

	if opts.wasmFile == "" || (opts.funcName == "" && !opts.describe) {
		fmt.Fprintln(os.Stderr, "Usage: basm-host -wasm <guest.wasm> -func <name> [-input json|@file] [-secret json|@file]")
		fmt.Fprintln(os.Stderr, "       basm-host -wasm <guest.wasm> -describe")
		os.Exit(2)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts, logger, os.Stdout); err != nil {
		var abort *host.AbortError
		if errors.As(err, &abort) {
			logger.Error("guest aborted", zap.String("function", abort.Function), zap.String("reason", abort.Console))
			os.Exit(int(abort.ExitCode))
		}
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func run(ctx context.Context, cfg *config.HostConfig, opts options, logger *zap.Logger, out io.Writer) error {
	wasmBytes, err := os.ReadFile(opts.wasmFile)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	registry, closeStore, err := newRegistry(cfg, opts, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	exec, err := host.NewExecutor(ctx,
		host.WithHostFunctions(registry),
		host.WithLogger(logger),
		host.WithInstanceReuse(cfg.Host.ReuseInstances),
		host.WithSchemaValidation(cfg.Host.ValidateInput),
		host.WithMemoryLimitPages(cfg.Host.MemoryPages),
		host.WithMaxRequestSize(cfg.Host.MaxRequestSize),
		host.WithModuleName(cfg.Host.ModuleName),
	)
	if err != nil {
		return err
	}
	defer func() { _ = exec.Close(ctx) }()

	name := strings.TrimSuffix(filepath.Base(opts.wasmFile), filepath.Ext(opts.wasmFile))
	mod, err := exec.Compile(ctx, name, wasmBytes)
	if err != nil {
		return err
	}

	logger.Info("guest module loaded", zap.String("module", name), zap.String("run", exec.RunID()), zap.String("version", version))

	if opts.describe {
		manifest, err := mod.Describe(ctx)
		if err != nil {
			return err
		}
		return writeManifest(out, manifest)
	}

	input, err := readArg(opts.input)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	secret, err := readArg(opts.secret)
	if err != nil {
		return fmt.Errorf("secret: %w", err)
	}

	result, err := mod.Invoke(ctx, opts.funcName, input, secret)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(result))
	return err
}

func newRegistry(cfg *config.HostConfig, opts options, logger *zap.Logger) (*hostfuncs.HandlerRegistry, func(), error) {
	var verifier hostfuncs.Verifier = hostfuncs.VerifierFunc(func(context.Context, entities.AttestationRequest) (entities.AttestationOutcome, error) {
		return entities.AttestationOutcome{}, host.ErrAttestationUnavailable
	})
	if opts.devAttestation {
		logger.Warn("accepting unsigned development attestations")
		verifier = hostfuncs.DevelopmentVerifier()
	}
	if opts.measurements != "" {
		allowed, err := config.LoadMeasurements(opts.measurements)
		if err != nil {
			return nil, nil, err
		}
		verifier = hostfuncs.RestrictMeasurements(verifier, allowed)
	}

	var store ports.AttestationLog
	closeStore := func() {}
	if cfg.AttestationLog.Backend != "none" {
		s, err := attestlog.Open(cfg.AttestationLog.Name, cfg.AttestationLog.Backend, cfg.AttestationLog.Dir)
		if err != nil {
			return nil, nil, err
		}
		store = s
		closeStore = func() { _ = s.Close() }
	}

	registry, err := hostfuncs.NewRegistry(
		hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware(), hostfuncs.LoggingMiddleware(logger)),
		hostfuncs.WithBundle(hostfuncs.DefaultBundle(logger, verifier, store,
			hostfuncs.WithHTTPRequestTimeout(cfg.HTTP.Timeout),
			hostfuncs.WithHTTPMaxBodySize(cfg.HTTP.MaxBodySize),
			hostfuncs.WithHTTPMaxRedirects(cfg.HTTP.MaxRedirects),
			hostfuncs.WithHTTPFollowRedirects(cfg.HTTP.FollowRedirects),
		)),
	)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return registry, closeStore, nil
}

// readArg returns the flag value, or the contents of the file it names with a leading @.
func readArg(value string) ([]byte, error) {
	if path, ok := strings.CutPrefix(value, "@"); ok {
		return os.ReadFile(path)
	}
	return []byte(value), nil
}

// manifestView is the YAML shape of a manifest: schemas are decoded so they print as
// nested YAML instead of raw bytes.
type manifestView struct {
	SDKVersion string         `yaml:"sdk_version"`
	Functions  []functionView `yaml:"functions"`
}

type functionView struct {
	Name         string `yaml:"name"`
	InputSchema  any    `yaml:"input_schema,omitempty"`
	SecretSchema any    `yaml:"secret_schema,omitempty"`
}

func writeManifest(out io.Writer, manifest entities.Manifest) error {
	view := manifestView{SDKVersion: manifest.SDKVersion}
	for _, fn := range manifest.Functions {
		fv := functionView{Name: fn.Name}
		if err := decodeSchema(fn.InputSchema, &fv.InputSchema); err != nil {
			return fmt.Errorf("input schema of %s: %w", fn.Name, err)
		}
		if err := decodeSchema(fn.SecretSchema, &fv.SecretSchema); err != nil {
			return fmt.Errorf("secret schema of %s: %w", fn.Name, err)
		}
		view.Functions = append(view.Functions, fv)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return err
	}
	return enc.Close()
}

func decodeSchema(raw json.RawMessage, v *any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
