// Command shoberctl inspects genomes, runs offline breeds and drives the
// garden service against the configured store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"shobergarden/internal/blob"
	"shobergarden/internal/config"
	"shobergarden/internal/core"
	"shobergarden/internal/telemetry"
	"shobergarden/pkg/breeding"
	"shobergarden/pkg/genome"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	exitFunc   = os.Exit
	loadConfig = config.Load
	serveHTTP  = func(srv *http.Server) error { return srv.ListenAndServe() }
)

var errUsage = errors.New("usage")

type processMetrics struct {
	registry *prometheus.Registry
	recorder *core.PrometheusMetricsRecorder
}

// sharedMetrics is the process registry: every service opened with
// SHOBER_METRICS=prometheus records into it and `metrics` serves it.
var sharedMetrics = sync.OnceValues(func() (*processMetrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return nil, err
	}
	return &processMetrics{registry: reg, recorder: rec}, nil
})

const usageText = `usage: shoberctl <command> [flags]

engine commands:
  decode <dna>                          decoded traits and render config
  generate [-gen0] [-n N] [-seed S]     random genomes, one per line
  breed -p1 DNA -p2 DNA [-g1 N] [-g2 N] [-seed S]
  cost -g1 N -g2 N                      breeding cost in coins
  studfee -score N -gen N               suggested stud fee
  cooldown -gen N                       post-breed cooldown

garden commands (SHOBER_* environment):
  mint -owner ID -name NAME             mint a generation-0 pet
  pets -owner ID                        list an owner's pets
  export -pet ID                        write a pedigree certificate to blob storage
  metrics [-addr :9090]                 host the garden and serve /metrics and /debug/vars
`

type command func(args []string, stdout, stderr io.Writer) error

var commands = map[string]command{
	"decode":   runDecode,
	"generate": runGenerate,
	"breed":    runBreed,
	"cost":     runCost,
	"studfee":  runStudFee,
	"cooldown": runCooldown,
	"mint":     runMint,
	"pets":     runPets,
	"export":   runExport,
	"metrics":  runMetrics,
}

func main() {
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return 2
	}
	name, rest := args[0], args[1:]
	switch name {
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		fmt.Fprint(stderr, usageText)
		return 2
	}
	err := cmd(rest, stdout, stderr)
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "shoberctl %s: %v\n", name, err)
		return 2
	default:
		fmt.Fprintf(stderr, "shoberctl %s: %v\n", name, err)
		return 1
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// source returns a seeded source when -seed was given on fs.
func source(fs *flag.FlagSet, seed uint64) genome.Source {
	seeded := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seeded = true
		}
	})
	if seeded {
		return genome.NewSeeded(seed)
	}
	return genome.DefaultSource()
}

type decodeOutput struct {
	DNA         string         `json:"dna"`
	Valid       bool           `json:"valid"`
	Placeholder bool           `json:"placeholder"`
	Indices     genome.Indices `json:"indices"`
	Traits      genome.Decoded `json:"traits"`
	Config      genome.Config  `json:"config"`
}

func runDecode(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("decode", stderr)
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("decode takes exactly one genome")
	}
	dna := fs.Arg(0)
	return writeJSON(stdout, decodeOutput{
		DNA:         dna,
		Valid:       genome.Valid(dna),
		Placeholder: genome.IsPlaceholder(dna),
		Indices:     genome.Resolve(dna),
		Traits:      genome.Decode(dna),
		Config:      genome.ToConfig(dna),
	})
}

func runGenerate(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("generate", stderr)
	gen0 := fs.Bool("gen0", false, "use generation-0 rarity weighting")
	n := fs.Int("n", 1, "number of genomes")
	seed := fs.Uint64("seed", 0, "seed for reproducible output")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *n < 1 {
		return usagef("-n must be at least 1")
	}
	gen := genome.NewGenerator(source(fs, *seed))
	for i := 0; i < *n; i++ {
		var dna string
		if *gen0 {
			dna = gen.Gen0DNA()
		} else {
			dna = gen.RandomDNA()
		}
		if _, err := fmt.Fprintln(stdout, dna); err != nil {
			return err
		}
	}
	return nil
}

type breedOutput struct {
	breeding.Result
	Child genome.Decoded `json:"child_traits"`
}

func runBreed(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("breed", stderr)
	p1 := fs.String("p1", "", "first parent genome")
	p2 := fs.String("p2", "", "second parent genome")
	g1 := fs.Int("g1", 0, "first parent generation")
	g2 := fs.Int("g2", 0, "second parent generation")
	seed := fs.Uint64("seed", 0, "seed for reproducible output")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *p1 == "" || *p2 == "" {
		return usagef("-p1 and -p2 are required")
	}
	if *g1 < 0 || *g2 < 0 {
		return usagef("generations must not be negative")
	}
	engine := breeding.New(breeding.WithSource(source(fs, *seed)))
	res := engine.Breed(*p1, *p2, *g1, *g2)
	return writeJSON(stdout, breedOutput{Result: res, Child: genome.Decode(res.ChildDNA)})
}

func runCost(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("cost", stderr)
	g1 := fs.Int("g1", 0, "first parent generation")
	g2 := fs.Int("g2", 0, "second parent generation")
	if err := parse(fs, args); err != nil {
		return err
	}
	_, err := fmt.Fprintln(stdout, breeding.Cost(*g1, *g2))
	return err
}

func runStudFee(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("studfee", stderr)
	score := fs.Int("score", 0, "rarity score")
	gen := fs.Int("gen", 0, "generation")
	if err := parse(fs, args); err != nil {
		return err
	}
	_, err := fmt.Fprintln(stdout, breeding.StudFee(*score, *gen))
	return err
}

func runCooldown(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("cooldown", stderr)
	gen := fs.Int("gen", 0, "generation")
	if err := parse(fs, args); err != nil {
		return err
	}
	d := breeding.Cooldown(*gen)
	_, err := fmt.Fprintf(stdout, "%s\t%d\n", breeding.FormatCooldown(d), int64(d/time.Second))
	return err
}

// openService wires config, logging, metrics and the persistent store.
// withBlobs additionally opens the configured blob store.
func openService(ctx context.Context, stderr io.Writer, withBlobs bool) (*core.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	opts := []core.ServiceOption{
		core.WithLogger(logger),
		core.WithStarterCoins(cfg.StarterCoins),
		core.WithStudRequestTTL(cfg.StudRequestTTL),
	}
	switch cfg.Metrics {
	case config.MetricsExpvar:
		opts = append(opts, core.WithMetricsRecorder(core.NewExpvarMetricsRecorder("")))
	case config.MetricsPrometheus:
		m, err := sharedMetrics()
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, core.WithMetricsRecorder(m.recorder))
	}
	if withBlobs {
		blobs, err := blob.Open(ctx, cfg.BlobStore())
		if err != nil {
			return nil, nil, fmt.Errorf("open blob store: %w", err)
		}
		opts = append(opts, core.WithBlobStore(blobs))
	}
	shutdown, tracing, err := telemetry.Setup(ctx, "shoberctl", cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return nil, nil, fmt.Errorf("setup tracing: %w", err)
	}
	if tracing {
		opts = append(opts, core.WithTracer(core.NewOTelTracer(nil)))
	}
	store, err := core.OpenPersistentStore(cfg, nil)
	if err != nil {
		_ = shutdown(ctx)
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store opened", "driver", cfg.StorageDriver, "tracing", tracing)
	closeFn := func() {
		if err := core.CloseStore(store); err != nil {
			logger.Warn("close store", "error", err)
		}
		if err := shutdown(ctx); err != nil {
			logger.Warn("flush traces", "error", err)
		}
	}
	return core.NewService(store, opts...), closeFn, nil
}

func runMint(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("mint", stderr)
	owner := fs.String("owner", "", "owner id")
	name := fs.String("name", "", "pet name")
	if err := parse(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*owner) == "" {
		return usagef("-owner is required")
	}
	ctx := context.Background()
	svc, closeFn, err := openService(ctx, stderr, false)
	if err != nil {
		return err
	}
	defer closeFn()
	if _, err := svc.OpenWallet(ctx, *owner); err != nil {
		return err
	}
	pet, err := svc.MintPet(ctx, *owner, *name)
	if err != nil {
		return err
	}
	view, err := svc.DescribePet(pet.ID)
	if err != nil {
		return err
	}
	return writeJSON(stdout, view)
}

func runPets(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("pets", stderr)
	owner := fs.String("owner", "", "owner id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*owner) == "" {
		return usagef("-owner is required")
	}
	svc, closeFn, err := openService(context.Background(), stderr, false)
	if err != nil {
		return err
	}
	defer closeFn()
	views := []core.PetView{}
	for _, pet := range svc.PetsByOwner(*owner) {
		view, err := svc.DescribePet(pet.ID)
		if err != nil {
			return err
		}
		views = append(views, view)
	}
	return writeJSON(stdout, views)
}

func runExport(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("export", stderr)
	petID := fs.String("pet", "", "pet id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *petID == "" {
		return usagef("-pet is required")
	}
	ctx := context.Background()
	svc, closeFn, err := openService(ctx, stderr, true)
	if err != nil {
		return err
	}
	defer closeFn()
	info, err := svc.ExportPedigree(ctx, *petID)
	if err != nil {
		return err
	}
	return writeJSON(stdout, info)
}

// metricsHandler exposes g on /metrics and expvar on /debug/vars.
func metricsHandler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	return mux
}

func runMetrics(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("metrics", stderr)
	addr := fs.String("addr", ":9090", "listen address")
	if err := parse(fs, args); err != nil {
		return err
	}
	m, err := sharedMetrics()
	if err != nil {
		return err
	}
	svc, closeFn, err := openService(context.Background(), stderr, false)
	if err != nil {
		return err
	}
	defer closeFn()
	garden := prometheus.NewRegistry()
	if err := garden.Register(core.NewGardenCollector(svc)); err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              *addr,
		Handler:           metricsHandler(prometheus.Gatherers{m.registry, garden}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	fmt.Fprintf(stdout, "serving metrics on %s\n", *addr)
	if err := serveHTTP(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
