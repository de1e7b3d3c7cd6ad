// Command tamatch runs the observation-matching gRPC service: it loads a
// network-of-timed-automata model and a backend/cache/matching
// configuration, then serves pkg/matchsvc.MatchService until terminated.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/mattn/go-isatty"
	"google.golang.org/grpc"

	"github.com/tamatch/tamatch/internal/backend"
	"github.com/tamatch/tamatch/internal/cache"
	"github.com/tamatch/tamatch/internal/config"
	"github.com/tamatch/tamatch/internal/matcherbuild"
	"github.com/tamatch/tamatch/internal/modelio"
	"github.com/tamatch/tamatch/internal/ntamodel"
	"github.com/tamatch/tamatch/internal/obsgen"
	"github.com/tamatch/tamatch/internal/uppaalxml"
	"github.com/tamatch/tamatch/pkg/matcher"
	"github.com/tamatch/tamatch/pkg/matchsvc"
)

func main() {
	configPath := flag.String("config", "tamatch.yaml", "path to the service configuration")
	modelPath := flag.String("model", "", "path to a modelio YAML model description (required)")
	generateSteps := flag.Int("generate-trace", 0, "instead of serving, drive a random run of this many original edges through the model and print the extracted observation as JSON")
	flag.Parse()

	if err := run(*configPath, *modelPath, *generateSteps); err != nil {
		fatalf("%v", err)
	}
}

func run(configPath, modelPath string, generateSteps int) error {
	if modelPath == "" {
		return fmt.Errorf("tamatch: -model is required (no model parser exists; models are loaded from a modelio YAML description)")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	modelData, err := os.ReadFile(modelPath)
	if err != nil {
		return fmt.Errorf("tamatch: reading model %s: %w", modelPath, err)
	}
	desc, err := modelio.Parse(modelData)
	if err != nil {
		return err
	}
	sys, err := modelio.Build(desc)
	if err != nil {
		return err
	}

	runner := &backend.Runner{
		VerifytaPath: cfg.Backend.VerifytaPath,
		Timeout:      cfg.Backend.Timeout,
		ExtraArgs:    cfg.Backend.ExtraArgs,
		Logf:         logf,
	}

	var resultCache *cache.Cache
	if cfg.Cache.Enabled {
		resultCache, err = cache.Open(cfg.Cache.Path)
		if err != nil {
			return err
		}
	}

	workDir, err := os.MkdirTemp("", "tamatch-")
	if err != nil {
		return fmt.Errorf("tamatch: creating work directory: %w", err)
	}

	m := matcher.New(runner, resultCache, uppaalxml.Model, serializeQuery, workDir, logf)
	m.SetModel(sys, nil)
	m.Flags = matcherbuild.Flags{
		SupportLocationMatching:  cfg.Matching.SupportLocationMatching,
		SupportCommittedMatching: cfg.Matching.SupportCommittedMatching,
		SupportShiftedMatching:   cfg.Matching.SupportShiftedMatching,
		SupportPartialMatching:   cfg.Matching.SupportPartialMatching,
		AllowedDeviations:        cfg.Matching.AllowedDeviations,
		MaximumInitialDelay:      cfg.Matching.MaximumInitialDelay,
	}
	if err := m.PrepareMatcherModel(); err != nil {
		return err
	}

	if generateSteps > 0 {
		return runGenerate(runner, workDir, m.PreparedModel(), generateSteps)
	}

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("tamatch: listening on %s: %w", cfg.GRPC.Address, err)
	}

	grpcServer := grpc.NewServer()
	matchsvc.RegisterMatchService(grpcServer, matchsvc.New(m))
	if cfg.GRPC.ReflectionOn {
		if err := matchsvc.EnableReflection(grpcServer); err != nil {
			return err
		}
	}

	logf("tamatch: serving MatchService on %s", cfg.GRPC.Address)
	return grpcServer.Serve(lis)
}

// runGenerate drives a random run of steps original edges through plain via
// internal/obsgen and prints the extracted, unreduced observation as JSON
// to stdout. This is the trace-generator/transition-simulator path's entry
// point: it is otherwise only exercised by internal/obsgen's own tests.
func runGenerate(runner *backend.Runner, workDir string, plain *ntamodel.System, steps int) error {
	driver := &obsgen.Driver{
		Runner:         runner,
		Serialize:      uppaalxml.Model,
		SerializeQuery: serializeQuery,
		WorkDir:        workDir,
	}
	points, err := driver.GenerateConcreteTrace(context.Background(), plain, steps, false)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(points)
}

func serializeQuery(sys *ntamodel.System) (string, error) {
	return uppaalxml.QueryFile(sys.Queries), nil
}

func logf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

func fatalf(format string, args ...interface{}) {
	if isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		fmt.Fprintf(os.Stderr, "\033[31merror:\033[0m "+format+"\n", args...)
	} else {
		fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	}
	os.Exit(1)
}
