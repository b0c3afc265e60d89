package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/rhartert/yass/drat"
	"github.com/rhartert/yass/internal/sat"
	"github.com/rhartert/yass/parsers"
)

var (
	flagCPUProfile = flag.Bool("cpuprof", false, "save pprof CPU profile in cpuprof")
	flagMemProfile = flag.Bool("memprof", false, "save pprof memory profile in memprof")

	flagElimGrow  = flag.Int("elim-grow", 0, "max permitted increase in clause count from eliminating one variable (0 = use default)")
	flagElimLits  = flag.Int("elim-lits", 20, "max resolvent literal count considered during variable elimination")
	flagChronoBT  = flag.Int("chronobt", 100, "level-gap threshold at or above which chronological backtracking is used (<0 disables it)")
	flagNoElim    = flag.Bool("no-elim", false, "disable the variable-elimination preprocessor/inprocessor")
	flagNoReduce  = flag.Bool("no-reduce", false, "disable learnt clause database reduction")
	flagNoAdapt   = flag.Bool("no-adaptive", false, "set Config.WithoutAdaptiveStrategy; the solver has a single fixed strategy and does not read this setting")
	flagTimeout   = flag.Duration("timeout", 0, "abort the search after this duration (0 = no timeout)")
	flagProof     = flag.String("proof", "", "write a DRAT certificate to this file")
	flagCertify   = flag.Bool("certify", false, "set Config.UseCertification (implied by -proof); DRAT records are written only when -proof names a file")
)

type cliConfig struct {
	instanceFile string
	memProfile   bool
	cpuProfile   bool
	solverConfig sat.Config
	proofFile    string
}

func parseConfig() (*cliConfig, error) {
	flag.Parse()

	if flag.NArg() == 0 || flag.Arg(0) == "" {
		return nil, fmt.Errorf("missing instance file")
	}

	cfg := sat.DefaultConfig()
	if *flagElimGrow != 0 {
		cfg.ElimGrowLimit = *flagElimGrow
	}
	cfg.ElimLitLimit = *flagElimLits
	cfg.ChronoBT = *flagChronoBT
	cfg.WithoutElim = *flagNoElim
	cfg.WithoutReduce = *flagNoReduce
	cfg.WithoutAdaptiveStrategy = *flagNoAdapt
	cfg.Timeout = *flagTimeout
	cfg.UseCertification = *flagCertify || *flagProof != ""

	return &cliConfig{
		instanceFile: flag.Arg(0),
		memProfile:   *flagMemProfile,
		cpuProfile:   *flagCPUProfile,
		solverConfig: cfg,
		proofFile:    *flagProof,
	}, nil
}

// run loads the instance, solves it, and reports the result and exit code.
// Returns the process exit code per the core's documented contract: 10 =
// SAT, 20 = UNSAT, 0 = unknown or error.
func run(cfg *cliConfig) (int, error) {
	s := sat.NewSolver(cfg.solverConfig)

	var proof *drat.Writer
	if cfg.proofFile != "" {
		f, err := os.Create(cfg.proofFile)
		if err != nil {
			return 0, fmt.Errorf("could not create proof file: %s", err)
		}
		defer f.Close()
		proof = drat.New(f)
		s.SetCertifier(proof)
	}

	if err := parsers.LoadDIMACS(cfg.instanceFile, false, s); err != nil {
		return 0, fmt.Errorf("could not parse instance: %s", err)
	}

	t := time.Now()
	res, err := s.Solve()
	elapsed := time.Since(t)
	if err != nil {
		return 0, fmt.Errorf("solve error: %s", err)
	}

	stats := s.Stats()
	fmt.Printf("c time (sec):   %f\n", elapsed.Seconds())
	fmt.Printf("c conflicts:    %d (%.2f /sec)\n", stats.Conflicts, float64(stats.Conflicts)/elapsed.Seconds())
	fmt.Printf("c decisions:    %d\n", stats.Decisions)
	fmt.Printf("c learnts:      %d\n", stats.Learnts)
	fmt.Printf("c constraints:  %d\n", stats.Constraints)
	fmt.Printf("c status:       %s\n", res.Status)

	switch res.Status {
	case sat.StatusSAT:
		fmt.Println("s SATISFIABLE")
		printModel(res.Model)
		return 10, nil
	case sat.StatusUNSAT:
		fmt.Println("s UNSATISFIABLE")
		fmt.Println("0")
		if proof != nil {
			if err := proof.FinalizeUNSAT(); err != nil {
				return 20, fmt.Errorf("could not finalize proof: %s", err)
			}
		}
		return 20, nil
	default:
		fmt.Println("s UNKNOWN")
		return 0, nil
	}
}

func printModel(model []sat.LBool) {
	for i, v := range model {
		if v == sat.False {
			fmt.Printf("-%d ", i+1)
		} else {
			fmt.Printf("%d ", i+1)
		}
	}
	fmt.Println("0")
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.cpuProfile {
		f, err := os.Create("cpuprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	code, err := run(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile {
		f, err := os.Create("memprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}

	os.Exit(code)
}
