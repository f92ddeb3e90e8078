// containerbench drives the container packages under a configurable
// operation mix, for benchmarking, self-checking against an oracle, and
// manual exploration.
//
// Usage:
//
//	containerbench [flags]
//
// Flags:
//
//	-c, --container     Container to drive: hashmap, flatmap, splaymap, multimap (default hashmap)
//	    --config        JSONC scenario file describing the operation mix
//	    --seed          PRNG seed, overrides the scenario's
//	    --ops           Operation count, overrides the scenario's
//	    --report        Write the run report to this file (atomically)
//	    --selfcheck     Replay the run against an in-memory oracle and diff
//	-i, --interactive   Drop into a REPL against a live container
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	container   string
	configPath  string
	seed        int64
	ops         int
	reportPath  string
	selfcheck   bool
	interactive bool
}

func run(args []string, out, errOut io.Writer) int {
	var opts options

	fs := flag.NewFlagSet("containerbench", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVarP(&opts.container, "container", "c", "hashmap", "container to drive: hashmap, flatmap, splaymap, multimap")
	fs.StringVar(&opts.configPath, "config", "", "JSONC scenario file describing the operation mix")
	fs.Int64Var(&opts.seed, "seed", 0, "PRNG seed, overrides the scenario's")
	fs.IntVar(&opts.ops, "ops", 0, "operation count, overrides the scenario's")
	fs.StringVar(&opts.reportPath, "report", "", "write the run report to this file")
	fs.BoolVar(&opts.selfcheck, "selfcheck", false, "replay the run against an in-memory oracle and diff")
	fs.BoolVarP(&opts.interactive, "interactive", "i", false, "drop into a REPL against a live container")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	b, err := newBackend(opts.container)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 2
	}

	if opts.interactive {
		if err := repl(out, b); err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
		return 0
	}

	scenario := defaultScenario()
	if opts.configPath != "" {
		scenario, err = loadScenario(opts.configPath)
		if err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 2
		}
	}
	if opts.seed != 0 {
		scenario.Seed = opts.seed
	}
	if opts.ops != 0 {
		scenario.Ops = opts.ops
	}

	report, err := runScenario(b, scenario, opts.selfcheck)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	fmt.Fprint(out, report)
	if opts.reportPath != "" {
		if err := atomic.WriteFile(opts.reportPath, strings.NewReader(report)); err != nil {
			fmt.Fprintln(errOut, "error: writing report:", err)
			return 1
		}
	}
	return 0
}

// runStats accumulates per-kind operation counts over one run.
type runStats struct {
	inserts int
	gets    int
	hits    int
	removes int
	evicted int
}

// runScenario replays the scenario's weighted operation mix against b
// and renders a report. With selfcheck, the same operations are applied
// to a plain-Go oracle and the final contents are diffed.
func runScenario(b backend, s Scenario, selfcheck bool) (string, error) {
	rng := rand.New(rand.NewSource(s.Seed))
	total := s.InsertWeight + s.GetWeight + s.RemoveWeight

	var oracle map[int][]int
	if selfcheck {
		oracle = map[int][]int{}
	}

	var stats runStats
	start := time.Now()
	for i := 0; i < s.Ops; i++ {
		key := rng.Intn(s.KeySpace)
		switch w := rng.Intn(total); {
		case w < s.InsertWeight:
			val := rng.Int()
			b.insert(key, val)
			stats.inserts++
			if oracle != nil {
				if b.multiValued() {
					oracle[key] = append(oracle[key], val)
				} else {
					oracle[key] = []int{val}
				}
			}
		case w < s.InsertWeight+s.GetWeight:
			_, ok := b.get(key)
			stats.gets++
			if ok {
				stats.hits++
			}
		default:
			ok := b.remove(key)
			stats.removes++
			if ok {
				stats.evicted++
			}
			if oracle != nil && ok {
				if vs := oracle[key]; len(vs) <= 1 {
					delete(oracle, key)
				} else {
					oracle[key] = vs[1:]
				}
			}
		}
	}
	elapsed := time.Since(start)

	if oracle != nil {
		if diff := cmp.Diff(oracle, b.contents()); diff != "" {
			return "", fmt.Errorf("selfcheck: %s diverged from oracle:\n%s", b.name(), diff)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "container: %s\n", b.name())
	fmt.Fprintf(&sb, "ops: %d  seed: %d  key-space: %d\n", s.Ops, s.Seed, s.KeySpace)
	fmt.Fprintf(&sb, "inserts: %d\n", stats.inserts)
	fmt.Fprintf(&sb, "gets: %d (%d hits)\n", stats.gets, stats.hits)
	fmt.Fprintf(&sb, "removes: %d (%d evicted)\n", stats.removes, stats.evicted)
	fmt.Fprintf(&sb, "final len: %d\n", b.length())
	fmt.Fprintf(&sb, "elapsed: %s (%.0f ops/s)\n", elapsed.Round(time.Millisecond), float64(s.Ops)/elapsed.Seconds())
	if oracle != nil {
		sb.WriteString("selfcheck: ok\n")
	}
	return sb.String(), nil
}
