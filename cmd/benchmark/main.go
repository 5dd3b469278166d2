package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/intellect4all/storage-engines/btree"
	"github.com/intellect4all/storage-engines/common/benchmark"
)

func main() {
	quick := flag.Bool("quick", false, "Run quick benchmarks (shorter duration)")
	workload := flag.String("workload", "all", "Workload to run (all, write-heavy-uniform, read-heavy-zipfian, balanced-uniform, write-only-sequential)")
	duration := flag.Duration("duration", 60*time.Second, "Duration for each benchmark")
	branches := flag.Int("branches", 128, "B-tree branching factor")
	flag.Parse()

	fmt.Println("B-Tree Benchmark Suite")
	fmt.Println("========================")
	fmt.Printf("Duration: %v\n", *duration)
	fmt.Printf("Branches: %d\n\n", *branches)

	var configs []benchmark.Config
	if *quick {
		configs = benchmark.QuickWorkloads()
	} else {
		configs = benchmark.StandardWorkloads()
	}

	if flag.Lookup("duration").Value.String() != flag.Lookup("duration").DefValue {
		for i := range configs {
			configs[i].Duration = *duration
		}
	}

	if *workload != "all" {
		filtered := make([]benchmark.Config, 0)
		for _, config := range configs {
			if config.Name == *workload {
				filtered = append(filtered, config)
			}
		}
		if len(filtered) == 0 {
			fmt.Printf("Unknown workload: %s\n", *workload)
			os.Exit(1)
		}
		configs = filtered
	}

	dir, err := os.MkdirTemp("", "benchmark-btree-*")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	results := make([]*benchmark.Result, 0, len(configs))
	for _, config := range configs {
		fmt.Printf("\nRunning: %s\n", config.Name)

		tree, err := btree.New(btree.Config{
			Path:     dir + "/" + config.Name + ".btree",
			Branches: *branches,
			Logger:   logger,
		})
		if err != nil {
			fmt.Printf("Failed to create BTree: %v\n", err)
			os.Exit(1)
		}

		result, err := benchmark.NewBenchmark(tree, config).Run()
		tree.Close()
		if err != nil {
			fmt.Printf("ERROR: %v\n", err)
			continue
		}

		printResult(result)
		results = append(results, result)
	}

	printSummaryTable(results)
}

func printResult(r *benchmark.Result) {
	fmt.Printf("\nResults for: %s\n", r.Config.Name)
	fmt.Printf("  Throughput: %.0f ops/sec\n", r.OpsPerSec)
	fmt.Printf("  Total Ops: %d (writes: %d, reads: %d)\n",
		r.TotalOps, r.WriteOps, r.ReadOps)

	if r.WriteOps > 0 {
		fmt.Printf("  Write Latency (μs):\n")
		fmt.Printf("    p50:  %6d\n", r.WriteLatency.P50.Microseconds())
		fmt.Printf("    p95:  %6d\n", r.WriteLatency.P95.Microseconds())
		fmt.Printf("    p99:  %6d\n", r.WriteLatency.P99.Microseconds())
		fmt.Printf("    p999: %6d\n", r.WriteLatency.P999.Microseconds())
	}

	if r.ReadOps > 0 {
		fmt.Printf("  Read Latency (μs):\n")
		fmt.Printf("    p50:  %6d\n", r.ReadLatency.P50.Microseconds())
		fmt.Printf("    p95:  %6d\n", r.ReadLatency.P95.Microseconds())
		fmt.Printf("    p99:  %6d\n", r.ReadLatency.P99.Microseconds())
		fmt.Printf("    p999: %6d\n", r.ReadLatency.P999.Microseconds())
	}

	fmt.Printf("  Amplification: write %.2fx, space %.2fx\n", r.WriteAmplification, r.SpaceAmplification)
	fmt.Printf("  Disk Usage: %.1f MB\n", r.TotalDiskMB)
	fmt.Printf("  %s\n", r.EngineStats)
}

func printSummaryTable(results []*benchmark.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "\n=== SUMMARY ===")
	fmt.Fprintln(w, "Workload\tOps/sec\tWrite P99 (μs)\tWrite Amp\tSpace Amp")
	for _, r := range results {
		p99 := "N/A"
		if r.WriteOps > 0 {
			p99 = fmt.Sprintf("%d", r.WriteLatency.P99.Microseconds())
		}
		fmt.Fprintf(w, "%s\t%.0f\t%s\t%.2fx\t%.2fx\n",
			r.Config.Name, r.OpsPerSec, p99, r.WriteAmplification, r.SpaceAmplification)
	}
	w.Flush()
}
