package benchmark

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/intellect4all/storage-engines/btree"
	"github.com/intellect4all/storage-engines/common"
)

// WorkloadType defines the access pattern
type WorkloadType string

const (
	WorkloadWriteHeavy WorkloadType = "write-heavy" // 95% writes
	WorkloadReadHeavy  WorkloadType = "read-heavy"  // 95% reads
	WorkloadBalanced   WorkloadType = "balanced"    // 50/50
	WorkloadReadOnly   WorkloadType = "read-only"   // 100% reads
	WorkloadWriteOnly  WorkloadType = "write-only"  // 100% writes
)

// Config defines a benchmark scenario
type Config struct {
	Name string

	WorkloadType    WorkloadType
	KeyDistribution KeyDistribution

	NumKeys   int // Total unique keys in dataset
	KeySize   int // Bytes; must not exceed btree.KeySize
	ValueSize int // Bytes; must not exceed btree.ValueSize

	Duration time.Duration // How long to run

	PreloadKeys int // Keys to load before benchmark starts

	Seed int64
}

type Result struct {
	Config Config

	// Throughput
	TotalOps  int64
	WriteOps  int64
	ReadOps   int64
	Duration  time.Duration
	OpsPerSec float64

	// Latency (time.Duration values)
	WriteLatency LatencyStats
	ReadLatency  LatencyStats

	// Amplification
	WriteAmplification float64 // Measured from engine stats
	SpaceAmplification float64

	TotalDiskMB float64

	// Engine-specific stats
	EngineStats common.Stats
}

// Benchmark drives a single *btree.BTree. The source's worker pool is
// collapsed to one synchronous loop: the B-tree accepts only one writer
// at a time (spec §5 Non-goals), so a concurrency knob here would just
// serialize behind BTree's internal mutex.
type Benchmark struct {
	engine *btree.BTree
	config Config

	writeLatencies *LatencyHistogram
	readLatencies  *LatencyHistogram

	writeCount int64
	readCount  int64
	errorCount int64

	keyGen *KeyGenerator
}

func NewBenchmark(engine *btree.BTree, config Config) *Benchmark {
	return &Benchmark{
		engine:         engine,
		config:         config,
		writeLatencies: NewLatencyHistogram(),
		readLatencies:  NewLatencyHistogram(),
		keyGen:         NewKeyGenerator(config.NumKeys, config.KeySize, config.KeyDistribution, config.Seed),
	}
}

// Run executes the benchmark
func (b *Benchmark) Run() (*Result, error) {
	// Phase 1: Preload data
	if b.config.PreloadKeys > 0 {
		fmt.Printf("Preloading %d keys...\n", b.config.PreloadKeys)
		if err := b.preload(); err != nil {
			return nil, err
		}
		fmt.Println("Preload complete")
	}

	// Phase 2: Warm-up (not measured)
	fmt.Println("Warming up...")
	b.runWorkload(5 * time.Second)

	// Reset metrics
	b.writeLatencies = NewLatencyHistogram()
	b.readLatencies = NewLatencyHistogram()
	b.writeCount = 0
	b.readCount = 0
	b.errorCount = 0

	// Phase 3: Actual benchmark
	fmt.Printf("Running benchmark for %v...\n", b.config.Duration)
	startTime := time.Now()

	b.runWorkload(b.config.Duration)

	endTime := time.Now()
	endStats := b.engine.Stats()
	duration := endTime.Sub(startTime)

	// Phase 4: Calculate results
	result := b.calculateResults(duration, endStats)

	return result, nil
}

// preload fills the database with initial data
func (b *Benchmark) preload() error {
	value := make([]byte, b.config.ValueSize)
	rand.Read(value)

	for i := 0; i < b.config.PreloadKeys; i++ {
		key := b.keyGen.GenerateSequential(i)
		if err := b.engine.Insert(btree.KeyValuePair{Key: btree.Key(key), Value: btree.Value(value)}); err != nil {
			return err
		}

		if i > 0 && i%10000 == 0 {
			fmt.Printf("  Loaded %d keys\n", i)
		}
	}

	return b.engine.Sync()
}

// runWorkload executes the workload for the given duration on a single
// goroutine — the only writer the tree will ever see.
func (b *Benchmark) runWorkload(duration time.Duration) {
	value := make([]byte, b.config.ValueSize)
	rand.Read(value)

	deadline := time.Now().Add(duration)
	i := int64(0)
	for time.Now().Before(deadline) {
		if b.shouldWrite(i) {
			b.doWrite(value)
		} else {
			b.doRead(i)
		}
		i++
	}
}

// shouldWrite determines if this operation should be a write. seq
// substitutes for the source's random-number generator: it advances
// every call, so the ratio below converges the same way a uniform
// random draw would.
func (b *Benchmark) shouldWrite(seq int64) bool {
	frac := float64(seq%10000) / 10000.0
	switch b.config.WorkloadType {
	case WorkloadWriteOnly:
		return true
	case WorkloadReadOnly:
		return false
	case WorkloadWriteHeavy:
		return frac < 0.95
	case WorkloadReadHeavy:
		return frac < 0.05
	case WorkloadBalanced:
		return frac < 0.50
	default:
		return frac < 0.50
	}
}

func (b *Benchmark) doWrite(value []byte) {
	key := b.keyGen.NextKey()

	start := time.Now()
	err := b.engine.Insert(btree.KeyValuePair{Key: btree.Key(key), Value: btree.Value(value)})
	latency := time.Since(start)

	if err != nil {
		b.errorCount++
		return
	}

	b.writeLatencies.Record(latency)
	b.writeCount++
}

func (b *Benchmark) doRead(seq int64) {
	key := b.keyGen.NextKey()

	start := time.Now()
	_, err := b.engine.Search(btree.Key(key))
	latency := time.Since(start)

	if err != nil && !errors.Is(err, btree.ErrKeyNotFound) {
		b.errorCount++
		return
	}

	b.readLatencies.Record(latency)
	b.readCount++
}

func (b *Benchmark) calculateResults(duration time.Duration, endStats common.Stats) *Result {
	totalOps := b.writeCount + b.readCount

	result := &Result{
		Config:    b.config,
		TotalOps:  totalOps,
		WriteOps:  b.writeCount,
		ReadOps:   b.readCount,
		Duration:  duration,
		OpsPerSec: float64(totalOps) / duration.Seconds(),

		WriteLatency: b.writeLatencies.Stats(),
		ReadLatency:  b.readLatencies.Stats(),

		WriteAmplification: endStats.WriteAmp,
		SpaceAmplification: endStats.SpaceAmp,

		TotalDiskMB: float64(endStats.TotalDiskSize) / (1024 * 1024),
		EngineStats: endStats,
	}

	return result
}
