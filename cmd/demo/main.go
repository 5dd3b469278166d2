package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/intellect4all/storage-engines/btree"
)

func main() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("Storage Engines Demo: Persistent B-Tree")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
	fmt.Println("This demo walks through the B-tree's append-mostly on-disk format:")
	fmt.Println("  • Fixed-width 10-byte keys and values, a 4096-byte page codec")
	fmt.Println("  • Copy-forward writes: every touched node lands on a fresh offset")
	fmt.Println("  • A single-value WAL recording the current root, for durability")
	fmt.Println()

	demoBasics()
	fmt.Println()
	demoSplit()
	fmt.Println()
	demoWAL()
}

func newLogger() *zap.Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	return logger
}

func demoBasics() {
	fmt.Println("### Insert and Search ###")
	fmt.Println(strings.Repeat("-", 40))

	dir, err := os.MkdirTemp("", "btree-demo-basics-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	config := btree.DefaultConfig(dir + "/data.btree")
	config.Logger = newLogger()

	tree, err := btree.New(config)
	if err != nil {
		log.Fatal(err)
	}
	defer tree.Close()

	fmt.Println("✓ Opened B-tree with branching factor", config.Branches)

	records := map[string]string{
		"user:0001": "Alice",
		"user:0002": "Bob",
		"user:0003": "Charlie",
	}
	for k, v := range records {
		if err := tree.Insert(btree.KeyValuePair{Key: btree.Key(k), Value: btree.Value(v)}); err != nil {
			log.Printf("insert %s: %v", k, err)
			continue
		}
		fmt.Printf("  INSERT %s -> %s\n", k, v)
	}

	fmt.Println("\n[Searching]")
	for k := range records {
		kv, err := tree.Search(btree.Key(k))
		if err != nil {
			log.Printf("search %s: %v", k, err)
			continue
		}
		fmt.Printf("  SEARCH %s -> %s\n", k, kv.Value)
	}

	if _, err := tree.Search("user:9999"); err != nil {
		fmt.Printf("  SEARCH user:9999 -> %v (expected)\n", err)
	}

	fmt.Println(tree.Stats())
}

func demoSplit() {
	fmt.Println("### Triggering a Root Split ###")
	fmt.Println(strings.Repeat("-", 40))

	dir, err := os.MkdirTemp("", "btree-demo-split-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	// Branches=2 gives a max of 3 pairs per leaf, so the fourth insert forces
	// the root leaf to split into an internal node with two children.
	config := btree.Config{Path: dir + "/data.btree", Branches: 2, Logger: newLogger()}
	tree, err := btree.New(config)
	if err != nil {
		log.Fatal(err)
	}
	defer tree.Close()

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("k%09d", i)
		if err := tree.Insert(btree.KeyValuePair{Key: btree.Key(key), Value: "v"}); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  INSERT %s\n", key)
	}

	fmt.Println("\n✓ Root has split; every original key still resolves:")
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("k%09d", i)
		if _, err := tree.Search(btree.Key(key)); err != nil {
			log.Printf("  SEARCH %s failed: %v", key, err)
			continue
		}
		fmt.Printf("  SEARCH %s -> found\n", key)
	}
}

func demoWAL() {
	fmt.Println("### WAL Root Durability ###")
	fmt.Println(strings.Repeat("-", 40))

	dir, err := os.MkdirTemp("", "btree-demo-wal-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := dir + "/data.btree"
	tree, err := btree.New(btree.DefaultConfig(path))
	if err != nil {
		log.Fatal(err)
	}
	defer tree.Close()

	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("k%09d", i)
		if err := tree.Insert(btree.KeyValuePair{Key: btree.Key(key), Value: "v"}); err != nil {
			log.Fatal(err)
		}
	}
	if err := tree.Sync(); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("✓ Inserted 20 keys; every Insert committed a new root offset to %s.wal\n", path)
	fmt.Println("  Construction always truncates the backing file (spec: crash recovery")
	fmt.Println("  beyond root-offset persistence is a non-goal), so the WAL's contract is")
	fmt.Println("  narrower: within one open tree, get_root always reflects the last")
	fmt.Println("  successful set_root, which is the linearization point readers rely on.")
}
