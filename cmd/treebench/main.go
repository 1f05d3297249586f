// Command treebench drives the paged engine in internal/bptree and
// the comparator indexes in internal/refindex through the same load
// and mixed-workload phases, recording latency and memory footprint
// to CSV and plotting mean insert latency to PNG.
package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"github.com/btree-query-bench/treewright/internal/bptree"
	"github.com/btree-query-bench/treewright/internal/refindex"
)

func main() {
	f, err := os.Create("bench_results.csv")
	if err != nil {
		fmt.Fprintf(os.Stderr, "treebench: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Write([]string{"Structure", "Config", "TestType", "LatencyNs", "MemMB", "HeapObjects"})

	degrees := []int{4, 8, 16}
	lsmThresholds := []int{100, 1000}
	scale := int(math.MaxUint16) + 1 // exhaust the uint16 key space once

	means := map[string]float64{}
	var order []string

	for _, d := range degrees {
		confStr := strconv.Itoa(d)
		loadAndRecord(w, means, &order, "B-Tree", confStr, refindex.NewBTree(d), scale)
		loadAndRecord(w, means, &order, "BPlusTree", confStr, refindex.NewBPlusTree(d), scale)
	}
	for _, th := range lsmThresholds {
		loadAndRecord(w, means, &order, "LSM-Tree", strconv.Itoa(th), refindex.NewLSM(th), scale)
	}
	loadAndRecord(w, means, &order, "ListIndex", "-", refindex.NewListIndex(), scale)

	dir, err := os.MkdirTemp("", "treebench-pebble-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "treebench: pebble tempdir: %v\n", err)
	} else {
		p, err := refindex.OpenPebble(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "treebench: pebble open: %v\n", err)
		} else {
			loadAndRecord(w, means, &order, "Pebble", "-", p, scale)
			p.Close()
		}
	}

	runPagedEngineSuite(w, means, &order, scale)

	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "treebench: csv flush: %v\n", err)
	}

	if err := PlotMeanInsertLatency("bench_insert_latency.png", means, order); err != nil {
		fmt.Fprintf(os.Stderr, "treebench: %v\n", err)
	}

	fmt.Println("benchmark complete: bench_results.csv, bench_insert_latency.png")
}

// runPagedEngineSuite loads n sequential keys into a fresh paged index
// file backed by an in-memory filesystem. The paged engine only
// exposes Insert (search is reserved), so only the load phase is
// timed here.
func runPagedEngineSuite(w *csv.Writer, means map[string]float64, order *[]string, n int) {
	fmt.Println("testing PagedBTree")
	fs := afero.NewMemMapFs()
	tr, err := bptree.Create(fs, "bench.idx")
	if err != nil {
		fmt.Fprintf(os.Stderr, "treebench: paged engine create: %v\n", err)
		return
	}
	defer tr.Close()

	start := time.Now()
	for k := 0; k < n; k++ {
		if err := tr.Insert(bptree.Key(k)); err != nil {
			fmt.Fprintf(os.Stderr, "treebench: paged engine insert: %v\n", err)
			return
		}
	}
	latency := time.Since(start).Nanoseconds() / int64(n)

	stats := GetDetailedMem()
	Record(w, BenchResult{
		Name:      "PagedBTree",
		Config:    strconv.Itoa(bptree.Order),
		Operation: "Load",
		LatencyNs: latency,
		MemMB:     stats.AllocMB,
		Objects:   stats.HeapObjects,
	})
	means["PagedBTree"] = float64(latency)
	*order = append(*order, "PagedBTree")
}

// loadAndRecord runs the shared suite against any refindex.Index: a
// sequential load timed for mean insert latency, then the OLTP/OLAP/
// Reporting mixes.
func loadAndRecord(w *csv.Writer, means map[string]float64, order *[]string, name, confStr string, idx refindex.Index, n int) {
	fmt.Printf("testing %s(%s)\n", name, confStr)

	start := time.Now()
	for k := 0; k < n; k++ {
		if err := idx.Insert(uint16(k), []byte("v")); err != nil {
			fmt.Fprintf(os.Stderr, "treebench: %s insert: %v\n", name, err)
			return
		}
	}
	insertLatency := time.Since(start).Nanoseconds() / int64(n)

	stats := GetDetailedMem()
	Record(w, BenchResult{
		Name:      name,
		Config:    confStr,
		Operation: "Load",
		LatencyNs: insertLatency,
		MemMB:     stats.AllocMB,
		Objects:   stats.HeapObjects,
	})
	label := name + "(" + confStr + ")"
	means[label] = float64(insertLatency)
	*order = append(*order, label)

	half := n / 2
	if half == 0 {
		return
	}

	start = time.Now()
	ExecuteWorkload(idx, OLTP, half)
	Record(w, BenchResult{name, confStr, "Workload_OLTP", time.Since(start).Nanoseconds() / int64(half), GetDetailedMem().AllocMB, 0})

	start = time.Now()
	ExecuteWorkload(idx, OLAP, half)
	Record(w, BenchResult{name, confStr, "Workload_OLAP", time.Since(start).Nanoseconds() / int64(half), GetDetailedMem().AllocMB, 0})

	start = time.Now()
	ExecuteWorkload(idx, Reporting, 100)
	Record(w, BenchResult{name, confStr, "Workload_Range", time.Since(start).Nanoseconds() / 100, GetDetailedMem().AllocMB, 0})
}
