// Package main provides a performance benchmarking tool for the wim CLI.
// It measures `wim run` times across a set of basin manifests,
// running each manifest multiple times, treating the first successful cached run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - wim binary installed and available in PATH
// - One or more manifests (*.toml) with their inputs under the manifest directory
//
// Usage: go run benchmark/main.go [manifest-dir]
//
//	manifest-dir: Directory containing basin manifests
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Manifest    string
	Format      string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	ManifestDir string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Formats     []string
	Manifests   []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [manifest-dir]\n", os.Args[0])
		os.Exit(1)
	}
	manifestDir := os.Args[1]

	config := BenchmarkConfig{
		ManifestDir: manifestDir,
		Timeout:     15 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Formats:     []string{"asc", "wgz"},
	}

	if err := checkPrerequisites(&config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("wim", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the wim binary exists and collects the manifests
func checkPrerequisites(config *BenchmarkConfig) error {
	if _, err := exec.LookPath("wim"); err != nil {
		return fmt.Errorf("wim binary not found in PATH")
	}

	manifests, err := filepath.Glob(filepath.Join(config.ManifestDir, "*.toml"))
	if err != nil {
		return err
	}
	if len(manifests) == 0 {
		return fmt.Errorf("no manifests found in %s", config.ManifestDir)
	}
	config.Manifests = manifests
	return nil
}

// runBenchmarks executes all benchmark runs across the manifests and raster formats
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d manifests, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Manifests), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, manifest := range config.Manifests {
		fmt.Printf("Benchmarking %s\n", filepath.Base(manifest))
		for _, format := range config.Formats {
			results = append(results, runBenchmarkSuite(config, manifest, format))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a manifest
func runBenchmarkSuite(config BenchmarkConfig, manifest, format string) BenchmarkResult {
	name := strings.TrimSuffix(filepath.Base(manifest), ".toml")
	fmt.Printf("Running %s with %s output\n", name, format)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, manifest, format, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Manifest:    name,
		Format:      format,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes wim run multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, manifest, format, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	outDir, err := os.MkdirTemp("", "wim-benchmark-*")
	if err != nil {
		return 0, nil
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	args := []string{
		"run", manifest,
		"--cache-backend", cacheBackend,
		"--raster-format", format,
		"--output-dir", outDir,
		"--workers", fmt.Sprint(config.Workers),
		"--log-level", "warn",
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("wim", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
			<-done
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if the run report indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/wim_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"manifest", "format", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Manifest, result.Format, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, format := range []string{"asc", "wgz"} {
		fmt.Printf("%s output:\n", strings.ToUpper(format))
		for _, result := range results {
			if result.Format == format {
				fmt.Printf("  %-20s: No-cache: %s, Cold: %s, Warm: %s\n", result.Manifest, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
	fmt.Printf("Benchmark script completed successfully\n")
}
