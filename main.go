// Package main provides the entry point for procsim.
// procsim is a cycle-level out-of-order superscalar pipeline simulator
// built on Akita.
//
// For the full CLI, use: go run ./cmd/procsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("procsim - Out-of-Order Superscalar Pipeline Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: procsim [options] [trace]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -r         Instructions retired per cycle (R, default 8)")
	fmt.Println("  -j         Class-0 functional units (K0, default 1)")
	fmt.Println("  -k         Class-1 functional units (K1, default 2)")
	fmt.Println("  -l         Class-2 functional units (K2, default 3)")
	fmt.Println("  -f         Instructions fetched per cycle (F, default 4)")
	fmt.Println("  -config    Path to machine configuration JSON file")
	fmt.Println("  -latency   Path to latency configuration JSON file")
	fmt.Println("  -engine    Drive the pipeline from an akita event engine")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/procsim' for the full CLI.")
	fmt.Println("Run 'go run ./cmd/benchmark -sweep' for a parameter sweep.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/procsim' instead.")
	}
}
