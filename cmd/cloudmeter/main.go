// Package main is the entry point for cloudmeter, a cloud usage
// accounting service that turns sparse power-state events into per-day,
// tag-attributed usage reports.
package main

func main() {
	Execute()
}
