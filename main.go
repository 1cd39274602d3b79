// Package main is the entry point for the popmetrics CLI tool, which links
// football phases of play with dynamic events and computes team and player
// metrics.
package main

import "github.com/liamMichaelBailey/team-analysis-helpers/cmd"

func main() {
	cmd.Execute()
}
