// Package main provides the shipenv CLI for preparing Flask/GCP projects for
// cloud deployment.
package main

import "github.com/shipenv/shipenv/cmd/shipenv/commands"

func main() {
	commands.Execute(Version)
}
