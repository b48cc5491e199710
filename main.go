// Package main is the entry point for the scaffold CLI.
package main

import "scaffold.dev/pkg/scaffold/cmd"

func main() {
	cmd.Execute()
}
