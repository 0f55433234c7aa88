// Package main is the entry point for the gomutants CLI.
package main

import "gooze.dev/pkg/gomutants/cmd"

func main() {
	cmd.Execute()
}
