//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

func run(args ...string) error {
	mg.Deps(Init, Build)
	return sh.RunV(filepath.Join(binDir, binName), args...)
}

// Fetch pulls recent papers from arXiv, scores them, and summarizes the relevant ones.
// Set DAYS to override the configured look-back window.
func Fetch() error {
	args := []string{"fetch"}
	if days := os.Getenv("DAYS"); days != "" {
		args = append(args, "--days", days)
	}
	return run(args...)
}

// Rescore scores every stored paper again under a new run ID.
func Rescore() error {
	return run("rescore")
}

// Top lists the highest-scoring stored papers.
func Top() error {
	return run("top")
}
