// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Command compile-lines generates the four vertex programs for a vertex
// shader with lines pragmas and writes them to a directory.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"honnef.co/go/gpulines/renderer"
	"honnef.co/go/gpulines/shaders"
)

func main() {
	var (
		vert    string
		frag    string
		out     string
		debug   bool
		verbose bool
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-v] [-debug] -vert <file> -frag <file> -out <dir>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&vert, "vert", "", "Path to vertex shader `file` with lines pragmas")
	flag.StringVar(&frag, "frag", "", "Path to fragment shader `file`")
	flag.StringVar(&out, "out", "./out", "Path to output `directory`")
	flag.BoolVar(&debug, "debug", false, "Generate programs with debug varyings")
	flag.BoolVar(&verbose, "v", false, "Be verbose")
	flag.Parse()

	if len(flag.Args()) != 0 || vert == "" || frag == "" {
		flag.Usage()
		os.Exit(2)
	}

	dief := func(f string, v ...any) {
		fmt.Fprintf(os.Stderr, f, v...)
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}

	if verbose {
		renderer.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	vertSrc, err := os.ReadFile(vert)
	if err != nil {
		dief("Couldn't read vertex shader: %s", err)
	}
	fragSrc, err := os.ReadFile(frag)
	if err != nil {
		dief("Couldn't read fragment shader: %s", err)
	}

	l, err := renderer.New(renderer.Config{
		Vert:  string(vertSrc),
		Frag:  string(fragSrc),
		Debug: debug,
	})
	if err != nil {
		dief("Couldn't compile %s: %s", vert, err)
	}

	if err := os.MkdirAll(out, 0777); err != nil {
		dief("Couldn't create output directory: %s", err)
	}
	for _, p := range l.Programs().Programs() {
		if err := write(out, p); err != nil {
			dief("Couldn't write %s program: %s", p.Name, err)
		}
	}
}

// fileName returns the base name of a program's output files.
func fileName(p *shaders.Program) string {
	return strings.ReplaceAll(p.Name, " ", "_")
}

func write(dir string, p *shaders.Program) error {
	base := filepath.Join(dir, fileName(p))
	if err := os.WriteFile(base+".vert", []byte(p.Vertex), 0666); err != nil {
		return err
	}
	if err := os.WriteFile(base+".frag", []byte(p.Fragment), 0666); err != nil {
		return err
	}
	renderer.Logger().Debug("wrote program",
		"program", p.Name,
		"inputs", len(p.Inputs),
		"uniforms", strings.Join(p.Uniforms, ","))
	return nil
}
