// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Command render-lines renders a YAML scene of lines to a PNG file, using
// the software engine.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"honnef.co/go/gpulines/profiler"
	"honnef.co/go/gpulines/renderer"
)

func main() {
	var (
		in      string
		out     string
		verbose bool
		profile bool
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-v] [-profile] -in <scene.yaml> -out <image.png>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&in, "in", "", "Path to scene `file`")
	flag.StringVar(&out, "out", "out.png", "Path to output `file`")
	flag.BoolVar(&verbose, "v", false, "Be verbose")
	flag.BoolVar(&profile, "profile", false, "Log timings")
	flag.Parse()

	if len(flag.Args()) != 0 || in == "" {
		flag.Usage()
		os.Exit(2)
	}

	dief := func(f string, v ...any) {
		fmt.Fprintf(os.Stderr, f, v...)
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if verbose {
		renderer.SetLogger(logger)
	}

	f, err := os.Open(in)
	if err != nil {
		dief("Couldn't open scene: %s", err)
	}
	scene, err := loadScene(f)
	f.Close()
	if err != nil {
		dief("Couldn't load scene: %s", err)
	}

	p := profiler.NewNop()
	if profile {
		p = profiler.New()
	}
	g := p.Start(0, in)
	img, err := scene.render(g)
	g.End()
	if err != nil {
		dief("Couldn't render scene: %s", err)
	}
	for _, res := range p.Collect() {
		logger.Info("profile", "frame", res)
	}

	w, err := os.Create(out)
	if err != nil {
		dief("Couldn't create output: %s", err)
	}
	if err := png.Encode(w, img); err != nil {
		dief("Couldn't encode image: %s", err)
	}
	if err := w.Close(); err != nil {
		dief("Couldn't write output: %s", err)
	}
}
