// Package pkg provides the core libraries of lindhard.
//
// # Overview
//
// Lindhard computes the static Lindhard susceptibility chi(q) of a band
// structure sampled on a regular reciprocal-space mesh. The pkg directory
// is organized as:
//
//  1. [dx] - Grid file codec (OpenDX-style text, gzip, CSV export)
//  2. [grid] - Mesh tensors, component projection and periodic expansion
//  3. [susceptibility] - The chi(q) engine
//  4. [pipeline] - Orchestration (decode → compute → encode) with caching
//  5. [render] - Heatmaps of grid slices
//  6. [cache], [errors], [observability], [buildinfo] - Infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	bands.dx.gz
//	     ↓
//	[dx] package (decode header and band tensor)
//	     ↓
//	[grid] package (drop the repeated boundary slice)
//	     ↓
//	[susceptibility] package (chi for every q, in parallel)
//	     ↓
//	[grid] package (close the periodic cell again)
//	     ↓
//	[dx] package (grid file or CSV)
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/lindhard/pkg/cache"
//	    "github.com/matzehuels/lindhard/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    Input:       "bands.dx.gz",
//	    Output:      "chi.dx",
//	    Gamma:       0.01,
//	    Temperature: 0.025,
//	})
//
// [dx]: github.com/matzehuels/lindhard/pkg/dx
// [grid]: github.com/matzehuels/lindhard/pkg/grid
// [susceptibility]: github.com/matzehuels/lindhard/pkg/susceptibility
// [pipeline]: github.com/matzehuels/lindhard/pkg/pipeline
// [render]: github.com/matzehuels/lindhard/pkg/render
// [cache]: github.com/matzehuels/lindhard/pkg/cache
// [errors]: github.com/matzehuels/lindhard/pkg/errors
// [observability]: github.com/matzehuels/lindhard/pkg/observability
// [buildinfo]: github.com/matzehuels/lindhard/pkg/buildinfo
package pkg
