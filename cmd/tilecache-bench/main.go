// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
tilecache-bench drives a tilecache.Cache against a BAM/PAM file the way a
genome-browser viewer would: repeated queries over a sliding window on one
reference sequence, reporting per-query record counts and the number of
tiles cached after each query.
*/

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/bio/encoding/bamprovider"

	"github.com/grailbio/aligncache/reader"
	"github.com/grailbio/aligncache/tilecache"
)

var (
	indexPath    = flag.String("index", "", "Input BAM index path. Defaults to bampath + .bai")
	sequence     = flag.String("sequence", "", "Reference sequence name to query")
	start        = flag.Int("start", 0, "0-based start of the first query window")
	windowKB     = flag.Float64("window-kb", 2, "Visibility window size, in kilobases")
	steps        = flag.Int("steps", 20, "Number of sliding-window queries to issue")
	maxReadDepth = flag.Int("max-read-depth", 200, "Target read depth per 10-base sampling bucket (the sampler adds a 10% margin)")
	showDups     = flag.Bool("show-duplicates", false, "Retain PCR/optical duplicate reads")
	minMapQ      = flag.Int("min-mapq", 0, "Minimum mapping quality to retain a read")
)

func usage() {
	fmt.Printf("Usage: %s [OPTIONS] {b,p}ampath\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("exactly one positional argument ({b,p}ampath) required")
	}
	bamPath := flag.Arg(0)
	if *sequence == "" {
		log.Fatalf("-sequence is required")
	}

	var opts bamprovider.ProviderOpts
	if *indexPath != "" {
		opts.Index = *indexPath
	}
	provider := bamprovider.NewProvider(bamPath, opts)
	defer func() {
		if err := provider.Close(); err != nil {
			log.Error.Printf("closing provider: %v", err)
		}
	}()

	r := reader.NewFromProvider(provider)
	coord := tilecache.NewCoordinator(tilecache.RuntimeMemoryProbe{})
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	cache := tilecache.NewCache(r, coord, rng, nil)
	defer func() {
		if err := cache.Close(); err != nil {
			log.Error.Printf("closing cache: %v", err)
		}
	}()

	cfg := tilecache.Config{
		MaxVisibleRangeKB: *windowKB,
		ShowDuplicates:    *showDups,
		QualityThreshold:  *minMapQ,
	}

	windowBases := int(*windowKB * 1000)
	pos := *start
	for i := 0; i < *steps; i++ {
		result, err := cache.Query(*sequence, pos, pos+windowBases, *maxReadDepth, cfg)
		if err != nil {
			log.Fatalf("query %d [%d,%d): %v", i, pos, pos+windowBases, err)
		}
		n := 0
		for result.Iterator.Scan() {
			n++
		}
		log.Printf("step %d: %s:%d-%d -> %d records, %d tiles cached", i, *sequence, pos, pos+windowBases, n, cache.Len())
		pos += windowBases
	}
}
