package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/awesome-archive/cczero/internal/nn"
	"github.com/awesome-archive/cczero/internal/selfplay"
	"github.com/awesome-archive/cczero/internal/storage"
)

var (
	games      = flag.Int("games", 1, "number of self-play games")
	playouts   = flag.Int("playouts", 400, "playouts per move")
	workers    = flag.Int("workers", 2, "search worker goroutines")
	maxPlies   = flag.Int("max-plies", 300, "ply cap per game, longer games are drawn")
	dataDir    = flag.String("data", "cczero-data", "training data directory, empty to skip storing")
	seed       = flag.Uint64("seed", 0, "move sampling seed, 0 for time-based")
	useMat     = flag.Bool("material", true, "use the material evaluator instead of uniform")
	debug      = flag.Bool("debug", false, "debug logging")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// CPU profiling via flag or environment variable.
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	var store *storage.Store
	if *dataDir != "" {
		var err error
		store, err = storage.Open(*dataDir)
		if err != nil {
			log.Fatal().Err(err).Msg("open training store")
		}
		defer store.Close()
	}

	sampleSeed := *seed
	if sampleSeed == 0 {
		sampleSeed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewSource(sampleSeed))

	var eval nn.Evaluator = nn.Uniform{}
	if *useMat {
		eval = nn.Material{}
	}

	cfg := selfplay.DefaultConfig()
	cfg.Playouts = *playouts
	cfg.Workers = *workers
	cfg.MaxPlies = *maxPlies

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	for game := 1; game <= *games; game++ {
		start := time.Now()
		records, outcome, err := selfplay.Play(ctx, eval, cfg, rng)
		if err != nil {
			log.Fatal().Err(err).Int("game", game).Msg("self-play game failed")
		}

		log.Info().
			Int("game", game).
			Stringer("outcome", outcome).
			Int("plies", len(records)).
			Dur("took", time.Since(start)).
			Msg("game finished")

		if store == nil {
			continue
		}
		for ply := range records {
			if err := store.AppendTraining(uint64(game), ply, &records[ply]); err != nil {
				log.Fatal().Err(err).Msg("store training record")
			}
		}
	}

	if store != nil {
		count, err := store.CountTraining()
		if err == nil {
			log.Info().Int("records", count).Msg("training store updated")
		}
	}
}
