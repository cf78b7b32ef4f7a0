// Command seed publishes a generated roster plus midterm and final
// submission snapshots to a running tally service.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/nvara/tally/internal/domain/model"
	"github.com/nvara/tally/internal/seed"
	"github.com/nvara/tally/pkg/logger"
)

// Default configuration constants.
const (
	defaultEntities = 200
	defaultSeed     = 42
	defaultTimeout  = 30 * time.Second
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		entities = flag.Int("entities", defaultEntities, "Number of roster entities to generate")
		seedVal  = flag.Int64("seed", defaultSeed, "Random seed for reproducible data")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		skipMid  = flag.Bool("skip-midterm", false, "Do not publish a midterm snapshot")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	gen := seed.NewGenerator(*seedVal)
	roster := gen.Roster(*entities)
	final := gen.Submissions(roster, model.PeriodFinal)

	pub := seed.NewPublisher(*baseURL, *timeout)

	if err := pub.Publish(ctx, "roster", roster); err != nil {
		log.Error(ctx, "roster publish failed", logger.Error(err))
		os.Exit(1)
	}
	if !*skipMid {
		midterm := gen.Submissions(roster, model.PeriodMidterm)
		if err := pub.Publish(ctx, "midterm", midterm); err != nil {
			log.Error(ctx, "midterm publish failed", logger.Error(err))
			os.Exit(1)
		}
	}
	if err := pub.Publish(ctx, "final", final); err != nil {
		log.Error(ctx, "final publish failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "snapshots published",
		logger.Int("entities", len(roster)),
		logger.String("url", *baseURL),
	)
}
