package cmd

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/collider-sim/collider-sim/sim"
	"github.com/collider-sim/collider-sim/sim/bus"
)

var (
	// CLI flags for the producer service
	produceSeed      int64         // Seed for event generation
	produceRedisAddr string        // Redis address for the bus
	produceChannel   string        // Bus channel for events
	batchSize        int           // Events per published batch
	batchInterval    time.Duration // Pause between batches per worker
	maxBatches       int           // Batches per worker before stopping (0 = unlimited)
	workers          int           // Concurrent producer workers
	produceEnergy    float64       // Center-of-mass energy in GeV
	produceRun       int64         // Run number shared by all workers
	detectorPath     string        // Optional detector config YAML
)

// produceCmd runs the collision producer service
var produceCmd = &cobra.Command{
	Use:   "produce",
	Short: "Generate events continuously and publish them to the bus",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		detector := sim.DefaultDetectorConfig()
		if detectorPath != "" {
			cfg, err := sim.LoadDetectorConfig(detectorPath)
			if err != nil {
				logrus.Fatalf("load detector config: %v", err)
			}
			detector = *cfg
		}

		publisher := bus.NewPublisher(produceRedisAddr, produceChannel)
		defer publisher.Close()

		// Announce the detector layout before any events go out.
		configPublisher := bus.NewPublisher(produceRedisAddr, bus.ChannelDetectorConfig)
		if err := publishDetectorConfig(ctx, configPublisher, detector); err != nil {
			logrus.Warnf("publish detector config: %v", err)
		}
		configPublisher.Close()

		logrus.Infof("Producing batches of %d events every %v on %q (workers=%d, seed=%d)",
			batchSize, batchInterval, produceChannel, workers, produceSeed)

		// Derive all worker streams up front; PartitionedRNG is not safe to
		// share once workers start.
		rng := sim.NewPartitionedRNG(sim.NewRunKey(produceSeed))
		generators := make([]*sim.EventGenerator, workers)
		for i := range generators {
			generators[i] = sim.NewEventGenerator(sim.GeneratorConfig{
				COMEnergy: produceEnergy,
				RunNumber: produceRun,
			}, rng.ForSubsystem(sim.SubsystemWorker(i)))
		}

		var wg sync.WaitGroup
		results := make([]*sim.RunMetrics, workers)
		start := time.Now()
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				results[id] = produceLoop(ctx, generators[id], publisher)
			}(i)
		}
		wg.Wait()

		total := sim.NewRunMetrics()
		for _, m := range results {
			if m != nil {
				total.Merge(m)
			}
		}
		total.Print(start)
	},
}

// produceLoop publishes batches until the context is cancelled or the batch
// budget is spent.
func produceLoop(ctx context.Context, generator *sim.EventGenerator, publisher *bus.Publisher) *sim.RunMetrics {
	metrics := sim.NewRunMetrics()
	limiter := rate.NewLimiter(rate.Every(batchInterval), 1)

	for batch := 0; maxBatches == 0 || batch < maxBatches; batch++ {
		if err := limiter.Wait(ctx); err != nil {
			return metrics // context cancelled
		}

		events, err := generator.GenerateBatch(batchSize)
		if err != nil {
			logrus.Errorf("generate batch: %v", err)
			continue
		}
		for _, ev := range events {
			metrics.RecordEvent(ev)
		}

		sent, err := publisher.PublishBatch(ctx, events)
		if err != nil {
			logrus.Errorf("published %d/%d events: %v", sent, len(events), err)
			if ctx.Err() != nil {
				return metrics
			}
			continue
		}
		logrus.Debugf("batch complete, %d events published (total %d)", sent, metrics.EventsGenerated)
	}
	return metrics
}

// publishDetectorConfig announces the detector layout on the config channel.
func publishDetectorConfig(ctx context.Context, publisher *bus.Publisher, cfg sim.DetectorConfig) error {
	return publisher.PublishRaw(ctx, cfg)
}

func init() {
	produceCmd.Flags().Int64Var(&produceSeed, "seed", 42, "Seed for event generation")
	produceCmd.Flags().StringVar(&produceRedisAddr, "redis-addr", "localhost:6379", "Redis address for the bus")
	produceCmd.Flags().StringVar(&produceChannel, "channel", bus.ChannelCollisionEvents, "Bus channel for events")
	produceCmd.Flags().IntVar(&batchSize, "batch-size", 10, "Events per published batch")
	produceCmd.Flags().DurationVar(&batchInterval, "batch-interval", 5*time.Second, "Pause between batches per worker")
	produceCmd.Flags().IntVar(&maxBatches, "max-batches", 0, "Batches per worker before stopping (0 = unlimited)")
	produceCmd.Flags().IntVar(&workers, "workers", 1, "Concurrent producer workers")
	produceCmd.Flags().Float64Var(&produceEnergy, "com-energy", 13000.0, "Center-of-mass energy in GeV")
	produceCmd.Flags().Int64Var(&produceRun, "run-number", 1, "Run number shared by all workers")
	produceCmd.Flags().StringVar(&detectorPath, "detector-config", "", "Detector config YAML (omit for the default layout)")

	rootCmd.AddCommand(produceCmd)
}
