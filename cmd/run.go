package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/collider-sim/collider-sim/sim"
)

var (
	// CLI flags for offline runs
	seed       int64   // Seed for event generation
	numEvents  int     // Number of events to generate
	comEnergy  float64 // Center-of-mass energy in GeV
	runNumber  int64   // Run number stamped on every event
	eventType  string  // Event type: dilepton, qcd, or random
	minJetPt   float64 // Trigger jet floor in GeV
	minMET     float64 // Trigger missing-ET threshold in GeV
	outputPath string  // Optional JSONL output file
)

// runRecord is one JSONL output line: the event joined with its kinematics
// and trigger decision.
type runRecord struct {
	Event      json.RawMessage `json:"event"`
	Kinematics sim.Kinematics  `json:"kinematics"`
	Triggered  bool            `json:"triggered"`
}

// runCmd generates events offline, reconstructs them, and applies the trigger
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate and reconstruct events offline",
	Run: func(cmd *cobra.Command, args []string) {
		start := time.Now()

		rng := sim.NewPartitionedRNG(sim.NewRunKey(seed))
		generator := sim.NewEventGenerator(sim.GeneratorConfig{
			COMEnergy: comEnergy,
			RunNumber: runNumber,
		}, rng.ForSubsystem(sim.SubsystemGenerator))

		thresholds := sim.TriggerThresholds{MinJetPt: minJetPt, MinMET: minMET}

		var out *os.File
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				logrus.Fatalf("create output file: %v", err)
			}
			defer f.Close()
			out = f
		}

		logrus.Infof("Generating %d %s events at sqrt(s)=%.0f GeV (run %d, seed %d)",
			numEvents, eventType, comEnergy, runNumber, seed)

		metrics := sim.NewRunMetrics()
		var encoder *json.Encoder
		if out != nil {
			encoder = json.NewEncoder(out)
		}
		for i := 0; i < numEvents; i++ {
			ev, err := generator.GenerateEvent(sim.EventType(eventType))
			if err != nil {
				logrus.Fatalf("generate event: %v", err)
			}
			metrics.RecordEvent(ev)

			k := sim.CalculateKinematics(ev)
			accepted := sim.PassesTrigger(k, thresholds)
			metrics.RecordKinematics(k, accepted)

			if out != nil {
				payload, err := sim.EncodeEvent(ev)
				if err != nil {
					logrus.Fatalf("encode event %s: %v", ev.EventID, err)
				}
				if err := encoder.Encode(runRecord{
					Event:      payload,
					Kinematics: k,
					Triggered:  accepted,
				}); err != nil {
					logrus.Fatalf("write output: %v", err)
				}
			}
		}

		metrics.Print(start)
		if outputPath != "" {
			fmt.Printf("Wrote %d records to %s\n", numEvents, outputPath)
		}
	},
}

func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for event generation")
	runCmd.Flags().IntVar(&numEvents, "events", 100, "Number of events to generate")
	runCmd.Flags().Float64Var(&comEnergy, "com-energy", 13000.0, "Center-of-mass energy in GeV")
	runCmd.Flags().Int64Var(&runNumber, "run-number", 1, "Run number stamped on every event")
	runCmd.Flags().StringVar(&eventType, "event-type", "random", "Event type (dilepton, qcd, random)")
	runCmd.Flags().Float64Var(&minJetPt, "min-jet-pt", 20.0, "Trigger jet floor in GeV")
	runCmd.Flags().Float64Var(&minMET, "min-met", 100.0, "Trigger missing-ET threshold in GeV")
	runCmd.Flags().StringVar(&outputPath, "output", "", "JSONL output file (omit to skip writing)")

	rootCmd.AddCommand(runCmd)
}
