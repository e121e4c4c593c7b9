// Command wallsim drives a simulated microphone array along a trajectory
// past a wall and fuses the per-pose echo measurements into distance and
// angle estimates. Estimates can optionally be persisted to sqlite for
// later comparison across tuning configs.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joeinus134131/audioROS/internal/array"
	"github.com/joeinus134131/audioROS/internal/config"
	"github.com/joeinus134131/audioROS/internal/estimator"
	"github.com/joeinus134131/audioROS/internal/rundb"
	"github.com/joeinus134131/audioROS/internal/simulation"
	"github.com/joeinus134131/audioROS/internal/version"
)

var (
	showVersion  = flag.Bool("version", false, "Print version information and exit")
	configFile   = flag.String("config", "", "Path to a tuning config JSON file (optional)")
	dbFile       = flag.String("db", "", "Path to a sqlite file to record estimates into (optional)")
	mode         = flag.String("mode", "onehot", "Measurement mode: onehot or gaussian")
	wallDistance = flag.Float64("wall-distance", 30, "Wall distance from the origin in cm")
	wallAngle    = flag.Float64("wall-angle", 90, "Wall normal azimuth in degrees")
	sigmaCM      = flag.Float64("sigma-cm", 10, "Measurement spread in cm (gaussian mode)")
)

// StepEstimate is one fused estimate, produced once the measurement window
// holds at least one measurement per slot.
type StepEstimate struct {
	Step       int
	Pose       array.Pose
	DistanceCM float64
	AngleDeg   float64
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("wallsim", version.String())
		return
	}

	cfg := config.EmptyTuningConfig()
	if *configFile != "" {
		loaded, err := config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
		log.Printf("Loaded tuning config from %s", *configFile)
	}

	geo := array.DefaultGeometry()
	geo.SpeedOfSound = cfg.GetSpeedOfSound()

	sc := simulation.DiamondScenario(geo)
	sc.Wall = simulation.Wall{DistanceCM: *wallDistance, AzimuthDeg: *wallAngle}
	sc.SigmaCM = *sigmaCM
	switch *mode {
	case "onehot":
		sc.Mode = simulation.ModeOneHot
	case "gaussian":
		sc.Mode = simulation.ModeGaussian
	default:
		log.Fatalf("Unknown mode %q (want onehot or gaussian)", *mode)
	}

	estimates, err := runStudy(geo, cfg, sc)
	if err != nil {
		log.Fatalf("Study failed: %v", err)
	}
	for _, e := range estimates {
		log.Printf("step %d pose (%.1f, %.1f, yaw %.1f): distance %.1f cm, angle %.1f deg",
			e.Step, e.Pose.X, e.Pose.Y, e.Pose.YawDeg, e.DistanceCM, e.AngleDeg)
	}

	if *dbFile != "" {
		if err := persist(*dbFile, cfg, sc, estimates); err != nil {
			log.Fatalf("Failed to record run: %v", err)
		}
	}
}

// runStudy feeds every scenario measurement into a fresh estimator and
// collects the fused estimates from the step where the window fills.
func runStudy(geo *array.Geometry, cfg *config.TuningConfig, sc simulation.Scenario) ([]StepEstimate, error) {
	nWindow := cfg.GetNWindow()
	est, err := estimator.New(geo, estimator.Config{
		NWindow:     nWindow,
		DistancesCM: cfg.GetDistanceGrid(),
		AnglesDeg:   cfg.GetAngleGrid(),
	})
	if err != nil {
		return nil, err
	}

	var out []StepEstimate
	for i := range sc.Poses {
		pose, mics, err := sc.MeasurementAt(i)
		if err != nil {
			return nil, fmt.Errorf("measurement at step %d: %w", i, err)
		}
		est.AddMeasurement(pose, mics)
		if i < nWindow-1 {
			continue
		}

		distancePMF, anglePMF, err := est.MarginalDistributions()
		if err != nil {
			return nil, fmt.Errorf("fusion at step %d: %w", i, err)
		}
		out = append(out, StepEstimate{
			Step:       i,
			Pose:       pose,
			DistanceCM: est.DistanceEstimate(distancePMF),
			AngleDeg:   est.AngleEstimate(anglePMF),
		})
	}
	return out, nil
}

func persist(path string, cfg *config.TuningConfig, sc simulation.Scenario, estimates []StepEstimate) error {
	db, err := rundb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.CreateRun(cfg.GetMethod().String(), cfg.GetNWindow(), sc.Wall.DistanceCM, sc.Wall.AzimuthDeg)
	if err != nil {
		return err
	}
	for _, e := range estimates {
		err := db.RecordEstimate(rundb.Estimate{
			RunID:      runID,
			Step:       e.Step,
			Pose:       e.Pose,
			DistanceCM: e.DistanceCM,
			AngleDeg:   e.AngleDeg,
		})
		if err != nil {
			return err
		}
	}
	log.Printf("Recorded run %s (%d estimates) to %s", runID, len(estimates), path)
	return nil
}
