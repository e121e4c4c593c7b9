package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joeinus134131/audioROS/internal/array"
	"github.com/joeinus134131/audioROS/internal/config"
	"github.com/joeinus134131/audioROS/internal/simulation"
)

func TestRunStudyRecoversWall(t *testing.T) {
	geo := array.DefaultGeometry()
	cfg := config.EmptyTuningConfig()
	sc := simulation.DiamondScenario(geo)

	got, err := runStudy(geo, cfg, sc)
	if err != nil {
		t.Fatalf("runStudy: %v", err)
	}

	// Default window is 3, so the first two steps produce no estimate.
	want := []StepEstimate{
		{Step: 2, Pose: sc.Poses[2], DistanceCM: 30, AngleDeg: 90},
		{Step: 3, Pose: sc.Poses[3], DistanceCM: 30, AngleDeg: 90},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("estimates mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStudyGaussianMode(t *testing.T) {
	geo := array.DefaultGeometry()
	cfg := config.EmptyTuningConfig()
	sc := simulation.DiamondScenario(geo)
	sc.Mode = simulation.ModeGaussian

	got, err := runStudy(geo, cfg, sc)
	if err != nil {
		t.Fatalf("runStudy: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d estimates, want 2", len(got))
	}
	for _, e := range got {
		if e.DistanceCM != 30 || e.AngleDeg != 90 {
			t.Errorf("step %d: estimate (%v cm, %v deg), want (30, 90)", e.Step, e.DistanceCM, e.AngleDeg)
		}
	}
}

func TestRunStudyWindowOfOne(t *testing.T) {
	geo := array.DefaultGeometry()
	one := 1
	cfg := &config.TuningConfig{NWindow: &one}
	sc := simulation.DiamondScenario(geo)

	got, err := runStudy(geo, cfg, sc)
	if err != nil {
		t.Fatalf("runStudy: %v", err)
	}
	if len(got) != len(sc.Poses) {
		t.Fatalf("got %d estimates, want one per pose (%d)", len(got), len(sc.Poses))
	}
}
