package simulation

import (
	"github.com/dd0wney/cluso-aco/pkg/colony"
	"github.com/dd0wney/cluso-aco/pkg/pheromone"
)

// Recorder receives session telemetry. metrics.Registry implements it.
type Recorder interface {
	RecordIteration(res colony.Result, tau pheromone.Stats)
	RecordDisruption(applied bool)
	RecordState(state string)
}

type nopRecorder struct{}

func (nopRecorder) RecordIteration(colony.Result, pheromone.Stats) {}
func (nopRecorder) RecordDisruption(bool)                          {}
func (nopRecorder) RecordState(string)                             {}
