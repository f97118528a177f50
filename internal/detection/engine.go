package detection

import (
	"context"

	"github.com/audioai/aircheck/internal/models"
)

// Match is one detected occurrence of a master clip inside a broadcast.
type Match struct {
	MasterID         int64
	ClipType         models.ClipType
	StartTimeSeconds float64
	EndTimeSeconds   float64
	CorrelationScore float64
	RawCorrelation   float64
	MFCCCorrelation  float64
	OverlapDuration  float64
}

// Master is the reference clip the engine searches for.
type Master struct {
	ID       int64
	ClipType models.ClipType
	FilePath string
}

// Engine analyzes a broadcast recording against a set of master clips.
// The production analysis pipeline runs out of process; Correlator is the
// in-process reference implementation.
type Engine interface {
	Analyze(ctx context.Context, broadcastPath string, masters []Master) ([]Match, error)
}
