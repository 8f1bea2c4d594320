package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/numkit/internal/ode"
)

type ExportData struct {
	RunMetadata
	Samples int         `json:"samples"`
	Times   []float64   `json:"times,omitempty"`
	States  [][]float64 `json:"states,omitempty"`
}

// ExportJSON writes meta and the optional trajectory as one indented JSON
// document.
func ExportJSON(w io.Writer, meta *RunMetadata, traj *ode.Trajectory) error {
	data := ExportData{RunMetadata: *meta}
	if traj != nil {
		data.Samples = len(traj.Times)
		data.Times = traj.Times
		data.States = traj.States
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
