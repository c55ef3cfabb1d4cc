package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alisaleks/Agenda-App/pkg/schema"
	"github.com/alisaleks/Agenda-App/pkg/timeutil"
)

// Manifest describes one pipeline run: its window, what every stage kept and
// dropped, and the files it wrote. The dashboard reads it to report freshness.
type Manifest struct {
	RunID      uuid.UUID          `json:"runId"`
	StartedAt  time.Time          `json:"startedAt"`
	FinishedAt time.Time          `json:"finishedAt"`
	Window     timeutil.Window    `json:"window"`
	RunDate    timeutil.Date      `json:"runDate"`
	Policy     AbsencePolicy      `json:"policy"`
	Sources    []schema.DropStats `json:"sources"`
	Shifts     ShiftStats         `json:"shifts"`
	Absences   AbsenceStats       `json:"absences"`
	Ledger     JoinStats          `json:"ledger"`
	HCM        *HCMStats          `json:"hcm,omitempty"`
	Clock      *ClockStats        `json:"clock,omitempty"`
	LedgerRows int                `json:"ledgerRows"`
	Outputs    map[string]string  `json:"outputs"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// NewManifest starts a manifest with a fresh run id.
func NewManifest(started time.Time, runDate timeutil.Date, window timeutil.Window, policy AbsencePolicy) *Manifest {
	return &Manifest{
		RunID:     uuid.New(),
		StartedAt: started,
		RunDate:   runDate,
		Window:    window,
		Policy:    policy,
		Outputs:   make(map[string]string),
	}
}

// SerializeManifest encodes a manifest as indented JSON.
func SerializeManifest(m *Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize manifest: %w", err)
	}
	return data, nil
}

// DeserializeManifest decodes a manifest written by SerializeManifest.
func DeserializeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("deserialize manifest: %w", err)
	}
	if m.Outputs == nil {
		m.Outputs = make(map[string]string)
	}
	return &m, nil
}
