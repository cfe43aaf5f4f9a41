// Package requirements defines the per-stage required document sets. The
// sets are configuration shipped with the binary, not document state.
package requirements

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed requirements.yaml
var requirementsYAML []byte

// Stage names the lifecycle stage a required set applies to.
type Stage string

const (
	StageCounsellor Stage = "counsellor"
	StageAdmission  Stage = "admission"
	StageLoan       Stage = "loan"
)

// Set holds the required doc ids per stage.
type Set struct {
	byStage map[Stage][]string
}

// Load parses the embedded stage requirements.
func Load() (*Set, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(requirementsYAML, &raw); err != nil {
		return nil, fmt.Errorf("parse document requirements: %w", err)
	}

	byStage := make(map[Stage][]string, len(raw))
	for stage, docIDs := range raw {
		byStage[Stage(stage)] = docIDs
	}

	for _, stage := range []Stage{StageCounsellor, StageAdmission, StageLoan} {
		if len(byStage[stage]) == 0 {
			return nil, fmt.Errorf("document requirements missing stage %q", stage)
		}
	}
	return &Set{byStage: byStage}, nil
}

// For returns the required doc ids for a stage. Unknown stages require
// nothing.
func (s *Set) For(stage Stage) []string {
	return s.byStage[stage]
}
