package stage

import (
	"storyreel/internal/script"
	"storyreel/internal/services"
)

// LoadScript reads and validates the scenes file produced by the scripting
// stage. On failure it returns a services.ErrValidation suitable for stage
// Execute methods.
func LoadScript(path string) (*script.Script, error) {
	if path == "" {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "load script",
			"Scene script missing; rerun scripting", nil)
	}
	s, err := script.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "load script",
			"Scene script missing or invalid; rerun scripting", err)
	}
	return s, nil
}
