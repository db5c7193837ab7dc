package learner

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openeeap/openppo/internal/optim"
	"github.com/openeeap/openppo/pkg/errors"
	"github.com/openeeap/openppo/pkg/types"
)

// ============================================================================
// Resume State
// ============================================================================

// resumeStateKey is the only key of the checkpoint blob this core owns.
const resumeStateKey = "optim_state"

// ResumeState is the serializable checkpoint mapping. A state without the
// optimizer key models "fresh optimizer, warm-started weights".
type ResumeState map[string]optim.State

// ResumeState captures the optimizer state verbatim.
func (u *ppoUpdater) ResumeState() ResumeState {
	return ResumeState{resumeStateKey: u.optimizer.StateDict()}
}

// LoadResumeState restores the optimizer state when present; a state
// lacking it leaves the optimizer untouched.
func (u *ppoUpdater) LoadResumeState(state ResumeState) error {
	s, ok := state[resumeStateKey]
	if !ok {
		u.logger.Info("resume state has no optimizer state, keeping fresh optimizer")
		return nil
	}
	if err := u.optimizer.LoadStateDict(s); err != nil {
		return errors.NewFromCode(errors.ErrCkptDecodeFailed).WithCause(err)
	}
	return nil
}

// ============================================================================
// On-Disk Checkpoints
// ============================================================================

// checkpointFile is the YAML manifest written around a resume state.
type checkpointFile struct {
	ID      types.ID    `yaml:"id"`
	SavedAt string      `yaml:"saved_at"`
	State   ResumeState `yaml:"state"`
}

// SaveResumeState writes state to path as a YAML checkpoint.
func SaveResumeState(path string, state ResumeState) error {
	data, err := yaml.Marshal(checkpointFile{
		ID:      types.NewID(),
		SavedAt: time.Now().UTC().Format(time.RFC3339Nano),
		State:   state,
	})
	if err != nil {
		return errors.NewFromCode(errors.ErrCkptEncodeFailed).WithCause(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewFromCode(errors.ErrCkptEncodeFailed).WithCause(err).
			WithDetails("path", path)
	}
	return nil
}

// LoadResumeStateFile reads a YAML checkpoint written by SaveResumeState.
func LoadResumeStateFile(path string) (ResumeState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFromCode(errors.ErrCkptFileNotFound).WithDetails("path", path)
		}
		return nil, errors.NewFromCode(errors.ErrCkptDecodeFailed).WithCause(err)
	}

	var file checkpointFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.NewFromCode(errors.ErrCkptDecodeFailed).WithCause(err).
			WithDetails("path", path)
	}
	return file.State, nil
}

//Personal.AI order the ending
