// Package model provides fitted-state tracking and persistence shared by
// mtrf estimators.
//
// Estimators hold a *StateManager by composition and flip it to fitted only
// after a training run has fully succeeded. Trained estimators are persisted
// with encoding/gob through SaveModel and LoadModel.
package model

import (
	"sync"

	"github.com/ezoic/mtrf/pkg/errors"
)

// StateManager manages the fitted state of a model in a thread-safe manner.
type StateManager struct {
	Fitted bool // Public for gob encoding
	mu     sync.RWMutex

	// Dimensions seen during fitting. Public for gob encoding.
	NFeatures int
	NOutputs  int
	NTrials   int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the model as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NOutputs = 0
	s.NTrials = 0
}

// SetDimensions records the input feature, output feature and trial counts
// seen during fitting.
func (s *StateManager) SetDimensions(nFeatures, nOutputs, nTrials int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NOutputs = nOutputs
	s.NTrials = nTrials
}

// GetDimensions returns the counts recorded by SetDimensions.
func (s *StateManager) GetDimensions() (nFeatures, nOutputs, nTrials int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NOutputs, s.NTrials
}

// RequireFitted returns a NotFittedError naming modelName and method if the
// model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// ModelState is a lock-free snapshot of a StateManager.
type ModelState struct {
	Fitted    bool `json:"fitted"`
	NFeatures int  `json:"n_features,omitempty"`
	NOutputs  int  `json:"n_outputs,omitempty"`
	NTrials   int  `json:"n_trials,omitempty"`
}

// GetState returns the current state as a ModelState struct.
func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ModelState{
		Fitted:    s.Fitted,
		NFeatures: s.NFeatures,
		NOutputs:  s.NOutputs,
		NTrials:   s.NTrials,
	}
}

// SetState sets the state from a ModelState struct.
func (s *StateManager) SetState(state ModelState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Fitted = state.Fitted
	s.NFeatures = state.NFeatures
	s.NOutputs = state.NOutputs
	s.NTrials = state.NTrials
}

// Clone returns an independent StateManager with the same state.
func (s *StateManager) Clone() *StateManager {
	c := NewStateManager()
	c.SetState(s.GetState())
	return c
}
