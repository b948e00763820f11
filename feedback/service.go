// Package feedback implements SyncFeedbackService (spec.md §6): a
// per-key, per-node record of the most recent submit tracker status, so
// the application can ask "did node X's last submission in slot Y
// finish?" without reaching into the taskflow internals.
//
// Grounded on the teacher's hal/registry.go backendsMu sync.RWMutex +
// map-of-handles pattern (spec.md §5: "Feedback service: per-key shared
// mutex; readers take a shared lock, writers unique").
package feedback

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/hal"
	"github.com/gogpu/rendergraph/submit"
)

// Status is a snapshot of a submit.Tracker's completion state at the
// moment it was reported.
type Status struct {
	Complete     bool
	Succeeded    int
	TotalTracked int
}

// Service holds the most recent Status for every (key, node name) pair
// the taskflow builder has reported, plus the underlying tracker each
// status came from. key is typically the in-flight slot identifier;
// name is the graph node name.
type Service struct {
	mu       sync.RWMutex
	entries  map[string]map[string]Status
	trackers map[string]map[string]*submit.Tracker
}

// New creates an empty Service.
func New() *Service {
	return &Service{
		entries:  make(map[string]map[string]Status),
		trackers: make(map[string]map[string]*submit.Tracker),
	}
}

// Report polls tracker and records its status under (key, name), keeping
// a reference to tracker itself so a later ClearFences can wait on and
// release it. Called by the taskflow executor after a Render, Transfer
// or Present node's job runs.
func (s *Service) Report(dispatch hal.Dispatch, key, name string, tracker *submit.Tracker) error {
	if tracker == nil {
		return nil
	}
	succeeded, err := tracker.QueryNumOfSuccess(dispatch)
	if err != nil {
		return fmt.Errorf("feedback: query tracker status for %s/%s: %w", key, name, err)
	}
	total := tracker.Len()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[key] == nil {
		s.entries[key] = make(map[string]Status)
		s.trackers[key] = make(map[string]*submit.Tracker)
	}
	s.entries[key][name] = Status{Complete: succeeded == total, Succeeded: succeeded, TotalTracked: total}
	s.trackers[key][name] = tracker
	return nil
}

// ClearFences waits on and releases every tracker this Service has ever
// been handed through Report, then forgets their recorded Status. Meant
// to be called during teardown, mirroring the original engine's bulk
// fence cleanup across every registered submit tracker.
func (s *Service) ClearFences(dispatch hal.Dispatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for key, byName := range s.trackers {
		for name, tracker := range byName {
			if err := tracker.Clear(dispatch); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("feedback: clear fences for %s/%s: %w", key, name, err)
			}
		}
	}
	s.entries = make(map[string]map[string]Status)
	s.trackers = make(map[string]map[string]*submit.Tracker)
	return firstErr
}

// Get returns the most recently reported Status for (key, name).
func (s *Service) Get(key, name string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byName, ok := s.entries[key]
	if !ok {
		return Status{}, false
	}
	status, ok := byName[name]
	return status, ok
}
