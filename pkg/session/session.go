// Package session holds the single-screen analysis flow:
// idle -> cropping -> analyzing -> success|error -> idle.
//
// Only one analysis may be in flight per session. The vision call is made
// outside the lock so State and Result stay readable while it runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/menta2k/minimap-analyzer/pkg/selection"
	"github.com/menta2k/minimap-analyzer/pkg/types"
)

// State is a step of the analysis flow
type State string

const (
	StateIdle      State = "idle"
	StateCropping  State = "cropping"
	StateAnalyzing State = "analyzing"
	StateSuccess   State = "success"
	StateError     State = "error"
)

var (
	// ErrBusy is returned when an analysis is already running
	ErrBusy = errors.New("analysis already in progress")
	// ErrInvalidState is returned for a transition the current state does not allow
	ErrInvalidState = errors.New("invalid state transition")
)

// AnalyzeFunc performs the vision request for one screenshot
type AnalyzeFunc func(ctx context.Context, img image.Image, manual *types.MinimapBounds) (*types.AnalysisResult, error)

type Session struct {
	analyze AnalyzeFunc

	mu     sync.Mutex
	state  State
	img    image.Image
	bounds *types.MinimapBounds
	result *types.AnalysisResult
	err    error
}

func New(analyze AnalyzeFunc) *Session {
	return &Session{analyze: analyze, state: StateIdle}
}

// State returns the current step
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Upload stores a screenshot and moves to cropping
func (s *Session) Upload(img image.Image) error {
	if img == nil {
		return errors.New("nil image")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return fmt.Errorf("%w: upload in %s", ErrInvalidState, s.state)
	}
	s.img = img
	s.bounds = nil
	s.state = StateCropping
	return nil
}

// SelectRegion records a drag between two pixel points as the manual minimap
func (s *Session) SelectRegion(start, end image.Point) (types.MinimapBounds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCropping {
		return types.MinimapBounds{}, fmt.Errorf("%w: select in %s", ErrInvalidState, s.state)
	}
	b := s.img.Bounds()
	sel, err := selection.FromDrag(start.Sub(b.Min), end.Sub(b.Min), b.Dx(), b.Dy())
	if err != nil {
		return types.MinimapBounds{}, err
	}
	s.bounds = &sel
	return sel, nil
}

// ClearRegion drops the manual selection so the model locates the minimap itself
func (s *Session) ClearRegion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCropping {
		s.bounds = nil
	}
}

// Analyze runs the vision request for the uploaded screenshot. It fails with
// ErrBusy while another analysis on this session is running.
func (s *Session) Analyze(ctx context.Context) (*types.AnalysisResult, error) {
	s.mu.Lock()
	switch s.state {
	case StateAnalyzing:
		s.mu.Unlock()
		return nil, ErrBusy
	case StateCropping:
	default:
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: analyze in %s", ErrInvalidState, state)
	}
	s.state = StateAnalyzing
	img, bounds := s.img, s.bounds
	s.mu.Unlock()

	result, err := s.analyze(ctx, img, bounds)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state, s.err, s.result = StateError, err, nil
		return nil, err
	}
	s.state, s.err, s.result = StateSuccess, nil, result
	return result, nil
}

// Result returns the outcome of the last analysis: its result on success,
// or a nil result and its error on failure. Both are nil before the first analysis.
func (s *Session) Result() (*types.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

// Reset discards the screenshot and result and returns to idle.
// It is refused while an analysis is running.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAnalyzing {
		return ErrBusy
	}
	s.state = StateIdle
	s.img, s.bounds, s.result, s.err = nil, nil, nil, nil
	return nil
}
