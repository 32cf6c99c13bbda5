package view

import "sync"

// Quantity bounds of a product card stepper
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// Stepper is an integer input clamped to [min, max]
type Stepper struct {
	min, max int
	value    int
	mu       sync.Mutex
}

// NewStepper creates a stepper starting at min
func NewStepper(min, max int) *Stepper {
	if max < min {
		max = min
	}
	return &Stepper{min: min, max: max, value: min}
}

// Value returns the current quantity
func (s *Stepper) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Inc adds one unless already at max
func (s *Stepper) Inc() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value < s.max {
		s.value++
	}
	return s.value
}

// Dec subtracts one unless already at min
func (s *Stepper) Dec() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value > s.min {
		s.value--
	}
	return s.value
}

// Set stores n clamped to the stepper bounds
func (s *Stepper) Set(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case n < s.min:
		s.value = s.min
	case n > s.max:
		s.value = s.max
	default:
		s.value = n
	}
	return s.value
}
