// Package clock предоставляет источник времени, который можно подменить в тестах.
package clock

import (
	"sync"
	"time"
)

// Clock возвращает текущий момент вычисления.
type Clock interface {
	Now() time.Time
}

// Real системные часы.
type Real struct{}

// Now возвращает текущее время в UTC.
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed часы, которые стоят на месте до явного сдвига.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed создаёт часы, показывающие t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

// Now возвращает текущее показание.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance сдвигает часы на d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Set выставляет часы на t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}
