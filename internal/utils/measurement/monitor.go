package measurement

import "time"

type Monitor interface {
	Start()
	Stop() bool
	IsRunning() bool
	Accrued() time.Duration
	SetError()
}

var (
	_ Monitor = (*defaultMonitor)(nil)
	_ Monitor = (*nullMonitor)(nil)
)

type defaultMonitor struct {
	start   time.Time
	accrued time.Duration
	running bool
	point   *Point
}

type nullMonitor struct {
	started bool
}

func (m *nullMonitor) Start() {
	m.started = true
}

func (m *nullMonitor) Stop() bool {
	m.started = false
	return true
}

func (m *nullMonitor) IsRunning() bool {
	return m.started
}

func (m *nullMonitor) Accrued() time.Duration {
	return 0
}

func (m *nullMonitor) SetError() {
	// no op
}

// Start the time measurement for this monitor
func (m *defaultMonitor) Start() {
	m.start = time.Now()
	m.running = true
	m.point.activate()
}

// IsRunning true if the monitor is measuring
func (m *defaultMonitor) IsRunning() bool {
	return m.running
}

// Stop the time measurement of this monitor, false if it was not running
func (m *defaultMonitor) Stop() bool {
	if !m.running {
		return false
	}
	m.accrued += time.Since(m.start)
	m.running = false
	m.point.process(m.accrued)
	return true
}

// Accrued getting the accrued duration
func (m *defaultMonitor) Accrued() time.Duration {
	return m.accrued
}

// SetError counts an error on the point of this monitor
func (m *defaultMonitor) SetError() {
	m.point.IncError(1)
}
