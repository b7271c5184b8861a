// Package measurement collects timing statistics of named measure points,
// e.g. capturing a frame or fetching a provider tile.
package measurement

import (
	"slices"
	"strings"
	"sync"

	"github.com/samber/do/v2"
)

// Config of the measurement service
type Config struct {
	Active bool `yaml:"active"`
}

type Service struct {
	active bool
	plock  sync.Mutex
	points map[string]*Point
}

// Data the statistics of one point, durations in milliseconds
type Data struct {
	Name      string `json:"name"`
	Min       int64  `json:"min"`
	Max       int64  `json:"max"`
	Average   int64  `json:"average"`
	Total     int64  `json:"total"`
	Count     int    `json:"count"`
	Errors    int    `json:"errors"`
	MaxActive int    `json:"maxActive"`
}

// Init provides the service, active according to the config in the injector
func Init(inj do.Injector) {
	cfg, err := do.Invoke[*Config](inj)
	active := err == nil && cfg.Active
	do.ProvideValue(inj, New(active))
}

func New(active bool) *Service {
	return &Service{
		active: active,
		points: make(map[string]*Point),
	}
}

// Start creates and starts a monitor on the named point
func (s *Service) Start(name string) Monitor {
	m := s.Point(name).Monitor()
	m.Start()
	return m
}

// Point get or create the named point
func (s *Service) Point(name string) *Point {
	s.plock.Lock()
	defer s.plock.Unlock()
	p, ok := s.points[name]
	if !ok {
		p = NewPoint(name, s.active)
		s.points[name] = p
	}
	return p
}

// Datas statistics of all points sorted by name
func (s *Service) Datas() []Data {
	s.plock.Lock()
	datas := make([]Data, 0, len(s.points))
	for _, v := range s.points {
		datas = append(datas, v.Data())
	}
	s.plock.Unlock()
	slices.SortFunc(datas, func(d1, d2 Data) int {
		return strings.Compare(d1.Name, d2.Name)
	})
	return datas
}

// Reset resets all points
func (s *Service) Reset() {
	s.plock.Lock()
	defer s.plock.Unlock()
	for _, v := range s.points {
		v.Reset()
	}
}
