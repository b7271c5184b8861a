package measurement

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

const (
	PointName = "captureFrame"
)

func TestInactive(t *testing.T) {
	ast := assert.New(t)
	s := New(false)
	ast.False(s.active)

	m := s.Start(PointName)
	ast.True(m.IsRunning())
	time.Sleep(20 * time.Millisecond)
	ast.True(m.Stop())
	ast.Equal(time.Duration(0), m.Accrued())

	dat := s.Point(PointName).Data()
	ast.Equal(0, dat.Count)
	ast.Equal(PointName, dat.Name)
	ast.Equal(int64(0), dat.Average)

	dats := s.Datas()
	ast.Len(dats, 1)
	ast.Equal(PointName, dats[0].Name)
}

func TestSimple(t *testing.T) {
	ast := assert.New(t)
	s := New(true)

	m := s.Start(PointName)
	time.Sleep(100 * time.Millisecond)
	ast.True(m.Stop())
	ast.False(m.Stop())
	ast.GreaterOrEqual(m.Accrued(), 100*time.Millisecond)

	m = s.Start(PointName)
	time.Sleep(100 * time.Millisecond)
	m.SetError()
	m.Stop()

	dat := s.Point(PointName).Data()
	ast.Equal(2, dat.Count)
	ast.Equal(1, dat.Errors)
	ast.Equal(1, dat.MaxActive)
	ast.GreaterOrEqual(dat.Min, int64(100))
	ast.GreaterOrEqual(dat.Max, dat.Min)
	ast.GreaterOrEqual(dat.Average, int64(100))
	ast.GreaterOrEqual(dat.Total, int64(200))
}

func TestReset(t *testing.T) {
	ast := assert.New(t)
	s := New(true)

	m := s.Start(PointName)
	m.Stop()
	s.Start("other").Stop()
	s.Reset()

	for _, dat := range s.Datas() {
		ast.Equal(0, dat.Count)
		ast.Equal(int64(0), dat.Min)
		ast.Equal(int64(0), dat.Max)
	}
	ast.Len(s.Datas(), 2)
	ast.Equal("captureFrame", s.Datas()[0].Name)
}

func TestCollector(t *testing.T) {
	ast := assert.New(t)
	s := New(true)
	m := s.Start(PointName)
	m.SetError()
	m.Stop()

	reg := prometheus.NewRegistry()
	ast.NoError(reg.Register(NewCollector(s)))
	ast.Equal(5, testutil.CollectAndCount(NewCollector(s)))

	mfs, err := reg.Gather()
	ast.NoError(err)
	names := make([]string, 0, len(mfs))
	for _, mf := range mfs {
		names = append(names, mf.GetName())
		ast.Equal(PointName, mf.GetMetric()[0].GetLabel()[0].GetValue())
	}
	ast.Contains(names, "mapmosaic_point_count_total")
	ast.Contains(names, "mapmosaic_point_errors_total")
}
