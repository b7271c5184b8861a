package shttp

import (
	"io"
	"net/http"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabled(t *testing.T) {
	ast := assert.New(t)
	s := New(Config{})
	ast.False(s.Active())
	ast.NoError(s.StartServers(http.NotFoundHandler()))
	s.ShutdownServers()
}

func TestStartStop(t *testing.T) {
	ast := assert.New(t)
	inj := do.New()
	do.ProvideValue(inj, &Config{Host: "127.0.0.1", Port: 18581})
	Init(inj)
	s := do.MustInvoke[*SHttp](inj)

	router := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	require.NoError(t, s.StartServers(router))

	res, err := http.Get("http://127.0.0.1:18581/")
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	ast.NoError(err)
	ast.Equal("ok", string(body))

	s.ShutdownServers()
	_, err = http.Get("http://127.0.0.1:18581/")
	ast.Error(err)
}
