package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/samber/do/v2"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/model"
)

// Service a source of map tiles
type Service interface {
	Tile(ctx context.Context, tile model.Tile) (io.ReadCloser, error)
}

type ConfigMap map[string]Config

type Config struct {
	URL      string            `yaml:"url"`
	Type     string            `yaml:"type"` // wms, tms, xyz, mbtiles
	NoCached bool              `yaml:"nocache"`
	Layers   string            `yaml:"layers"`
	Format   string            `yaml:"format"`
	Styles   string            `yaml:"styles"`
	Version  string            `yaml:"version"`
	Headers  map[string]string `yaml:"headers"`
	Path     string            `yaml:"path"` // for file based providers
	Fallback string            `yaml:"fallback"`
}

type pFactory struct {
	configs  ConfigMap
	services []string
}

var (
	ErrNotFound = errors.New("provider not found")

	httpClient = &http.Client{Timeout: 30 * time.Second}
)

type providerConfig interface {
	GetProviderConfig() ConfigMap
}

// Init registers every configured provider as named service in the injector
func Init(inj do.Injector) {
	log := logging.New("provider")
	sf := pFactory{
		configs:  do.MustInvokeAs[providerConfig](inj).GetProviderConfig(),
		services: make([]string, 0),
	}
	for sname, config := range sf.configs {
		s, err := newService(sname, config, inj)
		if err != nil {
			log.Error(fmt.Sprintf("can't create provider %s: %v", sname, err))
			continue
		}
		do.ProvideNamedValue(inj, sname, s)
		sf.services = append(sf.services, sname)
	}
	sort.Strings(sf.services)
	do.ProvideValue(inj, &sf)
}

func newService(sname string, config Config, inj do.Injector) (Service, error) {
	switch config.Type {
	case "wms":
		return &wmsProvider{
			name:   sname,
			log:    logging.New(fmt.Sprintf("wms: %s", sname)),
			config: config,
			cl:     httpClient,
		}, nil
	case "tms", "xyz":
		return &tmsProvider{
			log:    logging.New(fmt.Sprintf("%s: %s", config.Type, sname)),
			config: config,
			isTMS:  config.Type == "tms",
			cl:     httpClient,
		}, nil
	case "mbtiles":
		return NewMBTilesProvider(sname, config, inj)
	}
	return nil, fmt.Errorf("unknown provider type: %s", config.Type)
}

func (f *pFactory) HasProvider(providerName string) bool {
	_, ok := f.configs[providerName]
	return ok
}

func (f *pFactory) IsCached(providerName string) bool {
	config, ok := f.configs[providerName]
	if !ok {
		return false
	}
	return !config.NoCached
}

// Names all successfully registered providers
func (f *pFactory) Names() []string {
	return f.services
}

func setDefaultHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "go_mapmosaic/0.1")
	req.Header.Set("Accept", "*/*")
}

func fetch(ctx context.Context, cl *http.Client, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	setDefaultHeaders(req)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := cl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tile request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tile request failed, status: %s: %s", resp.Status, string(body))
	}
	return resp.Body, nil
}
