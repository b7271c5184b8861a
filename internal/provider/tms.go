package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/willie68/go_mapmosaic/internal/model"
)

type tmsProvider struct {
	log    *slog.Logger
	config Config
	isTMS  bool
	cl     *http.Client
}

func (s *tmsProvider) Tile(ctx context.Context, tile model.Tile) (io.ReadCloser, error) {
	tmsURL := s.buildTMSUrl(tile)
	s.log.Debug(fmt.Sprintf("requesting tile from %s", tmsURL))
	rd, err := fetch(ctx, s.cl, tmsURL, s.config.Headers)
	if err != nil {
		s.log.Error(fmt.Sprintf("error on tile request: %v", err))
		return nil, err
	}
	return rd, nil
}

// buildTMSUrl either fills the {z}, {x}, {y} placeholders of the url or
// appends /z/x/y.png
func (s *tmsProvider) buildTMSUrl(tile model.Tile) string {
	if s.isTMS {
		// TMS counts y from south
		ymax := 1 << tile.Z
		tile.Y = ymax - tile.Y - 1
	}
	if strings.Contains(s.config.URL, "{z}") {
		r := strings.NewReplacer(
			"{z}", strconv.Itoa(tile.Z),
			"{x}", strconv.Itoa(tile.X),
			"{y}", strconv.Itoa(tile.Y),
		)
		return r.Replace(s.config.URL)
	}
	return fmt.Sprintf("%s/%d/%d/%d.png", strings.TrimSuffix(s.config.URL, "/"), tile.Z, tile.X, tile.Y)
}
