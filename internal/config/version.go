package config

import (
	"fmt"
	"runtime/debug"
)

// set by the linker, -ldflags "-X github.com/willie68/go_mapmosaic/internal/config.version=..."
var (
	version = "0.1.0"
	commit  = ""
	date    = ""
)

// Version build information of the binary
type Version struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// NewVersion reads the version out of the build info
func NewVersion() *Version {
	v := &Version{
		Version: version,
		Commit:  commit,
		Date:    date,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		v.Go = bi.GoVersion
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if v.Commit == "" {
					v.Commit = s.Value
				}
			case "vcs.time":
				if v.Date == "" {
					v.Date = s.Value
				}
			}
		}
	}
	return v
}

func (v Version) String() string {
	s := fmt.Sprintf("go_mapmosaic %s", v.Version)
	if v.Commit != "" {
		s += fmt.Sprintf(" (%s", v.Commit)
		if v.Date != "" {
			s += fmt.Sprintf(", %s", v.Date)
		}
		s += ")"
	}
	if v.Go != "" {
		s += fmt.Sprintf(" %s", v.Go)
	}
	return s
}
