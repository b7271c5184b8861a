package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHideSelectors(t *testing.T) {
	ast := assert.New(t)
	sels := HideSelectors()
	ast.Contains(sels, ".tools")
	for _, s := range sels {
		ast.NotContains(s, "# ")
		ast.NotEmpty(s)
	}
	ast.Contains(ConfigFile, "surface:")
}
