package fu

import (
	"path/filepath"

	"go-ml.dev/pkg/iokit"
)

func ModelPath(s string) string {
	if filepath.IsAbs(s) {
		return s
	}
	return iokit.CacheFile(filepath.Join("go-ml", "Dspp", s))
}
