package fontcache

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirFaceSource is a minimal directory-globbing FaceSource: it looks for
// "<family>[-Bold][-Italic].{ttf,otf}" under Dir, falling back to the bare
// "<family>.{ttf,otf}" for any style it can't find a dedicated file for. This
// stands in for a real fontconfig client, which §6 scopes as an external
// interface contract rather than something the core embeds.
type DirFaceSource struct {
	Dir string
}

func (d DirFaceSource) Resolve(family string, bold, italic bool) ([]string, error) {
	name := family
	if bold {
		name += "-Bold"
	}
	if italic {
		name += "-Italic"
	}

	var out []string
	for _, candidate := range []string{name, family} {
		for _, ext := range []string{".ttf", ".otf"} {
			p := filepath.Join(d.Dir, candidate+ext)
			if _, err := os.Stat(p); err == nil {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("fontcache: no font file for family %q under %s", family, d.Dir)
	}
	return out, nil
}
