package stacktrace

import (
	"bufio"
	"bytes"
	"strings"
)

const marker = "/internal/"

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" frames found in a
// raw debug.Stack() dump, dropping runtime and third-party frames.
func InternalPaths(stack []byte) []string {
	var paths []string

	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "/") && !strings.Contains(line, ":\\") {
			continue
		}

		file, _, _ := strings.Cut(line, " +0x")
		idx := strings.Index(file, marker)
		if idx < 0 || !strings.Contains(file, ".go:") {
			continue
		}

		paths = append(paths, file[idx+1:])
	}

	return paths
}
