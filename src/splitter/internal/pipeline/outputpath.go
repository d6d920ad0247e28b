package pipeline

import "path/filepath"

// PathGenerator names each stem's output file inside the output
// directory. The extension mirrors the input's, so a restored track
// lands in the same container it came from.
type PathGenerator struct {
	OutputDir string
}

func (g PathGenerator) TrackPath(trackName string, extension string) string {
	return filepath.Join(g.OutputDir, trackName+extension)
}
