package codec

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

// Stream describes one audio stream found in an input container.
type Stream struct {
	Index    int
	TimeBase Rational
	Params   Parameters
}

// demuxer is the per-container back end behind InputContext. Demuxers own
// no resources; the InputContext keeps the file handle.
type demuxer interface {
	streams() []Stream
	readPacket() (packet *Packet, ok bool, err error)
}

// InputContext is an opened input container.
type InputContext struct {
	path string
	file *os.File
	dmx  demuxer
}

// OpenInput opens the container at path. The format is identified by
// content, with an extension fallback for raw mp3 streams that carry no
// recognizable signature.
func OpenInput(path string) (*InputContext, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, cerr.Field("file_path", path).
			Wrap(err).Mark(ErrIO).
			Error("Failed to open input file")
	}

	dmx, err := newDemuxer(file, path)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &InputContext{path: path, file: file, dmx: dmx}, nil
}

func newDemuxer(file *os.File, path string) (demuxer, error) {
	header := make([]byte, 12)
	n, err := io.ReadFull(file, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, cerr.Field("file_path", path).
			Wrap(err).Mark(ErrIO).
			Error("Failed to read file signature")
	}
	header = header[:n]

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, cerr.Field("file_path", path).
			Wrap(err).Mark(ErrIO).
			Error("Failed to rewind input file")
	}

	switch {
	case sniffWAV(header):
		return newWAVDemuxer(file)
	case sniffAIFF(header):
		return newAIFFDemuxer(file)
	case sniffFLAC(header):
		return newFLACDemuxer(file)
	case sniffOgg(header):
		return newVorbisDemuxer(file)
	case sniffMP3(header) || strings.EqualFold(filepath.Ext(path), ".mp3"):
		return newMP3Demuxer(file)
	default:
		return nil, cerr.Field("file_path", path).
			Wrap(ErrUnknownFormat).
			Error("Failed to identify audio container")
	}
}

func sniffWAV(header []byte) bool {
	return len(header) >= 12 &&
		bytes.Equal(header[0:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WAVE"))
}

func sniffAIFF(header []byte) bool {
	return len(header) >= 12 &&
		bytes.Equal(header[0:4], []byte("FORM")) &&
		(bytes.Equal(header[8:12], []byte("AIFF")) || bytes.Equal(header[8:12], []byte("AIFC")))
}

func sniffFLAC(header []byte) bool {
	return len(header) >= 4 && bytes.Equal(header[0:4], []byte("fLaC"))
}

func sniffOgg(header []byte) bool {
	return len(header) >= 4 && bytes.Equal(header[0:4], []byte("OggS"))
}

func sniffMP3(header []byte) bool {
	if len(header) >= 3 && bytes.Equal(header[0:3], []byte("ID3")) {
		return true
	}

	// frame sync: eleven set bits
	return len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0
}

func (ic *InputContext) Streams() []Stream {
	return ic.dmx.streams()
}

// BestAudioStream returns the container's primary audio stream.
func (ic *InputContext) BestAudioStream() (Stream, error) {
	streams := ic.dmx.streams()
	if len(streams) == 0 {
		return Stream{}, cerr.Field("file_path", ic.path).
			Wrap(ErrNoAudioStream).
			Error("Failed to find an audio stream in input")
	}

	return streams[0], nil
}

// ReadPacket returns the next packet of the container, in stream order.
// ok reports whether a packet was read; false means end of stream.
func (ic *InputContext) ReadPacket() (*Packet, bool, error) {
	return ic.dmx.readPacket()
}

func (ic *InputContext) Close() error {
	if err := ic.file.Close(); err != nil {
		return cerr.Field("file_path", ic.path).
			Wrap(err).Mark(ErrIO).
			Error("Failed to close input file")
	}

	return nil
}
