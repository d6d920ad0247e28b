package codec

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/cerr"
)

// outputStream is the single stream an output container holds.
type outputStream struct {
	Index    int
	TimeBase Rational
	Params   Parameters
}

// muxer is the per container backend behind an OutputContext. Ordering
// is enforced by the context, so backends only see header, packets,
// trailer in that sequence.
type muxer interface {
	needsGlobalHeader() bool
	writeHeader(stream *outputStream) error
	writePacket(stream *outputStream, packet *Packet) error
	writeTrailer() error
}

// OutputContext writes one audio stream into a container chosen by the
// output path's extension.
type OutputContext struct {
	path           string
	file           *os.File
	mux            muxer
	stream         *outputStream
	headerWritten  bool
	trailerWritten bool
	closed         bool
}

// CreateOutput creates the output file and picks a muxer for its
// extension. Nothing is written until WriteHeader.
func CreateOutput(path string) (*OutputContext, error) {
	var build func(*os.File) muxer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		build = newWAVMuxer
	case ".aif", ".aiff", ".aifc":
		build = newAIFFMuxer
	case ".flac":
		build = newFLACMuxer
	case ".mp3":
		build = newRawMuxer
	default:
		return nil, cerr.Field("output_path", path).
			Wrap(ErrUnknownFormat).
			Error("Failed to find a container format for the output path")
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, cerr.Field("output_path", path).
			Wrap(err).
			Mark(ErrIO).
			Error("Failed to create output file")
	}

	return &OutputContext{
		path: path,
		file: file,
		mux:  build(file),
	}, nil
}

// NeedsGlobalHeader reports whether the container wants codec extradata
// embedded in its header. Callers must check this before opening an
// encoder, since extradata is only produced on request.
func (oc *OutputContext) NeedsGlobalHeader() bool {
	return oc.mux.needsGlobalHeader()
}

// NewStream registers the stream the container will carry and returns
// its index.
func (oc *OutputContext) NewStream(params Parameters, timeBase Rational) (int, error) {
	if oc.headerWritten {
		return 0, cerr.Error("Failed to add a stream after the header was written")
	}
	if oc.stream != nil {
		return 0, cerr.Error("Failed to add a second stream to the output")
	}
	if timeBase.IsZero() {
		return 0, cerr.Error("Failed to add a stream without a time base")
	}

	oc.stream = &outputStream{
		Index:    0,
		TimeBase: timeBase,
		Params:   params,
	}
	return oc.stream.Index, nil
}

func (oc *OutputContext) WriteHeader() error {
	if oc.stream == nil {
		return cerr.Error("Failed to write a header before adding a stream")
	}
	if oc.headerWritten {
		return cerr.Error("Failed to write the header twice")
	}

	if err := oc.mux.writeHeader(oc.stream); err != nil {
		return err
	}

	oc.headerWritten = true
	return nil
}

// WritePacket muxes one packet. Timestamps must already be in the
// stream's time base.
func (oc *OutputContext) WritePacket(packet *Packet) error {
	if !oc.headerWritten {
		return cerr.Error("Failed to write a packet before the header")
	}
	if oc.trailerWritten {
		return cerr.Error("Failed to write a packet after the trailer")
	}

	return oc.mux.writePacket(oc.stream, packet)
}

func (oc *OutputContext) WriteTrailer() error {
	if !oc.headerWritten {
		return cerr.Error("Failed to write a trailer before the header")
	}
	if oc.trailerWritten {
		return cerr.Error("Failed to write the trailer twice")
	}

	if err := oc.mux.writeTrailer(); err != nil {
		return err
	}

	oc.trailerWritten = true
	return nil
}

func (oc *OutputContext) Close() error {
	if oc.closed {
		return nil
	}
	oc.closed = true

	if err := oc.file.Close(); err != nil {
		return cerr.Field("output_path", oc.path).
			Wrap(err).
			Mark(ErrIO).
			Error("Failed to close output file")
	}

	return nil
}

// rawMuxer writes packet payloads as is. Streams like mp3 are self
// framing, so the concatenated payloads are already a valid file.
type rawMuxer struct {
	file *os.File
}

func newRawMuxer(file *os.File) muxer {
	return &rawMuxer{file: file}
}

func (m *rawMuxer) needsGlobalHeader() bool {
	return false
}

func (m *rawMuxer) writeHeader(stream *outputStream) error {
	return nil
}

func (m *rawMuxer) writePacket(stream *outputStream, packet *Packet) error {
	if _, err := m.file.Write(packet.Data); err != nil {
		return cerr.Wrap(err).Mark(ErrIO).Error("Failed to write stream data")
	}

	return nil
}

func (m *rawMuxer) writeTrailer() error {
	return nil
}
