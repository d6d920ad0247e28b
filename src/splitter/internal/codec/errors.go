package codec

import "github.com/cockroachdb/errors"

var (
	// ErrIO marks filesystem failures while opening, reading or writing
	// media files.
	ErrIO = errors.New("file system operation failed")

	// ErrUnknownFormat marks files whose container cannot be identified.
	ErrUnknownFormat = errors.New("unrecognized audio container")

	// ErrUnsupportedFormat marks containers the engine recognizes but whose
	// sample encoding it does not handle.
	ErrUnsupportedFormat = errors.New("unsupported sample encoding")

	// ErrNoAudioStream marks containers that hold no decodable audio.
	ErrNoAudioStream = errors.New("no audio stream in container")

	ErrDecode   = errors.New("decoding failed")
	ErrEncode   = errors.New("encoding failed")
	ErrResample = errors.New("resampling failed")

	// ErrEncoderNotFound marks codecs the engine can decode but not
	// re-encode.
	ErrEncoderNotFound = errors.New("no encoder registered for codec")
)
