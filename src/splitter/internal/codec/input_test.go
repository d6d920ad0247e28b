package codec_test

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit/src/splitter/internal/codec"
	. "github.com/veedubyou/stemsplit/src/splitter/internal/testing"
)

var _ = Describe("InputContext", func() {
	var workDir string

	BeforeEach(func() {
		var err error
		workDir, err = os.MkdirTemp("", "codec_input_test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(workDir)).To(Succeed())
	})

	writeFile := func(name string, data []byte) string {
		path := filepath.Join(workDir, name)
		err := os.WriteFile(path, data, os.ModePerm)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return path
	}

	Describe("opening", func() {
		It("fails on a missing file", func() {
			_, err := codec.OpenInput(filepath.Join(workDir, "missing.wav"))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, codec.ErrIO)).To(BeTrue())
		})

		It("fails on a file with no recognizable signature", func() {
			path := writeFile("noise.bin", []byte("this is not audio at all"))

			_, err := codec.OpenInput(path)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, codec.ErrUnknownFormat)).To(BeTrue())
		})

		It("fails on an empty file", func() {
			path := writeFile("empty.bin", nil)

			_, err := codec.OpenInput(path)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, codec.ErrUnknownFormat)).To(BeTrue())
		})

		It("fails on a wav signature with a corrupt header", func() {
			path := writeFile("broken.wav", []byte("RIFF\x00\x00\x00\x00WAVEjunk"))

			_, err := codec.OpenInput(path)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, codec.ErrUnknownFormat)).To(BeTrue())
		})

		It("fails on an mp3 extension with no mpeg frames", func() {
			path := writeFile("broken.mp3", []byte("not an mpeg stream"))

			_, err := codec.OpenInput(path)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, codec.ErrUnknownFormat)).To(BeTrue())
		})
	})

	Describe("format identification", func() {
		It("identifies containers by content, not extension", func() {
			path := filepath.Join(workDir, "mislabeled.mp3")
			WriteWAV(path, 44100, 16, 2, Int16Ramp(16, 2))

			input := ExpectSuccess(codec.OpenInput(path))
			defer input.Close()

			stream := ExpectSuccess(input.BestAudioStream())
			Expect(stream.Params.Codec).To(Equal(codec.CodecPCMS16LE))
		})
	})

	Describe("stream selection", func() {
		It("finds no audio stream in an ogg with no vorbis in it", func() {
			path := writeFile("hollow.ogg", []byte("OggSjunk that is not a vorbis stream"))

			input := ExpectSuccess(codec.OpenInput(path))
			defer input.Close()

			Expect(input.Streams()).To(BeEmpty())

			_, err := input.BestAudioStream()
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, codec.ErrNoAudioStream)).To(BeTrue())
		})
	})

	Describe("unsupported encodings", func() {
		It("refuses non-pcm wav files", func() {
			// format tag 3 marks ieee float wav, which stays out of scope
			header := []byte{
				'R', 'I', 'F', 'F', 0x32, 0x00, 0x00, 0x00, 'W', 'A', 'V', 'E',
				'f', 'm', 't', ' ', 0x10, 0x00, 0x00, 0x00,
				0x03, 0x00, 0x02, 0x00,
				0x44, 0xAC, 0x00, 0x00, 0x20, 0x62, 0x05, 0x00,
				0x08, 0x00, 0x20, 0x00,
				'd', 'a', 't', 'a', 0x00, 0x00, 0x00, 0x00,
			}
			path := writeFile("float.wav", header)

			_, err := codec.OpenInput(path)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, codec.ErrUnsupportedFormat)).To(BeTrue())
		})
	})
})
