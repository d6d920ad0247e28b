package application_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit/src/splitter/application"
	"github.com/veedubyou/stemsplit/src/splitter/internal/separation"
)

var _ = Describe("App", func() {
	var workDir string

	BeforeEach(func() {
		var err error
		workDir, err = os.MkdirTemp("", "application_test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(workDir)).To(Succeed())
	})

	Describe("Start", func() {
		It("fails on a model name outside the catalog", func() {
			app := application.NewApp(application.Config{
				InputPath: filepath.Join(workDir, "song.wav"),
				OutputDir: workDir,
				ModelName: "11stems",
				ModelsDir: workDir,
			})

			err := app.Start(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, separation.ErrUnknownModel)).To(BeTrue())
		})

		It("fails when the model bundle is missing from the models dir", func() {
			app := application.NewApp(application.Config{
				InputPath: filepath.Join(workDir, "song.wav"),
				OutputDir: workDir,
				ModelName: "2stems",
				ModelsDir: filepath.Join(workDir, "no-models-here"),
			})

			err := app.Start(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, separation.ErrModelLoad)).To(BeTrue())
		})
	})
})
