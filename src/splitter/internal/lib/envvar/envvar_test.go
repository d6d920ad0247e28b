package envvar_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stemsplit/src/splitter/internal/lib/envvar"
)

var _ = Describe("envvar", func() {
	const testKey = "STEMSPLIT_TEST_VAR"

	AfterEach(func() {
		Expect(os.Unsetenv(testKey)).To(Succeed())
	})

	Describe("MustGet", func() {
		It("returns the value when the variable is set", func() {
			Expect(os.Setenv(testKey, "models/models")).To(Succeed())
			Expect(envvar.MustGet(testKey)).To(Equal("models/models"))
		})

		It("panics when the variable is unset", func() {
			Expect(func() { envvar.MustGet(testKey) }).To(Panic())
		})

		It("panics when the variable is empty", func() {
			Expect(os.Setenv(testKey, "")).To(Succeed())
			Expect(func() { envvar.MustGet(testKey) }).To(Panic())
		})
	})

	Describe("GetWithDefault", func() {
		It("returns the value when the variable is set", func() {
			Expect(os.Setenv(testKey, "debug")).To(Succeed())
			Expect(envvar.GetWithDefault(testKey, "info")).To(Equal("debug"))
		})

		It("falls back to the default when the variable is unset", func() {
			Expect(envvar.GetWithDefault(testKey, "info")).To(Equal("info"))
		})

		It("treats an empty value as unset", func() {
			Expect(os.Setenv(testKey, "")).To(Succeed())
			Expect(envvar.GetWithDefault(testKey, "info")).To(Equal("info"))
		})
	})
})
