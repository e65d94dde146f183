package telemetry_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel"

	"github.com/zhyuuka/xingling-chat/pkg/telemetry"
)

var _ = Describe("Init", func() {
	It("requires a directory", func() {
		_, err := telemetry.Init(context.Background(), telemetry.Options{})
		Expect(err).To(HaveOccurred())
	})

	It("writes finished spans to the traces file on shutdown", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "otel")

		shutdown, err := telemetry.Init(context.Background(), telemetry.Options{Dir: dir, Version: "test"})
		Expect(err).NotTo(HaveOccurred())

		_, span := otel.Tracer("telemetry-test").Start(context.Background(), "unit-span")
		span.End()

		counter, err := otel.Meter("telemetry-test").Int64Counter("unit.counter")
		Expect(err).NotTo(HaveOccurred())
		counter.Add(context.Background(), 1)

		shutdown()

		data, err := os.ReadFile(filepath.Join(dir, telemetry.TracesFile))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("unit-span"))
		Expect(string(data)).To(ContainSubstring(telemetry.ServiceName))

		metrics, err := os.ReadFile(filepath.Join(dir, telemetry.MetricsFile))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(metrics)).To(ContainSubstring("unit.counter"))
	})
})
