package sqlite_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zhyuuka/xingling-chat/pkg/storage"
	"github.com/zhyuuka/xingling-chat/pkg/storage/sqlite"
	testutils "github.com/zhyuuka/xingling-chat/pkg/utils/test"
)

var _ = Describe("Driver", func() {
	Context("in memory", func() {
		testutils.DescribeKV(func() storage.KV {
			d, err := sqlite.NewDriver(context.Background(), ":memory:")
			Expect(err).NotTo(HaveOccurred())
			return d
		})
	})

	Describe("NewDriver", func() {
		It("creates a database file that survives reopening", func() {
			ctx := context.Background()
			dbPath := filepath.Join(GinkgoT().TempDir(), "xingling.db")

			d, err := sqlite.NewDriver(ctx, dbPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Put(ctx, "current_session_id", "default")).To(Succeed())
			Expect(d.Close()).To(Succeed())

			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())

			reopened, err := sqlite.NewDriver(ctx, dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			v, err := reopened.Get(ctx, "current_session_id")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("default"))
		})
	})
})
