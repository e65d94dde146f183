package testutils

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zhyuuka/xingling-chat/pkg/storage"
)

// DescribeKV registers the storage.KV contract specs against the store
// returned by newKV, which is called once per spec.
func DescribeKV(newKV func() storage.KV) {
	var (
		kv  storage.KV
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		kv = newKV()
		DeferCleanup(func() { Expect(kv.Close()).To(Succeed()) })
	})

	It("returns NotFoundError for a missing key", func() {
		_, err := kv.Get(ctx, "missing")
		Expect(errors.Is(err, storage.ErrNotFound)).To(BeTrue())

		var nf storage.NotFoundError
		Expect(errors.As(err, &nf)).To(BeTrue())
		Expect(nf.Key).To(Equal("missing"))
	})

	It("stores and replaces values", func() {
		Expect(kv.Put(ctx, "a", "1")).To(Succeed())
		Expect(kv.Put(ctx, "a", "2")).To(Succeed())

		v, err := kv.Get(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal("2"))
	})

	It("preserves unicode and large values", func() {
		big := ""
		for range 2000 {
			big += "杏铃 🌸 "
		}
		Expect(kv.Put(ctx, "big", big)).To(Succeed())

		v, err := kv.Get(ctx, "big")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(big))
	})

	It("deletes keys and tolerates missing ones", func() {
		Expect(kv.Put(ctx, "a", "1")).To(Succeed())
		Expect(kv.Delete(ctx, "a")).To(Succeed())
		Expect(kv.Delete(ctx, "never")).To(Succeed())

		_, err := kv.Get(ctx, "a")
		Expect(err).To(MatchError(storage.ErrNotFound))
	})

	It("lists keys in lexical order", func() {
		for _, k := range []string{"user_name", "chat_sessions", "api_config"} {
			Expect(kv.Put(ctx, k, "x")).To(Succeed())
		}

		keys, err := kv.Keys(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(Equal([]string{"api_config", "chat_sessions", "user_name"}))
	})
}
