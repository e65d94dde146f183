package sse_test

import (
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zhyuuka/xingling-chat/pkg/sse"
)

// decodeAll feeds each chunk in turn and collects every emitted block.
func decodeAll(d *sse.Decoder, chunks ...[]byte) []string {
	var blocks []string
	for _, c := range chunks {
		blocks = append(blocks, slices.Collect(d.Feed(c))...)
	}
	return blocks
}

const stream = "data: {\"type\":\"reasoning\",\"content\":\"思考\"}\n\n" +
	"data: {\"type\":\"content\",\"content\":\"你好\"}\n\n" +
	": keep-alive\n\n" +
	"data: {\"type\":\"content\",\"content\":\" world 🌏\"}\n\n"

var _ = Describe("Decoder", func() {
	var d *sse.Decoder

	BeforeEach(func() {
		d = sse.NewDecoder()
	})

	Describe("Feed", func() {
		It("emits nothing for an empty chunk", func() {
			Expect(decodeAll(d, []byte{})).To(BeEmpty())
		})

		It("emits every complete block in a chunk, in order", func() {
			blocks := decodeAll(d, []byte("data: a\n\ndata: b\n\ndata: c\n\n"))
			Expect(blocks).To(Equal([]string{"data: a", "data: b", "data: c"}))
			Expect(d.Remainder()).To(BeEmpty())
		})

		It("retains a trailing partial block as carry-over", func() {
			blocks := decodeAll(d, []byte("data: a\n\ndata: b"))
			Expect(blocks).To(Equal([]string{"data: a"}))
			Expect(d.Remainder()).To(Equal("data: b"))

			blocks = decodeAll(d, []byte("\n\n"))
			Expect(blocks).To(Equal([]string{"data: b"}))
		})

		It("joins a delimiter split across chunks", func() {
			blocks := decodeAll(d, []byte("data: a\n"), []byte("\ndata: b\n"), []byte("\n"))
			Expect(blocks).To(Equal([]string{"data: a", "data: b"}))
		})

		It("decodes the two chunk example into one block", func() {
			blocks := decodeAll(d,
				[]byte(`data: {"typ`),
				[]byte("e\":\"content\",\"content\":\"Hi\"}\n\n"),
			)
			Expect(blocks).To(Equal([]string{`data: {"type":"content","content":"Hi"}`}))
		})

		It("yields the same blocks for every byte-level partition", func() {
			whole := decodeAll(sse.NewDecoder(), []byte(stream))
			Expect(whole).To(HaveLen(4))

			raw := []byte(stream)
			for size := 1; size <= len(raw); size++ {
				var chunks [][]byte
				for i := 0; i < len(raw); i += size {
					chunks = append(chunks, raw[i:min(i+size, len(raw))])
				}
				Expect(decodeAll(sse.NewDecoder(), chunks...)).To(Equal(whole), "chunk size %d", size)
			}
		})

		It("keeps unconsumed blocks for the next call when iteration stops early", func() {
			for block := range d.Feed([]byte("data: a\n\ndata: b\n\n")) {
				Expect(block).To(Equal("data: a"))
				break
			}

			blocks := decodeAll(d, []byte("data: c\n\n"))
			Expect(blocks).To(Equal([]string{"data: b", "data: c"}))
		})
	})

	Describe("Reset", func() {
		It("discards and returns the undelimited fragment", func() {
			decodeAll(d, []byte("data: a\n\ndata: trunc"))
			Expect(d.Reset()).To(Equal("data: trunc"))
			Expect(d.Remainder()).To(BeEmpty())
		})
	})
})
