package sqlkv

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("bind", func() {
	It("leaves question marks alone for SQLite", func() {
		d := &Driver{dialect: Question}
		Expect(d.bind("SELECT value FROM kv WHERE key = ?")).To(Equal("SELECT value FROM kv WHERE key = ?"))
	})

	It("numbers placeholders for PostgreSQL", func() {
		d := &Driver{dialect: Dollar}
		Expect(d.bind("INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)")).
			To(Equal("INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, $3)"))
	})
})
