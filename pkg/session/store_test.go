package session_test

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zhyuuka/xingling-chat/pkg/llm"
	"github.com/zhyuuka/xingling-chat/pkg/session"
	"github.com/zhyuuka/xingling-chat/pkg/transcript"
	testutils "github.com/zhyuuka/xingling-chat/pkg/utils/test"
)

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		kv    *testutils.RecordingKV
		store *session.Store
		ids   int
		now   time.Time
	)

	opts := func() session.Options {
		return session.Options{
			Now: func() time.Time { return now },
			NewID: func() string {
				ids++
				return fmt.Sprintf("s%d", ids)
			},
		}
	}

	storedSessions := func() []llm.Session {
		raw, err := kv.Get(ctx, session.KeySessions)
		Expect(err).NotTo(HaveOccurred())
		var out []llm.Session
		Expect(json.Unmarshal([]byte(raw), &out)).To(Succeed())
		return out
	}

	BeforeEach(func() {
		ctx = context.Background()
		kv = testutils.NewRecordingKV()
		ids = 0
		now = time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)

		var err error
		store, err = session.Open(ctx, kv, opts())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Open", func() {
		It("bootstraps and persists a default session", func() {
			Expect(store.List()).To(HaveLen(1))
			Expect(store.CurrentID()).To(Equal(session.DefaultSessionID))
			Expect(store.Current().Name).To(Equal(session.DefaultSessionName))

			stored := storedSessions()
			Expect(stored).To(HaveLen(1))
			Expect(stored[0].Messages).NotTo(BeNil())

			current, err := kv.Get(ctx, session.KeyCurrent)
			Expect(err).NotTo(HaveOccurred())
			Expect(current).To(Equal(session.DefaultSessionID))
		})

		It("reloads what was persisted", func() {
			created, err := store.Create(ctx, "prompt")
			Expect(err).NotTo(HaveOccurred())

			reopened, err := session.Open(ctx, kv, opts())
			Expect(err).NotTo(HaveOccurred())
			Expect(reopened.List()).To(HaveLen(2))
			Expect(reopened.CurrentID()).To(Equal(created.ID))
		})

		It("selects the first session when the stored selection is unknown", func() {
			Expect(kv.Put(ctx, session.KeyCurrent, "gone")).To(Succeed())

			reopened, err := session.Open(ctx, kv, opts())
			Expect(err).NotTo(HaveOccurred())
			Expect(reopened.CurrentID()).To(Equal(session.DefaultSessionID))
		})

		It("fails on a corrupt collection", func() {
			Expect(kv.Put(ctx, session.KeySessions, "{")).To(Succeed())
			_, err := session.Open(ctx, kv, opts())
			Expect(err).To(MatchError(ContainSubstring("decoding sessions")))
		})
	})

	Describe("Create", func() {
		It("inherits the prompt, appends and selects the new session", func() {
			sess, err := store.Create(ctx, "global prompt")
			Expect(err).NotTo(HaveOccurred())

			Expect(sess.ID).To(Equal("s1"))
			Expect(sess.Name).To(Equal("New chat 15:04:05"))
			Expect(sess.SystemPrompt).To(Equal("global prompt"))
			Expect(sess.CreatedAt).To(Equal(now.UnixMilli()))
			Expect(store.CurrentID()).To(Equal("s1"))
			Expect(store.List()[1].ID).To(Equal("s1"))
			Expect(storedSessions()).To(HaveLen(2))
		})

		It("generates unique time-ordered ids by default", func() {
			s, err := session.Open(ctx, testutils.NewRecordingKV(), session.Options{})
			Expect(err).NotTo(HaveOccurred())

			a, err := s.Create(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			b, err := s.Create(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(a.ID).NotTo(Equal(b.ID))
			Expect(a.ID < b.ID).To(BeTrue())
		})
	})

	Describe("Switch", func() {
		It("reports a change only when the selection moves", func() {
			_, err := store.Create(ctx, "")
			Expect(err).NotTo(HaveOccurred())

			changed, err := store.Switch(ctx, session.DefaultSessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeTrue())

			changed, err = store.Switch(ctx, session.DefaultSessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(changed).To(BeFalse())
		})

		It("rejects unknown ids", func() {
			_, err := store.Switch(ctx, "nope")
			Expect(err).To(MatchError(session.ErrNotFound))
			Expect(store.CurrentID()).To(Equal(session.DefaultSessionID))
		})
	})

	Describe("Delete", func() {
		It("rejects deleting the only session and changes nothing", func() {
			writes := kv.Puts(session.KeySessions)

			err := store.Delete(ctx, session.DefaultSessionID)
			Expect(err).To(MatchError(session.ErrLastSession))
			Expect(store.List()).To(HaveLen(1))
			Expect(kv.Puts(session.KeySessions)).To(Equal(writes))
		})

		It("selects another session when the selected one is deleted", func() {
			_, err := store.Create(ctx, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(store.Delete(ctx, "s1")).To(Succeed())
			Expect(store.List()).To(HaveLen(1))
			Expect(store.CurrentID()).To(Equal(session.DefaultSessionID))

			current, err := kv.Get(ctx, session.KeyCurrent)
			Expect(err).NotTo(HaveOccurred())
			Expect(current).To(Equal(session.DefaultSessionID))
		})

		It("keeps the selection when another session is deleted", func() {
			_, err := store.Create(ctx, "")
			Expect(err).NotTo(HaveOccurred())

			Expect(store.Delete(ctx, session.DefaultSessionID)).To(Succeed())
			Expect(store.CurrentID()).To(Equal("s1"))
		})
	})

	Describe("Rename", func() {
		It("trims and stores the name", func() {
			Expect(store.Rename(ctx, session.DefaultSessionID, "  Travel plans ")).To(Succeed())
			Expect(store.Current().Name).To(Equal("Travel plans"))
			Expect(storedSessions()[0].Name).To(Equal("Travel plans"))
		})

		It("ignores blank names", func() {
			writes := kv.Puts(session.KeySessions)
			Expect(store.Rename(ctx, session.DefaultSessionID, "   ")).To(Succeed())
			Expect(store.Current().Name).To(Equal(session.DefaultSessionName))
			Expect(kv.Puts(session.KeySessions)).To(Equal(writes))
		})
	})

	Describe("SetSystemPrompt", func() {
		It("overwrites the override", func() {
			Expect(store.SetSystemPrompt(ctx, session.DefaultSessionID, "answer in haiku")).To(Succeed())
			Expect(store.Current().SystemPrompt).To(Equal("answer in haiku"))
			Expect(storedSessions()[0].SystemPrompt).To(Equal("answer in haiku"))
		})

		It("rejects unknown ids", func() {
			Expect(store.SetSystemPrompt(ctx, "nope", "x")).To(MatchError(session.ErrNotFound))
		})
	})

	Describe("SyncTranscript", func() {
		It("writes changes and elides identical transcripts", func() {
			t := transcript.Transcript{llm.NewMessage(llm.RoleUser, "hi", now)}
			writes := kv.Puts(session.KeySessions)

			written, err := store.SyncTranscript(ctx, session.DefaultSessionID, t)
			Expect(err).NotTo(HaveOccurred())
			Expect(written).To(BeTrue())
			Expect(kv.Puts(session.KeySessions)).To(Equal(writes + 1))

			written, err = store.SyncTranscript(ctx, session.DefaultSessionID, t.Clone())
			Expect(err).NotTo(HaveOccurred())
			Expect(written).To(BeFalse())
			Expect(kv.Puts(session.KeySessions)).To(Equal(writes + 1))

			Expect(store.Transcript().Equal(t)).To(BeTrue())
		})

		It("does not alias the caller's transcript", func() {
			t := transcript.Transcript{llm.NewMessage(llm.RoleAssistant, "a", now)}
			_, err := store.SyncTranscript(ctx, session.DefaultSessionID, t)
			Expect(err).NotTo(HaveOccurred())

			t[0].Content = "mutated"
			Expect(store.Transcript()[0].Content).To(Equal("a"))
		})

		It("surfaces persistence failures", func() {
			kv.FailPut = true
			_, err := store.SyncTranscript(ctx, session.DefaultSessionID, transcript.Transcript{{Role: llm.RoleUser, Content: "x"}})
			Expect(err).To(MatchError(testutils.ErrInjected))
		})
	})

	Describe("ClearTranscript and DeleteMessage", func() {
		BeforeEach(func() {
			_, err := store.SyncTranscript(ctx, session.DefaultSessionID, transcript.Transcript{
				llm.NewMessage(llm.RoleUser, "one", now),
				llm.NewMessage(llm.RoleAssistant, "two", now),
				llm.NewMessage(llm.RoleUser, "three", now),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("deletes a message by index", func() {
			Expect(store.DeleteMessage(ctx, session.DefaultSessionID, 1)).To(Succeed())
			contents := []string{}
			for _, m := range store.Transcript() {
				contents = append(contents, m.Content)
			}
			Expect(contents).To(Equal([]string{"one", "three"}))
		})

		It("rejects an out of range index", func() {
			Expect(store.DeleteMessage(ctx, session.DefaultSessionID, 3)).To(MatchError(ContainSubstring("out of range")))
			Expect(store.Transcript()).To(HaveLen(3))
		})

		It("clears every message", func() {
			Expect(store.ClearTranscript(ctx, session.DefaultSessionID)).To(Succeed())
			Expect(store.Transcript()).To(BeEmpty())
			Expect(storedSessions()[0].Messages).To(BeEmpty())
		})
	})

	Describe("Replace", func() {
		It("swaps the collection and falls back to the first session", func() {
			err := store.Replace(ctx, []llm.Session{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}, "zzz")
			Expect(err).NotTo(HaveOccurred())
			Expect(store.CurrentID()).To(Equal("a"))
			Expect(storedSessions()).To(HaveLen(2))
		})

		It("rejects an empty collection", func() {
			Expect(store.Replace(ctx, nil, "")).To(MatchError(session.ErrNoSessions))
			Expect(store.List()).To(HaveLen(1))
		})

		It("rejects duplicate ids", func() {
			err := store.Replace(ctx, []llm.Session{{ID: "a"}, {ID: "a"}}, "a")
			Expect(err).To(MatchError(ContainSubstring("duplicate")))
			Expect(store.CurrentID()).To(Equal(session.DefaultSessionID))
		})
	})
})
