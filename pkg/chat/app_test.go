package chat_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zhyuuka/xingling-chat/pkg/appstate"
	"github.com/zhyuuka/xingling-chat/pkg/chat"
	"github.com/zhyuuka/xingling-chat/pkg/config"
	"github.com/zhyuuka/xingling-chat/pkg/eventstream"
	"github.com/zhyuuka/xingling-chat/pkg/llm"
	"github.com/zhyuuka/xingling-chat/pkg/session"
	"github.com/zhyuuka/xingling-chat/pkg/stream"
	"github.com/zhyuuka/xingling-chat/pkg/transcript"
	testutils "github.com/zhyuuka/xingling-chat/pkg/utils/test"
	"github.com/zhyuuka/xingling-chat/pkg/worker"
)

func frame(kind, content string) string {
	data, _ := json.Marshal(llm.StreamPayload{Type: kind, Content: content})
	return "data: " + string(data) + "\n\n"
}

func serveFrames(w http.ResponseWriter, frames ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	flusher := w.(http.Flusher)
	for _, f := range frames {
		fmt.Fprint(w, f)
		flusher.Flush()
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.TurnCompletedEvent
}

func (r *recordingPublisher) PublishTurn(_ context.Context, e *eventstream.TurnCompletedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

var _ = Describe("App", func() {
	var (
		ctx      context.Context
		kv       *testutils.RecordingKV
		store    *session.Store
		settings *appstate.Manager
		pub      *recordingPublisher
		app      *chat.App
		server   *httptest.Server
		requests chan map[string]any
	)

	newApp := func(handler http.HandlerFunc) {
		server = httptest.NewServer(handler)

		driver, err := stream.NewDriver(stream.Config{ServerURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		pool, err := worker.NewPool(&worker.Config{Publisher: pub})
		Expect(err).NotTo(HaveOccurred())

		app, err = chat.New(chat.Options{
			Store:     store,
			Settings:  settings,
			Driver:    driver,
			Pool:      pool,
			ServerURL: server.URL,
		})
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		ctx = context.Background()
		kv = testutils.NewRecordingKV()
		pub = &recordingPublisher{}
		requests = make(chan map[string]any, 4)

		var err error
		store, err = session.Open(ctx, kv, session.Options{})
		Expect(err).NotTo(HaveOccurred())
		settings, err = appstate.Load(ctx, kv, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	chatHandler := func(frames ...string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			requests <- body
			serveFrames(w, frames...)
		}
	}

	It("requires its components", func() {
		_, err := chat.New(chat.Options{})
		Expect(err).To(HaveOccurred())
	})

	Describe("Send", func() {
		It("persists the finished turn and emits an event", func() {
			newApp(chatHandler(frame("reasoning", "hmm"), frame("content", "Hello"), frame("content", "!")))

			var observed int
			turn, err := app.Send(ctx, "hi", func(transcript.Transcript) { observed++ })
			Expect(err).NotTo(HaveOccurred())
			Expect(app.Close()).To(Succeed())

			Expect(turn.SessionID).To(Equal(session.DefaultSessionID))
			Expect(turn.User.Content).To(Equal("hi"))
			Expect(turn.Assistant.Content).To(Equal("Hello!"))
			Expect(turn.Assistant.Reasoning).To(Equal("hmm"))
			Expect(observed).To(Equal(5))

			reloaded, err := session.Open(ctx, kv, session.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Transcript()).To(HaveLen(2))
			Expect(reloaded.Transcript()[1].Content).To(Equal("Hello!"))

			Expect(pub.events).To(HaveLen(1))
			Expect(pub.events[0].Turn.Outcome).To(Equal(eventstream.OutcomeOK))
			Expect(pub.events[0].Turn.Kind).To(Equal(eventstream.TurnKindChat))
			Expect(pub.events[0].AssistantMessage.Content).To(Equal("Hello!"))
		})

		It("sends the session prompt override and the global settings", func() {
			newApp(chatHandler(frame("content", "ok")))
			Expect(store.SetSystemPrompt(ctx, session.DefaultSessionID, "session prompt")).To(Succeed())
			Expect(settings.Set(ctx, "api.key", "sk-test")).To(Succeed())
			Expect(settings.Set(ctx, "search.enabled", "true")).To(Succeed())

			_, err := app.Send(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())

			var body map[string]any
			Eventually(requests).Should(Receive(&body))
			Expect(body).To(HaveKeyWithValue("system_prompt", "session prompt"))
			Expect(body).To(HaveKeyWithValue("api_key", "sk-test"))
			Expect(body).To(HaveKeyWithValue("model", appstate.DefaultModel))
			Expect(body).To(HaveKeyWithValue("search_enabled", true))
		})

		It("falls back to the global prompt when the session has none", func() {
			newApp(chatHandler(frame("content", "ok")))

			_, err := app.Send(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())

			var body map[string]any
			Eventually(requests).Should(Receive(&body))
			Expect(body).To(HaveKeyWithValue("system_prompt", appstate.DefaultSystemPrompt))
		})

		It("writes to the session captured at the start even if the selection changes", func() {
			release := make(chan struct{})
			newApp(func(w http.ResponseWriter, r *http.Request) {
				<-release
				serveFrames(w, frame("content", "late"))
			})

			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				_, err := app.Send(ctx, "first", nil)
				done <- err
			}()

			Eventually(func() int { return len(store.Transcript()) }).Should(Equal(1))
			created, err := store.Create(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			close(release)
			Eventually(done).Should(Receive(BeNil()))

			Expect(store.Transcript()).To(BeEmpty())
			Expect(store.CurrentID()).To(Equal(created.ID))

			original, err := store.Get(session.DefaultSessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(original.Messages).To(HaveLen(2))
			Expect(original.Messages[1].Content).To(Equal("late"))
		})

		It("persists the fallback and reports a failed outcome", func() {
			newApp(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			})

			turn, err := app.Send(ctx, "hi", nil)
			Expect(err).To(HaveOccurred())
			Expect(turn.Assistant.Content).To(Equal(stream.FallbackText))
			Expect(app.Close()).To(Succeed())

			Expect(store.Transcript()).To(HaveLen(2))
			Expect(pub.events).To(HaveLen(1))
			Expect(pub.events[0].Turn.Outcome).To(Equal(eventstream.OutcomeFailed))
			Expect(pub.events[0].Turn.Error).NotTo(BeEmpty())
		})
	})

	Describe("Upload", func() {
		It("records the upload marker and the analysis", func() {
			newApp(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/upload"))
				_, _ = io.Copy(io.Discard, r.Body)
				serveFrames(w, frame("reasoning", "skipped"), frame("content", "A summary"))
			})

			path := filepath.Join(GinkgoT().TempDir(), "notes.txt")
			Expect(os.WriteFile(path, []byte("some notes"), 0o600)).To(Succeed())

			turn, err := app.Upload(ctx, path, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(turn.User.Content).To(Equal(stream.UploadMarkerPrefix + "notes.txt"))
			Expect(turn.Assistant.Content).To(Equal("A summary"))
			Expect(turn.Assistant.Reasoning).To(BeEmpty())
			Expect(store.Transcript()).To(HaveLen(2))
		})

		It("fails before touching the transcript when the file is missing", func() {
			newApp(chatHandler())
			_, err := app.Upload(ctx, filepath.Join(GinkgoT().TempDir(), "missing.pdf"), nil)
			Expect(err).To(HaveOccurred())
			Expect(store.Transcript()).To(BeEmpty())
		})
	})

	Describe("Clear", func() {
		It("empties the transcript even when the remote call fails", func() {
			newApp(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/clear_session" {
					http.Error(w, "nope", http.StatusBadGateway)
					return
				}
				serveFrames(w, frame("content", "ok"))
			})

			_, err := app.Send(ctx, "hi", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Transcript()).To(HaveLen(2))

			Expect(app.Clear(ctx, session.DefaultSessionID)).To(Succeed())
			Expect(store.Transcript()).To(BeEmpty())
		})
	})

	It("reports the service status", func() {
		newApp(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"status":"ok","name":"xingling"}`)
		})

		status, err := app.Status(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(HaveKeyWithValue("status", "ok"))
	})
})

var _ = Describe("Open", func() {
	It("builds an app from configuration with in-memory storage", func() {
		cfg := config.NewDefaultConfig()
		cfg.Storage.Driver = "memory"

		app, err := chat.Open(context.Background(), cfg, "", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(app.Store().CurrentID()).To(Equal(session.DefaultSessionID))
		Expect(app.Settings().State()).To(Equal(appstate.NewDefaultState()))
		Expect(app.Close()).To(Succeed())
	})

	It("creates the SQLite database inside the directory", func() {
		dir := GinkgoT().TempDir()
		cfg := config.NewDefaultConfig()

		app, err := chat.Open(context.Background(), cfg, dir, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(app.Close()).To(Succeed())
		Expect(filepath.Join(dir, chat.DatabaseFile)).To(BeAnExistingFile())
	})

	It("rejects unknown event providers", func() {
		cfg := config.NewDefaultConfig()
		cfg.Storage.Driver = "memory"
		cfg.EventStream.Provider = "nats"

		_, err := chat.Open(context.Background(), cfg, "", nil)
		Expect(err).To(MatchError(ContainSubstring("unsupported eventstream provider")))
	})
})
