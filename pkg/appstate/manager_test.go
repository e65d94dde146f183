package appstate_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zhyuuka/xingling-chat/pkg/appstate"
	"github.com/zhyuuka/xingling-chat/pkg/llm"
	testutils "github.com/zhyuuka/xingling-chat/pkg/utils/test"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

var _ = Describe("Manager", func() {
	var (
		ctx context.Context
		kv  *testutils.RecordingKV
		mgr *appstate.Manager
	)

	BeforeEach(func() {
		ctx = context.Background()
		kv = testutils.NewRecordingKV()

		var err error
		mgr, err = appstate.Load(ctx, kv, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts from defaults without writing anything", func() {
		Expect(mgr.State()).To(Equal(appstate.NewDefaultState()))
		keys, err := kv.Keys(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(keys).To(BeEmpty())
	})

	It("persists a setting under its storage key", func() {
		Expect(mgr.Set(ctx, "assistant.name", "  Apricot ")).To(Succeed())
		Expect(mgr.State().AssistantName).To(Equal("Apricot"))

		raw, err := kv.Get(ctx, appstate.KeyAssistantName)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(Equal("Apricot"))
	})

	It("stores API settings as one JSON object", func() {
		Expect(mgr.Set(ctx, "api.model", "deepseek-reasoner")).To(Succeed())

		raw, err := kv.Get(ctx, appstate.KeyAPIConfig)
		Expect(err).NotTo(HaveOccurred())

		var api llm.APIConfig
		Expect(json.Unmarshal([]byte(raw), &api)).To(Succeed())
		Expect(api.Model).To(Equal("deepseek-reasoner"))
		Expect(api.BaseURL).To(Equal(appstate.DefaultBaseURL))
	})

	It("reloads persisted settings", func() {
		Expect(mgr.Set(ctx, "search.enabled", "true")).To(Succeed())
		Expect(mgr.Set(ctx, "search.provider", llm.SearchProviderGoogleSerper)).To(Succeed())
		Expect(mgr.SetShowReasoning(ctx, false)).To(Succeed())

		reloaded, err := appstate.Load(ctx, kv, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.State().Search.Enabled).To(BeTrue())
		Expect(reloaded.State().Search.Provider).To(Equal(llm.SearchProviderGoogleSerper))
		Expect(reloaded.State().ShowReasoning).To(BeFalse())
	})

	It("fills fields missing from a stored object with defaults", func() {
		Expect(kv.Put(ctx, appstate.KeySearchConfig, `{"enabled":true}`)).To(Succeed())

		reloaded, err := appstate.Load(ctx, kv, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.State().Search.Enabled).To(BeTrue())
		Expect(reloaded.State().Search.ResultCount).To(Equal(appstate.DefaultResultCount))
	})

	It("keeps defaults for undecodable values", func() {
		Expect(kv.Put(ctx, appstate.KeyAPIConfig, "{")).To(Succeed())
		Expect(kv.Put(ctx, appstate.KeyShowReasoning, "maybe")).To(Succeed())

		reloaded, err := appstate.Load(ctx, kv, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.State().API).To(Equal(appstate.DefaultAPIConfig()))
		Expect(reloaded.State().ShowReasoning).To(BeTrue())
	})

	It("rejects invalid values without changing state", func() {
		Expect(mgr.Set(ctx, "search.result_count", "0")).To(HaveOccurred())
		Expect(mgr.Set(ctx, "search.provider", "bing")).To(HaveOccurred())
		Expect(mgr.Set(ctx, "user.name", "   ")).To(HaveOccurred())
		Expect(mgr.Set(ctx, "nope", "x")).To(MatchError(ContainSubstring("unknown setting")))
		Expect(mgr.State()).To(Equal(appstate.NewDefaultState()))
	})

	It("does not commit a change that failed to persist", func() {
		kv.FailPut = true
		Expect(mgr.Set(ctx, "user.name", "Someone")).To(MatchError(testutils.ErrInjected))
		Expect(mgr.State().UserName).To(Equal(appstate.DefaultUserName))
	})

	It("converts image paths to data URIs", func() {
		path := filepath.Join(GinkgoT().TempDir(), "avatar.png")
		Expect(os.WriteFile(path, pngHeader, 0o600)).To(Succeed())

		Expect(mgr.Set(ctx, "assistant.avatar", path)).To(Succeed())
		Expect(mgr.State().AssistantAvatar).To(HavePrefix("data:image/png;base64,"))

		value, err := mgr.Get("assistant.avatar")
		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal(mgr.State().AssistantAvatar))
	})

	It("replaces the whole state", func() {
		next := appstate.NewDefaultState()
		next.UserName = "Imported"
		next.Wallpaper = "https://example.com/bg.jpg"

		Expect(mgr.Replace(ctx, next)).To(Succeed())
		Expect(mgr.State()).To(Equal(next))
		Expect(kv.Puts(appstate.KeyShowReasoning)).To(Equal(1))
	})
})

var _ = Describe("Keys", func() {
	It("lists every valid key", func() {
		for _, key := range appstate.ValidKeys() {
			Expect(appstate.IsValidKey(key)).To(BeTrue(), key)
		}
		Expect(appstate.IsValidKey("api.secret")).To(BeFalse())
	})

	It("marks credentials as secret", func() {
		Expect(appstate.IsSecretKey("api.key")).To(BeTrue())
		Expect(appstate.IsSecretKey("search.api_key")).To(BeTrue())
		Expect(appstate.IsSecretKey("api.model")).To(BeFalse())
	})

	It("masks all but the tail of a secret", func() {
		Expect(appstate.Mask("")).To(Equal(""))
		Expect(appstate.Mask("abc")).To(Equal("***"))
		Expect(appstate.Mask("sk-123456")).To(Equal("*****3456"))
	})
})

var _ = Describe("ImageDataURI", func() {
	It("rejects files that are not images", func() {
		path := filepath.Join(GinkgoT().TempDir(), "notes.txt")
		Expect(os.WriteFile(path, []byte("plain text"), 0o600)).To(Succeed())

		_, err := appstate.ImageDataURI(path)
		Expect(err).To(MatchError(ContainSubstring("not an image")))
	})

	It("fails for missing files", func() {
		_, err := appstate.ImageDataURI(filepath.Join(GinkgoT().TempDir(), "missing.png"))
		Expect(err).To(HaveOccurred())
	})
})
