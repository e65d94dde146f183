package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/zhyuuka/xingling-chat/pkg/eventstream"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		w *fakeWriter
		p *Publisher
	)

	BeforeEach(func() {
		w = &fakeWriter{}
		p = newPublisher(w, "turns", nil)
	})

	It("writes the event keyed by session id", func() {
		event := &eventstream.TurnCompletedEvent{
			EventType: eventstream.EventTypeTurnCompleted,
			EventID:   "evt_1",
			EmittedAt: time.Unix(10, 0).UTC(),
			Turn:      eventstream.TurnMeta{SessionID: "s1", Outcome: eventstream.OutcomeOK},
		}
		Expect(p.PublishTurn(context.Background(), event)).To(Succeed())

		Expect(w.msgs).To(HaveLen(1))
		Expect(string(w.msgs[0].Key)).To(Equal("s1"))
		Expect(w.msgs[0].Headers).To(ContainElement(kafkago.Header{Key: "event_id", Value: []byte("evt_1")}))

		var decoded eventstream.TurnCompletedEvent
		Expect(json.Unmarshal(w.msgs[0].Value, &decoded)).To(Succeed())
		Expect(decoded.Turn.Outcome).To(Equal(eventstream.OutcomeOK))
	})

	It("rejects nil events", func() {
		Expect(p.PublishTurn(context.Background(), nil)).To(MatchError(eventstream.ErrNilTurnEvent))
		Expect(w.msgs).To(BeEmpty())
	})

	It("wraps writer failures", func() {
		w.err = errors.New("broker down")
		err := p.PublishTurn(context.Background(), &eventstream.TurnCompletedEvent{})
		Expect(err).To(MatchError(ContainSubstring("broker down")))
	})

	It("closes the writer", func() {
		Expect(p.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})

	Describe("NewPublisher", func() {
		It("requires brokers and a topic", func() {
			_, err := NewPublisher(Config{Topic: "t"})
			Expect(err).To(HaveOccurred())
			_, err = NewPublisher(Config{Brokers: []string{"localhost:9092"}})
			Expect(err).To(HaveOccurred())
		})

		It("builds a writer without connecting", func() {
			pub, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "t"})
			Expect(err).NotTo(HaveOccurred())
			Expect(pub.Close()).To(Succeed())
		})
	})

	It("parses broker lists", func() {
		Expect(ParseBrokers(" a:1, ,b:2,")).To(Equal([]string{"a:1", "b:2"}))
		Expect(ParseBrokers("")).To(BeEmpty())
	})
})
