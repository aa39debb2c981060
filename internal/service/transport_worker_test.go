package service_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/faworra/inbox-backend/internal/model"
	"github.com/faworra/inbox-backend/internal/queue"
	"github.com/faworra/inbox-backend/internal/service"
)

type workerFixture struct {
	worker      *service.TransportWorker
	outbox      *service.OutboxService
	outboxRepo  *memOutboxRepo
	threadRepo  *memThreadRepo
	messageRepo *memMessageRepo
}

func newWorkerFixture(send func(entry *model.OutboxEntry) error) *workerFixture {
	accountRepo := newMemAccountRepo(waAccount())
	threadRepo := newMemThreadRepo()
	messageRepo := &memMessageRepo{}
	outboxRepo := newMemOutboxRepo()

	inbox := &service.InboxService{
		ThreadRepo:  threadRepo,
		MessageRepo: messageRepo,
		AccountRepo: accountRepo,
		Log:         zerolog.Nop(),
	}
	outbox := &service.OutboxService{
		AccountRepo: accountRepo,
		ThreadRepo:  threadRepo,
		OutboxRepo:  outboxRepo,
		Queue:       queue.NewInMemoryQueue(),
		Log:         zerolog.Nop(),
	}
	return &workerFixture{
		worker: &service.TransportWorker{
			OutboxRepo:  outboxRepo,
			AccountRepo: accountRepo,
			Inbox:       inbox,
			Outbox:      outbox,
			SendFunc:    send,
			Log:         zerolog.Nop(),
		},
		outbox:      outbox,
		outboxRepo:  outboxRepo,
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
	}
}

func TestWorkerSendsQueuedEntry(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	f := newWorkerFixture(func(entry *model.OutboxEntry) error {
		defer wg.Done()
		return nil
	})

	res, err := f.outbox.Enqueue("team-1", "acct-1", service.EnqueueRequest{
		Recipient: "2347098765432",
		Content:   strPtr("Your order is ready"),
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	jobs := make(chan string, 1)
	jobs <- res.EntryID
	close(jobs)

	go f.worker.Start(jobs)
	wg.Wait()

	// Start drains the channel asynchronously; wait for the status write.
	deadline := time.Now().Add(2 * time.Second)
	for {
		entry, err := f.outboxRepo.GetByID(res.EntryID)
		if err != nil {
			t.Fatalf("reading entry: %v", err)
		}
		if entry.Status == model.OutboxStatusSent {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("entry never reached sent, status %s", entry.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The send materialized as an outbound message on the contact's thread.
	thread, err := f.threadRepo.Upsert("team-1", "acct-1", "2347098765432", model.ChannelWhatsApp)
	if err != nil {
		t.Fatalf("resolving thread: %v", err)
	}
	deadline = time.Now().Add(2 * time.Second)
	for {
		msgs, _ := f.messageRepo.ListBefore(thread.ID, 10, nil)
		if len(msgs) == 1 {
			if msgs[0].Direction != model.DirectionOut {
				t.Errorf("expected outbound message, got %s", msgs[0].Direction)
			}
			if msgs[0].SentAt == nil {
				t.Error("sent_at not stamped on the ledger message")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("outbound message never appeared, got %d", len(msgs))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWorkerRecordsSendFailure(t *testing.T) {
	f := newWorkerFixture(func(entry *model.OutboxEntry) error {
		return errors.New("number not on whatsapp")
	})

	res, err := f.outbox.Enqueue("team-1", "acct-1", service.EnqueueRequest{
		Recipient: "2347098765432",
		Content:   strPtr("hello"),
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if err := f.worker.Process(res.EntryID); err != nil {
		t.Fatalf("process should record the failure, not return it: %v", err)
	}

	entry, _ := f.outboxRepo.GetByID(res.EntryID)
	if entry.Status != model.OutboxStatusFailed {
		t.Errorf("expected failed, got %s", entry.Status)
	}
	if entry.LastError == nil || *entry.LastError != "number not on whatsapp" {
		t.Errorf("provider error not recorded, got %v", entry.LastError)
	}
}

func TestWorkerSkipsNonQueuedEntry(t *testing.T) {
	sends := 0
	f := newWorkerFixture(func(entry *model.OutboxEntry) error {
		sends++
		return nil
	})

	res, err := f.outbox.Enqueue("team-1", "acct-1", service.EnqueueRequest{
		Recipient: "2347098765432",
		Content:   strPtr("once only"),
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	// A redelivered notification must not resend.
	if err := f.worker.Process(res.EntryID); err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	if err := f.worker.Process(res.EntryID); err != nil {
		t.Fatalf("duplicate process failed: %v", err)
	}
	if sends != 1 {
		t.Errorf("expected exactly one provider send, got %d", sends)
	}
}

func TestWorkerRecordsReceipt(t *testing.T) {
	f := newWorkerFixture(func(entry *model.OutboxEntry) error { return nil })

	res, err := f.outbox.Enqueue("team-1", "acct-1", service.EnqueueRequest{
		Recipient: "2347098765432",
		Content:   strPtr("fitting tomorrow 2pm"),
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if err := f.worker.Process(res.EntryID); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	at := time.Now().UTC().Add(time.Minute)
	if err := f.worker.RecordReceipt(res.EntryID, model.OutboxStatusDelivered, at); err != nil {
		t.Fatalf("receipt failed: %v", err)
	}

	entry, _ := f.outboxRepo.GetByID(res.EntryID)
	if entry.Status != model.OutboxStatusDelivered {
		t.Errorf("expected delivered, got %s", entry.Status)
	}

	// The receipt is a hidden status message: it bumps the thread's ordering
	// but stays out of the conversation view.
	thread, _ := f.threadRepo.Upsert("team-1", "acct-1", "2347098765432", model.ChannelWhatsApp)
	if thread.LastMessageAt == nil || !thread.LastMessageAt.Equal(at) {
		t.Errorf("receipt did not bump last_message_at, got %v", thread.LastMessageAt)
	}
	msgs, _ := f.messageRepo.ListBefore(thread.ID, 10, nil)
	for _, m := range msgs {
		if m.IsStatus {
			t.Error("status message leaked into conversation view")
		}
	}
	if len(msgs) != 1 {
		t.Errorf("expected only the original send in the view, got %d", len(msgs))
	}
}
