package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/nomadgrid/nomadgrid/internal/llm"
	"github.com/nomadgrid/nomadgrid/internal/log"
	"github.com/nomadgrid/nomadgrid/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSend_AppendsBothTurnsInOrder(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.ChatResponse = "Hello! Where are you headed?"
	mgr := NewManager(fake, log.NewNop())

	reply, err := mgr.Send(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("Send() = %v", err)
	}
	if reply != "Hello! Where are you headed?" {
		t.Errorf("reply = %q", reply)
	}

	history := mgr.History()
	if len(history) != 2 {
		t.Fatalf("history = %d turns, want 2", len(history))
	}
	if history[0].Role != llm.RoleUser || history[0].Text != "Hi" {
		t.Errorf("turn 0 = %+v, want user Hi", history[0])
	}
	if history[1].Role != llm.RoleAssistant || history[1].Text != reply {
		t.Errorf("turn 1 = %+v, want assistant reply", history[1])
	}
}

func TestSend_UserTurnVisibleBeforeResponse(t *testing.T) {
	release := make(chan struct{})
	observed := make(chan int, 1)

	var mgr *Manager
	gen := generatorFunc(func(ctx context.Context, history []llm.Message, system string) (string, error) {
		observed <- len(mgr.History())
		<-release
		return "reply", nil
	})
	mgr = NewManager(gen, log.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := mgr.Send(context.Background(), "Hi"); err != nil {
			t.Errorf("Send() = %v", err)
		}
	}()

	if got := <-observed; got != 1 {
		t.Errorf("history during remote call = %d turns, want 1 (user turn appended synchronously)", got)
	}
	close(release)
	<-done
}

func TestSend_RejectsEmptyInput(t *testing.T) {
	mgr := NewManager(testutil.NewFakeLLM(), log.NewNop())

	for _, input := range []string{"", "   ", "\n\t"} {
		if _, err := mgr.Send(context.Background(), input); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Send(%q) = %v, want ErrEmptyMessage", input, err)
		}
	}
	if len(mgr.History()) != 0 {
		t.Error("rejected input must not touch history")
	}
}

func TestSend_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	gen := generatorFunc(func(ctx context.Context, history []llm.Message, system string) (string, error) {
		close(started)
		<-release
		return "slow reply", nil
	})
	mgr := NewManager(gen, log.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := mgr.Send(context.Background(), "first"); err != nil {
			t.Errorf("first Send() = %v", err)
		}
	}()

	<-started
	if _, err := mgr.Send(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("overlapping Send() = %v, want ErrBusy", err)
	}

	close(release)
	<-done

	// The guard clears after the first send resolves.
	if mgr.InFlight() {
		t.Error("in-flight flag must clear after completion")
	}
	history := mgr.History()
	if len(history) != 2 {
		t.Fatalf("history = %d turns, want 2 (rejected send appends nothing)", len(history))
	}
}

func TestSend_EmptyResponseUsesFallback(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.ChatResponse = "   "
	mgr := NewManager(fake, log.NewNop())

	reply, err := mgr.Send(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("Send() = %v", err)
	}
	if reply != fallbackResponse {
		t.Errorf("reply = %q, want fallback", reply)
	}

	history := mgr.History()
	if history[1].Text != fallbackResponse {
		t.Errorf("assistant turn = %q, want fallback", history[1].Text)
	}
}

func TestSend_FailureLeavesUserTurnUnanswered(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.ChatErr = errors.New("transport down")
	mgr := NewManager(fake, log.NewNop())

	if _, err := mgr.Send(context.Background(), "Hi"); err == nil {
		t.Fatal("Send() = nil, want error")
	}

	history := mgr.History()
	if len(history) != 1 {
		t.Fatalf("history = %d turns, want 1 (no assistant turn on failure)", len(history))
	}
	if history[0].Role != llm.RoleUser {
		t.Errorf("remaining turn role = %s, want user", history[0].Role)
	}

	// The guard clears on the failure path too; the next send proceeds.
	fake.ChatErr = nil
	fake.ChatResponse = "recovered"
	if _, err := mgr.Send(context.Background(), "again"); err != nil {
		t.Errorf("Send() after failure = %v, want success", err)
	}
}

func TestSend_FullHistorySentToModel(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.ChatResponse = "r1"
	mgr := NewManager(fake, log.NewNop())

	if _, err := mgr.Send(context.Background(), "m1"); err != nil {
		t.Fatal(err)
	}
	fake.ChatResponse = "r2"
	if _, err := mgr.Send(context.Background(), "m2"); err != nil {
		t.Fatal(err)
	}

	calls := fake.ChatCalls()
	if len(calls) != 2 {
		t.Fatalf("chat calls = %d, want 2", len(calls))
	}
	// The second call carries the whole prior exchange plus the new turn.
	want := []string{"m1", "r1", "m2"}
	if len(calls[1]) != len(want) {
		t.Fatalf("second call history = %d turns, want %d", len(calls[1]), len(want))
	}
	for i, text := range want {
		if calls[1][i].Text != text {
			t.Errorf("second call turn %d = %q, want %q", i, calls[1][i].Text, text)
		}
	}
}

func TestHistory_CopyDoesNotAlias(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.ChatResponse = "r"
	mgr := NewManager(fake, log.NewNop())
	if _, err := mgr.Send(context.Background(), "m"); err != nil {
		t.Fatal(err)
	}

	history := mgr.History()
	history[0].Text = "tampered"

	if mgr.History()[0].Text != "m" {
		t.Error("mutating a History() copy must not leak into the manager")
	}
}

func TestSend_ConcurrentBurstRejectedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	gen := generatorFunc(func(ctx context.Context, history []llm.Message, system string) (string, error) {
		close(started)
		<-release
		return "reply", nil
	})
	mgr := NewManager(gen, log.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := mgr.Send(context.Background(), "winner"); err != nil {
			t.Errorf("winner Send() = %v", err)
		}
	}()
	<-started

	const burst = 8
	var wg sync.WaitGroup
	for i := 0; i < burst; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := mgr.Send(context.Background(), "loser"); !errors.Is(err, ErrBusy) {
				t.Errorf("overlapping Send() = %v, want ErrBusy", err)
			}
		}()
	}
	wg.Wait()

	close(release)
	<-done

	if got := len(mgr.History()); got != 2 {
		t.Errorf("history = %d turns, want 2 (only the winner's exchange)", got)
	}
}

// generatorFunc adapts a function to the Generator interface.
type generatorFunc func(ctx context.Context, history []llm.Message, system string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, history []llm.Message, system string) (string, error) {
	return f(ctx, history, system)
}
