package section

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/nomadgrid/nomadgrid/internal/geo"
	"github.com/nomadgrid/nomadgrid/internal/llm"
	"github.com/nomadgrid/nomadgrid/internal/log"
	"github.com/nomadgrid/nomadgrid/internal/session"
	"github.com/nomadgrid/nomadgrid/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestGenerator(fake *testutil.FakeLLM) (*Generator, *session.Store) {
	store := session.NewStore(log.NewNop())
	gen := NewGenerator(Config{
		Streamer:   fake,
		Store:      store,
		GeoTimeout: 100 * time.Millisecond,
		Logger:     log.NewNop(),
	})
	return gen, store
}

func TestGenerate_CreatesSessionWithFourStreamingArtifacts(t *testing.T) {
	fake := testutil.NewFakeLLM()
	gen, store := newTestGenerator(fake)

	id, err := gen.Generate(context.Background(), "plan my month in Lisbon", nil, nil)
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}

	sess, err := store.Get(id)
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if len(sess.Artifacts) != 4 {
		t.Fatalf("artifacts = %d, want 4", len(sess.Artifacts))
	}

	wantIDs := []string{"dashboard", "marketplace", "nomad", "community"}
	for i, a := range sess.Artifacts {
		if a.ID != wantIDs[i] {
			t.Errorf("artifact %d = %s, want %s (order must be fixed)", i, a.ID, wantIDs[i])
		}
	}

	cur, ok := store.Current()
	if !ok || cur.ID != id {
		t.Error("generated session must become current")
	}
}

func TestGenerate_PlaceholderVisibleBeforeStreaming(t *testing.T) {
	store := session.NewStore(log.NewNop())

	// The streamer asserts from inside each call that the placeholder
	// session is already current with all artifacts streaming.
	var once sync.Once
	checked := make(chan bool, 1)

	gen := NewGenerator(Config{
		Streamer: streamerFunc(func(ctx context.Context, req llm.StreamRequest, emit func(string) error) error {
			once.Do(func() {
				cur, ok := store.Current()
				checked <- ok && len(cur.Artifacts) == 4
			})
			return emit("<div>x</div>")
		}),
		Store:  store,
		Logger: log.NewNop(),
	})

	if _, err := gen.Generate(context.Background(), "hello", nil, nil); err != nil {
		t.Fatal(err)
	}
	if !<-checked {
		t.Error("placeholder session must be current before any network call")
	}
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	gen, _ := newTestGenerator(testutil.NewFakeLLM())

	if _, err := gen.Generate(context.Background(), "   ", nil, nil); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("Generate(whitespace) = %v, want ErrEmptyPrompt", err)
	}
}

func TestGenerate_StreamsAndSanitizes(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.AddStream("", "```html\n", "<div>card</div>", "<script>track()</script>", "\n```")
	gen, store := newTestGenerator(fake)

	id, err := gen.Generate(context.Background(), "markets in Mexico City", nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	sess, _ := store.Get(id)
	for _, a := range sess.Artifacts {
		if a.Status != session.StatusComplete {
			t.Errorf("artifact %s status = %s, want complete", a.ID, a.Status)
		}
		if a.Content != "<div>card</div>" {
			t.Errorf("artifact %s content = %q, want fences and scripts stripped", a.ID, a.Content)
		}
	}
}

func TestGenerate_FailureIsolation(t *testing.T) {
	fake := testutil.NewFakeLLM()
	// The dashboard request errors mid-stream; every other section succeeds.
	fake.FailStream("dashboard", errors.New("boom"), "<par")
	fake.AddStream("", "<div>ok</div>")
	gen, store := newTestGenerator(fake)

	id, err := gen.Generate(context.Background(), "plan my week", nil, nil)
	if err != nil {
		t.Fatalf("a section fault must not fail the session: %v", err)
	}

	sess, _ := store.Get(id)
	for _, a := range sess.Artifacts {
		switch a.ID {
		case "dashboard":
			if a.Status != session.StatusFailed {
				t.Errorf("dashboard status = %s, want failed", a.Status)
			}
			if a.Content != "<par" {
				t.Errorf("dashboard partial content = %q, want preserved", a.Content)
			}
		default:
			if a.Status != session.StatusComplete {
				t.Errorf("%s status = %s, want complete (failure must be isolated)", a.ID, a.Status)
			}
		}
	}
}

func TestGenerate_GeoAugmentation(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.AddStream("", "<div>x</div>")
	gen, _ := newTestGenerator(fake)

	locator := geo.Fixed(geo.Coordinates{Latitude: -8.65, Longitude: 115.14})
	if _, err := gen.Generate(context.Background(),
		"best coworking space in Canggu with fast wifi", locator, nil); err != nil {
		t.Fatal(err)
	}

	grounded := map[string]bool{}
	for _, call := range fake.StreamCalls() {
		for _, d := range Descriptors() {
			if strings.Contains(call.Prompt, d.DisplayName) {
				grounded[d.ID] = call.GeoGrounded
				if call.GeoGrounded && !call.HasLocation {
					t.Errorf("section %s grounded but coordinates missing", d.ID)
				}
			}
		}
	}

	want := map[string]bool{
		"dashboard":   true, // display name matches keyword set
		"nomad":       true,
		"marketplace": false,
		"community":   false,
	}
	for id, wantGeo := range want {
		if grounded[id] != wantGeo {
			t.Errorf("section %s geo-grounded = %v, want %v", id, grounded[id], wantGeo)
		}
	}
}

func TestGenerate_GeoFailureDegradesSilently(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.AddStream("", "<div>x</div>")
	gen, store := newTestGenerator(fake)

	id, err := gen.Generate(context.Background(), "cafes near me", geo.Unavailable(), nil)
	if err != nil {
		t.Fatal(err)
	}

	sess, _ := store.Get(id)
	for _, a := range sess.Artifacts {
		if a.Status != session.StatusComplete {
			t.Errorf("artifact %s = %s; denied geolocation must not fail generation", a.ID, a.Status)
		}
	}
	for _, call := range fake.StreamCalls() {
		if call.HasLocation {
			t.Error("coordinates must not be attached when the locator fails")
		}
	}
}

func TestGenerate_ObserverSeesPatchesInOrder(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.AddStream("", "a", "b", "c")
	gen, _ := newTestGenerator(fake)

	var mu sync.Mutex
	perArtifact := map[string]string{}
	statuses := map[string]session.Status{}

	id, err := gen.Generate(context.Background(), "hello", nil, func(p Patch) {
		mu.Lock()
		defer mu.Unlock()
		if p.Delta != "" {
			perArtifact[p.ArtifactID] += p.Delta
		}
		if p.Status != "" {
			statuses[p.ArtifactID] = p.Status
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == uuid.Nil {
		t.Fatal("Generate() returned nil session id")
	}

	mu.Lock()
	defer mu.Unlock()
	for _, d := range Descriptors() {
		if perArtifact[d.ID] != "abc" {
			t.Errorf("artifact %s observed deltas = %q, want %q (arrival order)", d.ID, perArtifact[d.ID], "abc")
		}
		if statuses[d.ID] != session.StatusComplete {
			t.Errorf("artifact %s observed status = %s, want complete", d.ID, statuses[d.ID])
		}
	}
}

func TestGenerate_OverlappingCallsOwnDistinctSessions(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.AddStream("", "<div>x</div>")
	gen, store := newTestGenerator(fake)

	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := gen.Generate(context.Background(), "overlap", nil, nil)
			if err != nil {
				t.Errorf("Generate() = %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uuid.UUID]bool{}
	for id := range ids {
		if seen[id] {
			t.Error("overlapping generations must not share a session")
		}
		seen[id] = true
	}
	if store.Len() != 2 {
		t.Errorf("store has %d sessions, want 2", store.Len())
	}
}

// streamerFunc adapts a function to the Streamer interface for tests that
// need to intercept calls.
type streamerFunc func(ctx context.Context, req llm.StreamRequest, emit func(string) error) error

func (f streamerFunc) GenerateStream(ctx context.Context, req llm.StreamRequest, emit func(string) error) error {
	return f(ctx, req, emit)
}
