package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neurolens/neurolens/internal/domain"
	"github.com/neurolens/neurolens/internal/llm"
	"github.com/neurolens/neurolens/internal/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage_NoSourceOnlySetsStatus(t *testing.T) {
	s := newTestSession(t, Deps{}, testOptions())
	before := s.Snapshot()

	require.NoError(t, s.SendMessage(context.Background(), "hello"))

	after := s.Snapshot()
	assert.Empty(t, after.Messages)
	assert.Equal(t, statusNoMode, after.Status)
	assert.False(t, after.Loading)
	assert.Equal(t, before.Source, after.Source)
	assert.Equal(t, before.ModelID, after.ModelID)
}

func TestSendMessage_EmptyIgnored(t *testing.T) {
	s := newTestSession(t, Deps{}, testOptions())
	s.ActivateMockMode()

	require.NoError(t, s.SendMessage(context.Background(), "   "))
	assert.Empty(t, s.Snapshot().Messages)
}

func TestSendMessage_MockTagsBothMessages(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTestSession(t, Deps{Journal: rec}, testOptions())
	s.ActivateMockMode()

	require.NoError(t, s.SendMessage(context.Background(), "I feel so anxious about my exam"))

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	user, reply := snap.Messages[0], snap.Messages[1]
	assert.True(t, user.IsUser)
	assert.Equal(t, "Anxious", user.Tag)
	assert.False(t, reply.IsUser)
	assert.Equal(t, "Anxious", reply.Tag)
	assert.Contains(t, reply.Text, "4-7-8 Breathing")
	assert.False(t, snap.Loading)

	require.Len(t, rec.entries, 1)
	e := rec.entries[0]
	assert.Equal(t, domain.EmotionAnxious, e.Emotion)
	assert.Equal(t, domain.CategoryEmotionalJournal, e.Category)
	assert.Equal(t, domain.SourceMock, e.Source)
	assert.Equal(t, s.ID(), e.SessionID)
	assert.Len(t, e.Advice, 3)
}

func TestSendMessage_MockBreathingAlwaysCalm(t *testing.T) {
	s := newTestSession(t, Deps{}, testOptions())
	s.ActivateMockMode()

	require.NoError(t, s.SendMessage(context.Background(), "I'm angry and need to breathe"))

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "Calm", snap.Messages[1].Tag)
}

func TestSendMessage_RecorderFailureDoesNotFailTurn(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	s := newTestSession(t, Deps{Journal: rec}, testOptions())
	s.ActivateMockMode()

	require.NoError(t, s.SendMessage(context.Background(), "thanks"))

	snap := s.Snapshot()
	assert.Len(t, snap.Messages, 2)
	assert.False(t, snap.Messages[1].Error)
}

func TestSendMessage_StreamReplacesLastMessage(t *testing.T) {
	remote := newFakeRemote()
	remote.tokens = []string{"Hel", "lo", " there"}
	opts := testOptions()
	opts.InitialSource = domain.SourceRemote
	s := newTestSession(t, Deps{Remote: remote}, opts)

	var counts []int
	var texts []string
	remote.afterTok = func() {
		snap := s.Snapshot()
		counts = append(counts, len(snap.Messages))
		texts = append(texts, snap.Messages[len(snap.Messages)-1].Text)
	}

	require.NoError(t, s.SendMessage(context.Background(), "hi"))

	assert.Equal(t, []int{2, 2, 2}, counts)
	assert.Equal(t, []string{"Hel", "Hello", "Hello there"}, texts)
	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "Hello there", snap.Messages[1].Text)
	assert.False(t, snap.Loading)

	require.Len(t, remote.genReqs, 1)
	assert.Equal(t, "hi", remote.genReqs[0].UserPrompt)
	assert.Equal(t, llm.TaskChat, remote.genReqs[0].Task)
}

func TestSendMessage_ThrottleAlwaysFlushesFinal(t *testing.T) {
	remote := newFakeRemote()
	remote.tokens = []string{"a", "b", "c"}
	opts := testOptions()
	opts.Throttle = time.Hour
	opts.InitialSource = domain.SourceRemote
	s := newTestSession(t, Deps{Remote: remote}, opts)

	var texts []string
	remote.afterTok = func() {
		snap := s.Snapshot()
		texts = append(texts, snap.Messages[len(snap.Messages)-1].Text)
	}

	require.NoError(t, s.SendMessage(context.Background(), "hi"))

	assert.Equal(t, []string{"a", "a", "a"}, texts)
	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "abc", snap.Messages[1].Text)
}

func TestSendMessage_FailureKeepsTokensAndAppendsOneError(t *testing.T) {
	remote := newFakeRemote()
	remote.tokens = []string{"partial"}
	remote.err = errors.New("connection reset")
	opts := testOptions()
	opts.InitialSource = domain.SourceRemote
	rec := &fakeRecorder{}
	s := newTestSession(t, Deps{Remote: remote, Journal: rec}, opts)

	require.NoError(t, s.SendMessage(context.Background(), "hi"))

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, "partial", snap.Messages[1].Text)
	assert.False(t, snap.Messages[1].Error)
	assert.Equal(t, "Error: connection reset", snap.Messages[2].Text)
	assert.True(t, snap.Messages[2].Error)
	assert.False(t, snap.Loading)
	assert.Empty(t, rec.entries)
}

func TestSendMessage_FailureWithoutTokens(t *testing.T) {
	remote := newFakeRemote()
	remote.err = llm.ErrOllamaUnavailable
	opts := testOptions()
	opts.InitialSource = domain.SourceRemote
	s := newTestSession(t, Deps{Remote: remote}, opts)

	require.NoError(t, s.SendMessage(context.Background(), "hi"))

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.True(t, snap.Messages[1].Error)
	assert.Equal(t, "Error: "+llm.ErrOllamaUnavailable.Error(), snap.Messages[1].Text)
}

func TestSendMessage_Timeout(t *testing.T) {
	remote := newFakeRemote()
	remote.block = make(chan struct{})
	opts := testOptions()
	opts.InitialSource = domain.SourceRemote
	opts.GenerateTimeout = 50 * time.Millisecond
	s := newTestSession(t, Deps{Remote: remote}, opts)

	require.NoError(t, s.SendMessage(context.Background(), "hi"))

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "Error: generation timed out", snap.Messages[1].Text)
	assert.False(t, snap.Loading)
}

func TestSendMessage_BusyWhileLoading(t *testing.T) {
	remote := newFakeRemote()
	remote.block = make(chan struct{})
	remote.tokens = []string{"done"}
	opts := testOptions()
	opts.InitialSource = domain.SourceRemote
	s := newTestSession(t, Deps{Remote: remote}, opts)

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "first") }()

	require.Eventually(t, func() bool { return s.Snapshot().Loading }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.SendMessage(context.Background(), "second"), ErrBusy)

	close(remote.block)
	require.NoError(t, <-done)

	snap := s.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "first", snap.Messages[0].Text)
	assert.Equal(t, "done", snap.Messages[1].Text)
}

func TestSendMessage_HistoryUsesChat(t *testing.T) {
	remote := newFakeRemote()
	remote.tokens = []string{"ok"}
	opts := testOptions()
	opts.InitialSource = domain.SourceRemote
	opts.HistoryTurns = 3
	s := newTestSession(t, Deps{Remote: remote}, opts)

	require.NoError(t, s.SendMessage(context.Background(), "one"))
	require.NoError(t, s.SendMessage(context.Background(), "two"))

	require.Len(t, remote.chatReqs, 2)
	turns := remote.chatReqs[1].Messages
	require.Len(t, turns, 3)
	assert.Equal(t, llm.ChatTurn{Text: "one", IsUser: true}, turns[0])
	assert.Equal(t, llm.ChatTurn{Text: "ok", IsUser: false}, turns[1])
	assert.Equal(t, llm.ChatTurn{Text: "two", IsUser: true}, turns[2])
	assert.Empty(t, remote.genReqs)
}

func TestSendMessage_LocalWithoutModelOnlySetsStatus(t *testing.T) {
	opts := testOptions()
	opts.InitialSource = domain.SourceLocal
	s := newTestSession(t, Deps{Engine: &fakeEngine{}}, opts)

	require.NoError(t, s.SendMessage(context.Background(), "hello"))

	snap := s.Snapshot()
	assert.Equal(t, domain.SourceLocal, snap.Source)
	assert.Empty(t, snap.ModelID)
	assert.Empty(t, snap.Messages)
	assert.Equal(t, statusNoMode, snap.Status)
	assert.False(t, snap.Loading)
}

func TestSendMessage_RemoteWithoutModelOnlySetsStatus(t *testing.T) {
	remote := newFakeRemote()
	remote.model = ""
	opts := testOptions()
	opts.InitialSource = domain.SourceRemote
	s := newTestSession(t, Deps{Remote: remote}, opts)

	require.NoError(t, s.SendMessage(context.Background(), "hello"))

	snap := s.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Equal(t, statusNoMode, snap.Status)
	assert.Empty(t, remote.genReqs)
	assert.Empty(t, remote.chatReqs)
}

func TestSendMessage_LocalUsesPreloadedEngineModel(t *testing.T) {
	engine := &fakeEngine{loaded: "smollm2", tokens: []string{"Hi ", "there"}}
	opts := testOptions()
	opts.InitialSource = domain.SourceLocal
	s := newTestSession(t, Deps{Engine: engine}, opts)

	require.NoError(t, s.SendMessage(context.Background(), "hello"))

	snap := s.Snapshot()
	assert.Equal(t, "smollm2", snap.ModelID)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "Hi there", snap.Messages[1].Text)
}

func TestClose_StopsInFlightTurn(t *testing.T) {
	remote := newFakeRemote()
	remote.block = make(chan struct{})
	opts := testOptions()
	opts.InitialSource = domain.SourceRemote
	s := New(Deps{Remote: remote}, opts)
	ch, _ := s.Subscribe()

	done := make(chan error, 1)
	go func() { done <- s.SendMessage(context.Background(), "hi") }()
	require.Eventually(t, func() bool { return s.Snapshot().Loading }, time.Second, 5*time.Millisecond)

	s.Close()
	require.NoError(t, <-done)

	for range ch {
	}
	assert.ErrorIs(t, s.SendMessage(context.Background(), "again"), ErrClosed)
	assert.False(t, s.Snapshot().Loading)
}

func TestSubscribe_LatestWins(t *testing.T) {
	s := newTestSession(t, Deps{}, testOptions())
	ch, cancel := s.Subscribe()
	defer cancel()

	s.ActivateMockMode()
	s.ToggleMockMode()
	s.ActivateMockMode()

	snap := <-ch
	assert.Equal(t, domain.SourceMock, snap.Source)
	assert.Equal(t, statusMock, snap.Status)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra snapshot %+v", extra)
	default:
	}
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	s := newTestSession(t, Deps{}, testOptions())
	ch, cancel := s.Subscribe()
	<-ch

	cancel()
	_, ok := <-ch
	assert.False(t, ok)

	// publishing after cancel must not panic
	s.ActivateMockMode()
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := newTestSession(t, Deps{}, testOptions())
	s.ActivateMockMode()
	require.NoError(t, s.SendMessage(context.Background(), "hello"))

	snap := s.Snapshot()
	snap.Messages[0].Text = "changed"

	assert.Equal(t, "hello", s.Snapshot().Messages[0].Text)
}

func TestToggleMockMode_RestoresPreviousSource(t *testing.T) {
	remote := newFakeRemote()
	opts := testOptions()
	opts.InitialSource = domain.SourceRemote
	s := newTestSession(t, Deps{Remote: remote}, opts)

	assert.True(t, s.ToggleMockMode())
	assert.True(t, s.Snapshot().MockMode())
	assert.Equal(t, domain.MockModelID, s.Snapshot().ModelID)

	assert.False(t, s.ToggleMockMode())
	snap := s.Snapshot()
	assert.Equal(t, domain.SourceRemote, snap.Source)
	assert.Equal(t, "llama2", snap.ModelID)
}

func TestSelectSource(t *testing.T) {
	s := newTestSession(t, Deps{}, testOptions())

	assert.ErrorIs(t, s.SelectSource(domain.SourceRemote), ErrNoBackend)
	assert.ErrorIs(t, s.SelectSource(domain.SourceLocal), ErrNoBackend)
	require.NoError(t, s.SelectSource(domain.SourceMock))
	assert.True(t, s.Snapshot().MockMode())
	require.NoError(t, s.SelectSource(domain.SourceNone))
	assert.Equal(t, domain.SourceNone, s.Snapshot().Source)
}

func TestInit_PublishesProbeResults(t *testing.T) {
	remote := newFakeRemote()
	s := newTestSession(t, Deps{Remote: remote, Engine: &fakeEngine{}}, testOptions())
	assert.Equal(t, statusInitializing, s.Snapshot().Status)

	require.NoError(t, s.Init(context.Background()))

	snap := s.Snapshot()
	assert.True(t, snap.Initialized)
	assert.True(t, snap.RemoteConnected)
	assert.True(t, snap.LocalReady)
	assert.Equal(t, statusReady, snap.Status)
}

func TestInit_FailedProbesClearFlags(t *testing.T) {
	remote := newFakeRemote()
	remote.available = false
	s := newTestSession(t, Deps{Remote: remote, Engine: &fakeEngine{listErr: local.ErrEngineUnavailable}}, testOptions())

	require.NoError(t, s.Init(context.Background()))

	snap := s.Snapshot()
	assert.False(t, snap.RemoteConnected)
	assert.False(t, snap.LocalReady)
}

func TestConfigureRemoteAndTestConnection(t *testing.T) {
	remote := newFakeRemote()
	s := newTestSession(t, Deps{Remote: remote}, testOptions())

	require.NoError(t, s.ConfigureRemote("http://10.0.0.2:11434", "mistral"))
	snap := s.Snapshot()
	assert.Equal(t, "http://10.0.0.2:11434", snap.RemoteURL)
	assert.Equal(t, "mistral", snap.RemoteModel)

	assert.True(t, s.TestConnection(context.Background()))
	assert.True(t, s.Snapshot().RemoteConnected)
	assert.Equal(t, "Connected to http://10.0.0.2:11434", s.Snapshot().Status)

	remote.available = false
	assert.False(t, s.TestConnection(context.Background()))
	assert.Equal(t, "Cannot reach http://10.0.0.2:11434", s.Snapshot().Status)
}

func TestConfigureRemote_NoBackend(t *testing.T) {
	s := newTestSession(t, Deps{}, testOptions())
	assert.ErrorIs(t, s.ConfigureRemote("http://x", "m"), ErrNoBackend)
	assert.False(t, s.TestConnection(context.Background()))
}
