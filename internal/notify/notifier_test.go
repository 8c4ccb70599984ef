package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/notify"
)

// --- mocks ---

type mockSender struct {
	platform string
	sent     []string
	err      error
}

func (m *mockSender) Platform() string { return m.platform }

func (m *mockSender) Send(_ context.Context, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, text)
	return nil
}

func TestNotifier_FansOut(t *testing.T) {
	t.Parallel()

	a := &mockSender{platform: "slack"}
	b := &mockSender{platform: "webhook"}

	reg := notify.NewRegistry()
	reg.Register(a)
	reg.Register(b)

	require.NoError(t, notify.New(reg).Notify(context.Background(), "Tenant demo registered"))
	assert.Equal(t, []string{"Tenant demo registered"}, a.sent)
	assert.Equal(t, []string{"Tenant demo registered"}, b.sent)
}

func TestNotifier_JoinsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ok := &mockSender{platform: "a"}

	reg := notify.NewRegistry()
	reg.Register(ok)
	reg.Register(&mockSender{platform: "b", err: boom})

	err := notify.New(reg).Notify(context.Background(), "hi")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "b: boom")
	assert.Len(t, ok.sent, 1, "a failing sender must not stop the others")
}

func TestNotifier_NoSendersIsNoop(t *testing.T) {
	t.Parallel()

	var nilNotifier *notify.Notifier
	require.NoError(t, nilNotifier.Notify(context.Background(), "hi"))
	require.NoError(t, notify.New(notify.NewRegistry()).Notify(context.Background(), "hi"))
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := notify.NewRegistry()
	reg.Register(&mockSender{platform: "zulip"})
	reg.Register(&mockSender{platform: "slack"})

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "slack", all[0].Platform())
	assert.Equal(t, 2, reg.Len())

	reg.Register(&mockSender{platform: "slack"})
	assert.Equal(t, 2, reg.Len(), "same platform replaces")
}
