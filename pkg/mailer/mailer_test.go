package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"authkit/pkg/config"
	"authkit/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func verificationMessage() Message {
	return Message{
		Subject:  "Email Verification - AuthKit",
		To:       "jane@example.com",
		From:     "authkit@example.com",
		ReplyTo:  "noreply@gmail.com",
		Template: TemplateEmailVerification,
		Name:     "Jane",
		URL:      "http://localhost:3000/verify-email/abc123",
	}
}

func TestRender(t *testing.T) {
	body, err := Render(verificationMessage())
	require.NoError(t, err)

	assert.Contains(t, body, "Hello Jane")
	assert.Contains(t, body, `href="http://localhost:3000/verify-email/abc123"`)
}

func TestRender_EscapesName(t *testing.T) {
	msg := verificationMessage()
	msg.Name = "<script>alert(1)</script>"

	body, err := Render(msg)
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestRender_UnknownTemplate(t *testing.T) {
	msg := verificationMessage()
	msg.Template = "welcome"

	_, err := Render(msg)
	assert.Error(t, err)
}

func TestCompose(t *testing.T) {
	raw, err := Compose(verificationMessage())
	require.NoError(t, err)

	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "From: authkit@example.com\r\nTo: jane@example.com\r\n"))
	assert.Contains(t, text, "Reply-To: noreply@gmail.com\r\n")
	assert.Contains(t, text, "Subject: Email Verification - AuthKit\r\n")
	assert.Contains(t, text, `Content-Type: text/html; charset="UTF-8"`)
}

func TestMessage_Validate(t *testing.T) {
	assert.NoError(t, verificationMessage().Validate())

	noRecipient := verificationMessage()
	noRecipient.To = ""
	assert.Error(t, noRecipient.Validate())

	badTemplate := verificationMessage()
	badTemplate.Template = "nope"
	assert.Error(t, badTemplate.Validate())
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEmailTask(ctx context.Context, task interface{}, priority int) error {
	args := m.Called(ctx, task, priority)
	return args.Error(0)
}

func TestQueueMailer_Send(t *testing.T) {
	publisher := new(MockPublisher)
	msg := verificationMessage()
	publisher.On("PublishEmailTask", mock.Anything, msg, 1).Return(nil)

	err := NewQueueMailer(publisher).Send(context.Background(), msg)

	assert.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestQueueMailer_ResetHasPriority(t *testing.T) {
	publisher := new(MockPublisher)
	msg := verificationMessage()
	msg.Template = TemplateForgotPassword
	publisher.On("PublishEmailTask", mock.Anything, msg, 5).Return(errors.New("channel closed"))

	err := NewQueueMailer(publisher).Send(context.Background(), msg)

	assert.Error(t, err)
	publisher.AssertExpectations(t)
}

func TestQueueMailer_RejectsInvalidMessage(t *testing.T) {
	publisher := new(MockPublisher)
	msg := verificationMessage()
	msg.To = ""

	err := NewQueueMailer(publisher).Send(context.Background(), msg)

	assert.Error(t, err)
	publisher.AssertNotCalled(t, "PublishEmailTask", mock.Anything, mock.Anything, mock.Anything)
}

type recordingMailer struct {
	sent []Message
	err  error
}

func (r *recordingMailer) Send(ctx context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestRelay(t *testing.T) {
	next := &recordingMailer{}
	body, err := json.Marshal(verificationMessage())
	require.NoError(t, err)

	require.NoError(t, Relay(next)(context.Background(), body))
	require.Len(t, next.sent, 1)
	assert.Equal(t, verificationMessage(), next.sent[0])
}

func TestRelay_BadPayload(t *testing.T) {
	next := &recordingMailer{}

	err := Relay(next)(context.Background(), []byte(`[1,2]`))

	assert.Error(t, err)
	assert.Empty(t, next.sent)
}

func TestSMTPMailer_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	m := NewSMTPMailer(&config.Config{SMTPHost: host, SMTPPort: port}, logger.NewWithWriter(io.Discard, io.Discard))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, m.Send(ctx, verificationMessage()))
}
