package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"authkit/pkg/jwt"
	"authkit/pkg/logger"
	"authkit/pkg/mailer"
	"authkit/pkg/password"
	"authkit/services/auth/internal/entity"
	"authkit/services/auth/internal/repo/inmemory"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testClientURL = "http://localhost:3000"

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *fakeMailer) last(t *testing.T) mailer.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email was sent")
	return m.sent[len(m.sent)-1]
}

type fakeStorage struct {
	uploads map[string]string
	deleted []string
	err     error
}

func (s *fakeStorage) UploadFile(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, _ := io.ReadAll(body)
	if s.uploads == nil {
		s.uploads = make(map[string]string)
	}
	s.uploads[key] = string(data)
	return "https://bucket.test/" + key, nil
}

func (s *fakeStorage) DeleteFile(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStorage) KeyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, "https://bucket.test/") {
		return "", false
	}
	return strings.TrimPrefix(url, "https://bucket.test/"), true
}

type fixture struct {
	accounts *inmemory.AccountRepository
	tokens   *inmemory.TokenRepository
	hasher   *password.Hasher
	jwt      *jwt.Service
	mail     *fakeMailer
	storage  *fakeStorage
	log      *logger.Logger
	account  AccountUseCase
	token    TokenUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		accounts: inmemory.NewAccountRepository(),
		tokens:   inmemory.NewTokenRepository(),
		hasher:   password.NewHasher(bcrypt.MinCost, 4),
		jwt:      jwt.NewService("test-secret"),
		mail:     &fakeMailer{},
		storage:  &fakeStorage{},
		log:      logger.NewWithWriter(io.Discard, io.Discard),
	}
	f.account = NewAccountUseCase(f.accounts, f.tokens, f.hasher, f.jwt, f.storage, f.log)
	f.token = NewTokenUseCase(f.accounts, f.tokens, f.hasher, f.mail, MailSettings{
		ClientURL: testClientURL + "/",
		Sender:    "authkit@example.com",
	}, f.log)
	return f
}

func (f *fixture) register(t *testing.T, name, email, plaintext string) *entity.Account {
	t.Helper()
	account, _, err := f.account.Register(context.Background(), name, email, plaintext)
	require.NoError(t, err)
	return account
}

// rawFromLink extracts the raw secret from the link in the last email.
func (f *fixture) rawFromLink(t *testing.T, path string) string {
	t.Helper()
	msg := f.mail.last(t)
	prefix := testClientURL + "/" + path + "/"
	require.True(t, strings.HasPrefix(msg.URL, prefix), "unexpected link %s", msg.URL)
	return strings.TrimPrefix(msg.URL, prefix)
}

var errBoom = errors.New("boom")
