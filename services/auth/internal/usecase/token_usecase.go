package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"authkit/pkg/logger"
	"authkit/pkg/mailer"
	"authkit/pkg/password"
	"authkit/pkg/secret"
	"authkit/services/auth/internal/entity"
	"authkit/services/auth/internal/repo/persistent"
)

type TokenUseCase interface {
	RequestVerification(ctx context.Context, accountID string) error
	ConsumeVerification(ctx context.Context, rawToken string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConsumePasswordReset(ctx context.Context, rawToken, newPassword string) error
}

// MailSettings controls how out-of-band links are built and delivered.
type MailSettings struct {
	ClientURL string
	Sender    string
	Timeout   time.Duration
}

type tokenUseCase struct {
	accountRepo persistent.AccountRepository
	tokenRepo   persistent.TokenRepository
	hasher      *password.Hasher
	mailer      mailer.Mailer
	settings    MailSettings
	logger      *logger.Logger
	now         func() time.Time
}

func NewTokenUseCase(
	accountRepo persistent.AccountRepository,
	tokenRepo persistent.TokenRepository,
	hasher *password.Hasher,
	m mailer.Mailer,
	settings MailSettings,
	logger *logger.Logger,
) TokenUseCase {
	settings.ClientURL = strings.TrimRight(settings.ClientURL, "/")
	return &tokenUseCase{
		accountRepo: accountRepo,
		tokenRepo:   tokenRepo,
		hasher:      hasher,
		mailer:      m,
		settings:    settings,
		logger:      logger,
		now:         time.Now,
	}
}

func (uc *tokenUseCase) RequestVerification(ctx context.Context, accountID string) error {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if account.IsVerified {
		return entity.ErrAlreadyVerified
	}

	return uc.issue(ctx, account, entity.PurposeVerification)
}

func (uc *tokenUseCase) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", entity.ErrValidation)
	}

	account, err := uc.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	return uc.issue(ctx, account, entity.PurposePasswordReset)
}

// issue replaces the outstanding token for the purpose and mails the raw secret.
// A failed send leaves the new token in place.
func (uc *tokenUseCase) issue(ctx context.Context, account *entity.Account, purpose entity.TokenPurpose) error {
	raw, err := secret.Generate(account.ID)
	if err != nil {
		uc.logger.Error("Failed to generate %s token: %v", purpose, err)
		return err
	}

	now := uc.now()
	token := &entity.SecretToken{
		AccountID: account.ID,
		Purpose:   purpose,
		Hash:      secret.Hash(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(purpose.TTL()),
	}
	if err := uc.tokenRepo.Replace(ctx, token); err != nil {
		uc.logger.Error("Failed to store %s token for %s: %v", purpose, account.ID, err)
		return fmt.Errorf("failed to store token: %w", err)
	}

	msg := mailer.Message{
		Subject:  purpose.Subject(),
		To:       account.Email,
		From:     uc.settings.Sender,
		ReplyTo:  purpose.ReplyTo(),
		Template: purpose.Template(),
		Name:     account.Name,
		URL:      fmt.Sprintf("%s/%s/%s", uc.settings.ClientURL, purpose.LinkPath(), raw),
	}

	sendCtx := ctx
	if uc.settings.Timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, uc.settings.Timeout)
		defer cancel()
	}

	if err := uc.mailer.Send(sendCtx, msg); err != nil {
		uc.logger.Error("Failed to send %s email to account %s: %v", purpose, account.ID, err)
		return entity.ErrEmailDeliveryFailed
	}

	uc.logger.Info("Sent %s email to account %s", purpose, account.ID)
	return nil
}

func (uc *tokenUseCase) ConsumeVerification(ctx context.Context, rawToken string) error {
	token, err := uc.lookup(ctx, rawToken, entity.PurposeVerification)
	if err != nil {
		return err
	}

	account, err := uc.accountRepo.GetByID(ctx, token.AccountID)
	if err != nil {
		return err
	}
	if account.IsVerified {
		return entity.ErrAlreadyVerified
	}

	if err := uc.consume(ctx, token); err != nil {
		return err
	}

	account.IsVerified = true
	if err := uc.accountRepo.Update(ctx, account); err != nil {
		uc.logger.Error("Failed to mark account %s verified: %v", account.ID, err)
		return err
	}

	uc.logger.Info("Account %s verified", account.ID)
	return nil
}

func (uc *tokenUseCase) ConsumePasswordReset(ctx context.Context, rawToken, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", entity.ErrValidation)
	}
	if err := checkNewPassword(newPassword, 1); err != nil {
		return err
	}

	token, err := uc.lookup(ctx, rawToken, entity.PurposePasswordReset)
	if err != nil {
		return err
	}

	account, err := uc.accountRepo.GetByID(ctx, token.AccountID)
	if err != nil {
		return err
	}

	digest, err := uc.hasher.Hash(ctx, newPassword)
	if err != nil {
		uc.logger.Error("Failed to hash password: %v", err)
		return fmt.Errorf("failed to reset password: %w", err)
	}

	if err := uc.consume(ctx, token); err != nil {
		return err
	}

	account.PasswordHash = digest
	if err := uc.accountRepo.Update(ctx, account); err != nil {
		uc.logger.Error("Failed to store reset password for %s: %v", account.ID, err)
		return err
	}

	uc.logger.Info("Password reset for account %s", account.ID)
	return nil
}

// lookup finds an unexpired token of the given purpose. Unknown and expired tokens
// are reported identically.
func (uc *tokenUseCase) lookup(ctx context.Context, rawToken string, purpose entity.TokenPurpose) (*entity.SecretToken, error) {
	if rawToken == "" {
		return nil, entity.ErrInvalidOrExpiredToken
	}

	token, err := uc.tokenRepo.FindActive(ctx, secret.Hash(rawToken), purpose, uc.now())
	if errors.Is(err, entity.ErrNotFound) {
		return nil, entity.ErrInvalidOrExpiredToken
	}
	if err != nil {
		uc.logger.Error("Failed to look up %s token: %v", purpose, err)
		return nil, err
	}
	return token, nil
}

func (uc *tokenUseCase) consume(ctx context.Context, token *entity.SecretToken) error {
	consumed, err := uc.tokenRepo.Consume(ctx, token.ID)
	if err != nil {
		uc.logger.Error("Failed to consume token %s: %v", token.ID, err)
		return err
	}
	if !consumed {
		return entity.ErrInvalidOrExpiredToken
	}
	return nil
}
