package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"authkit/pkg/jwt"
	"authkit/pkg/logger"
	"authkit/pkg/models"
	"authkit/pkg/password"
	"authkit/pkg/s3"
	"authkit/services/auth/internal/entity"
	"authkit/services/auth/internal/repo/persistent"

	"github.com/go-playground/validator/v10"
)

const MinPasswordLength = 6

// AvatarStorage is the object store used for profile pictures.
type AvatarStorage interface {
	UploadFile(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

type AccountUseCase interface {
	Register(ctx context.Context, name, email, password string) (*entity.Account, string, error)
	Login(ctx context.Context, email, password string) (*entity.Account, string, error)
	CheckLoginStatus(token string) bool
	ListAccounts(ctx context.Context) ([]*entity.Account, error)
	GetAccount(ctx context.Context, accountID string) (*entity.Account, error)
	UpdateProfile(ctx context.Context, accountID string, patch entity.ProfilePatch) (*entity.Account, error)
	UploadAvatar(ctx context.Context, accountID string, body io.Reader, fileKey, contentType string) (*entity.Account, error)
	ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error
}

type accountUseCase struct {
	accountRepo persistent.AccountRepository
	tokenRepo   persistent.TokenRepository
	hasher      *password.Hasher
	jwtService  *jwt.Service
	storage     AvatarStorage
	validate    *validator.Validate
	logger      *logger.Logger
}

// NewAccountUseCase wires the account flows. storage may be nil, in which case avatar
// upload reports entity.ErrStorageUnavailable.
func NewAccountUseCase(
	accountRepo persistent.AccountRepository,
	tokenRepo persistent.TokenRepository,
	hasher *password.Hasher,
	jwtService *jwt.Service,
	storage AvatarStorage,
	logger *logger.Logger,
) AccountUseCase {
	return &accountUseCase{
		accountRepo: accountRepo,
		tokenRepo:   tokenRepo,
		hasher:      hasher,
		jwtService:  jwtService,
		storage:     storage,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

func (uc *accountUseCase) Register(ctx context.Context, name, email, plaintext string) (*entity.Account, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || plaintext == "" {
		return nil, "", fmt.Errorf("%w: all fields are required", entity.ErrValidation)
	}
	if err := uc.validate.Var(email, "email"); err != nil {
		return nil, "", fmt.Errorf("%w: invalid email address", entity.ErrValidation)
	}
	if err := checkNewPassword(plaintext, MinPasswordLength); err != nil {
		return nil, "", err
	}

	_, err := uc.accountRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", entity.ErrDuplicateEmail
	case !errors.Is(err, entity.ErrNotFound):
		uc.logger.Error("Failed to look up email: %v", err)
		return nil, "", fmt.Errorf("failed to process registration: %w", err)
	}

	digest, err := uc.hasher.Hash(ctx, plaintext)
	if err != nil {
		uc.logger.Error("Failed to hash password: %v", err)
		return nil, "", fmt.Errorf("failed to process registration: %w", err)
	}

	account := &entity.Account{
		Name:         name,
		Email:        email,
		PasswordHash: digest,
		Role:         models.RoleMember,
		IsVerified:   false,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, entity.ErrDuplicateEmail) {
			return nil, "", entity.ErrDuplicateEmail
		}
		uc.logger.Error("Failed to create account: %v", err)
		return nil, "", fmt.Errorf("failed to create account: %w", err)
	}

	token, err := uc.jwtService.GenerateToken(account.ID)
	if err != nil {
		uc.logger.Error("Failed to generate token: %v", err)
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	uc.logger.Info("Registered account %s", account.ID)
	return account, token, nil
}

func (uc *accountUseCase) Login(ctx context.Context, email, plaintext string) (*entity.Account, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || plaintext == "" {
		return nil, "", fmt.Errorf("%w: all fields are required", entity.ErrValidation)
	}

	account, err := uc.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	if !uc.hasher.Verify(ctx, plaintext, account.PasswordHash) {
		return nil, "", entity.ErrInvalidCredentials
	}

	token, err := uc.jwtService.GenerateToken(account.ID)
	if err != nil {
		uc.logger.Error("Failed to generate token: %v", err)
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return account, token, nil
}

func (uc *accountUseCase) CheckLoginStatus(token string) bool {
	_, err := uc.jwtService.ValidateToken(token)
	return err == nil
}

func (uc *accountUseCase) ListAccounts(ctx context.Context) ([]*entity.Account, error) {
	return uc.accountRepo.List(ctx)
}

func (uc *accountUseCase) GetAccount(ctx context.Context, accountID string) (*entity.Account, error) {
	return uc.accountRepo.GetByID(ctx, accountID)
}

func (uc *accountUseCase) UpdateProfile(ctx context.Context, accountID string, patch entity.ProfilePatch) (*entity.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := uc.validate.Struct(patch); err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, describeValidation(err))
	}

	if patch.Name != nil {
		account.Name = strings.TrimSpace(*patch.Name)
		if account.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be blank", entity.ErrValidation)
		}
	}
	emailChanged := false
	if patch.Email != nil && *patch.Email != account.Email {
		owner, err := uc.accountRepo.GetByEmail(ctx, *patch.Email)
		switch {
		case err == nil && owner.ID != account.ID:
			return nil, entity.ErrDuplicateEmail
		case err != nil && !errors.Is(err, entity.ErrNotFound):
			return nil, err
		}
		account.Email = *patch.Email
		account.IsVerified = false
		emailChanged = true
	}
	if patch.Photo != nil {
		account.Photo = *patch.Photo
	}
	if patch.Bio != nil {
		account.Bio = *patch.Bio
	}

	// A link mailed to the old address must not verify the new one.
	if emailChanged {
		if err := uc.tokenRepo.DeleteByAccount(ctx, accountID, entity.PurposeVerification); err != nil {
			uc.logger.Error("Failed to discard verification token for %s: %v", accountID, err)
			return nil, err
		}
	}

	if err := uc.accountRepo.Update(ctx, account); err != nil {
		if !errors.Is(err, entity.ErrDuplicateEmail) && !errors.Is(err, entity.ErrNotFound) {
			uc.logger.Error("Failed to update account %s: %v", accountID, err)
		}
		return nil, err
	}

	return account, nil
}

func (uc *accountUseCase) UploadAvatar(ctx context.Context, accountID string, body io.Reader, fileKey, contentType string) (*entity.Account, error) {
	if uc.storage == nil {
		return nil, entity.ErrStorageUnavailable
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	avatarURL, err := uc.storage.UploadFile(ctx, fileKey, body, contentType)
	if err != nil {
		uc.logger.Error("Failed to upload avatar: %v", err)
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	previous := account.Photo
	account.Photo = avatarURL
	if err := uc.accountRepo.Update(ctx, account); err != nil {
		uc.logger.Error("Failed to update account %s: %v", accountID, err)
		return nil, err
	}

	// photo is caller-editable, so only objects under this account's prefix are removed
	if key, ok := uc.storage.KeyFromURL(previous); ok && s3.IsAvatarOf(accountID, key) {
		if err := uc.storage.DeleteFile(ctx, key); err != nil {
			uc.logger.Warn("Failed to delete old avatar %s: %v", key, err)
		}
	}

	return account, nil
}

func (uc *accountUseCase) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return entity.ErrAllFieldsRequired
	}
	if err := checkNewPassword(newPassword, 1); err != nil {
		return err
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if !uc.hasher.Verify(ctx, currentPassword, account.PasswordHash) {
		return entity.ErrInvalidPassword
	}

	digest, err := uc.hasher.Hash(ctx, newPassword)
	if err != nil {
		uc.logger.Error("Failed to hash password: %v", err)
		return fmt.Errorf("failed to change password: %w", err)
	}

	account.PasswordHash = digest
	if err := uc.accountRepo.Update(ctx, account); err != nil {
		uc.logger.Error("Failed to store password for %s: %v", accountID, err)
		return err
	}

	if err := uc.tokenRepo.DeleteByAccount(ctx, accountID, entity.PurposePasswordReset); err != nil {
		uc.logger.Warn("Failed to discard reset token for %s: %v", accountID, err)
	}

	uc.logger.Info("Password changed for account %s", accountID)
	return nil
}

// checkNewPassword enforces the minimum length and bcrypt's input limit.
func checkNewPassword(plaintext string, minLength int) error {
	if utf8.RuneCountInString(plaintext) < minLength {
		return fmt.Errorf("%w: password must be at least %d characters", entity.ErrValidation, minLength)
	}
	if len(plaintext) > password.MaxLength {
		return fmt.Errorf("%w: password must be at most %d bytes", entity.ErrValidation, password.MaxLength)
	}
	return nil
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(msgs, ", ")
}
