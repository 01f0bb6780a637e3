package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authkit/services/auth/internal/entity"
	"authkit/services/auth/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	List(ctx context.Context) ([]*entity.Account, error)
	Update(ctx context.Context, account *entity.Account) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	accountModel := ToAccountModel(account)
	if err := r.db.WithContext(ctx).Create(accountModel).Error; err != nil {
		return translateError(err)
	}
	*account = *ToAccountEntity(accountModel)
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	var accountModel model.AccountModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&accountModel).Error; err != nil {
		return nil, translateError(err)
	}
	return ToAccountEntity(&accountModel), nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var accountModel model.AccountModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&accountModel).Error; err != nil {
		return nil, translateError(err)
	}
	return ToAccountEntity(&accountModel), nil
}

func (r *accountRepository) List(ctx context.Context) ([]*entity.Account, error) {
	var accountModels []model.AccountModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&accountModels).Error; err != nil {
		return nil, err
	}

	accounts := make([]*entity.Account, len(accountModels))
	for i := range accountModels {
		accounts[i] = ToAccountEntity(&accountModels[i])
	}
	return accounts, nil
}

// Update writes every column of the record. Updating an unknown id reports ErrNotFound.
func (r *accountRepository) Update(ctx context.Context, account *entity.Account) error {
	accountModel := ToAccountModel(account)
	accountModel.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(&model.AccountModel{}).Where("id = ?", account.ID).
		Select("*").Omit("id", "created_at").Updates(accountModel)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return entity.ErrNotFound
	}
	account.UpdatedAt = accountModel.UpdatedAt
	return nil
}

// invalidTextRepresentation is raised when an id is not a valid uuid.
const invalidTextRepresentation = "22P02"

func translateError(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation:
		return entity.ErrNotFound
	case errors.Is(err, gorm.ErrRecordNotFound):
		return entity.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", entity.ErrDuplicateEmail, err)
	default:
		return err
	}
}
