package wallet

import (
	"errors"
	"rentflow/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AddWallet registers a wallet address for a user. The first wallet a user
// adds becomes primary automatically; a duplicate (user, address) pair is
// rejected with ErrDuplicateWallet.
func AddWallet(db *gorm.DB, userID uint, address, custodyType string) (domain.Wallet, error) {
	// Reserved addresses can never be bound to a user
	if address == "" || address == domain.ZeroAddress || address == domain.PlaceholderTenantAddress {
		return domain.Wallet{}, domain.ErrInvalidAddress
	}
	if custodyType == "" {
		custodyType = domain.CustodySelf
	}
	var created domain.Wallet
	err := db.Transaction(func(tx *gorm.DB) error {
		// Duplicate check inside the transaction; the composite unique index
		// backstops this under concurrent adds
		var existing domain.Wallet
		if err := tx.Where("user_id = ? AND address = ?", userID, address).First(&existing).Error; err == nil {
			return domain.ErrDuplicateWallet
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		var count int64
		if err := tx.Model(&domain.Wallet{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		created = domain.Wallet{
			UserID:      userID,      // Owning user
			Address:     address,     // Wallet address
			CustodyType: custodyType, // self or custodial
			IsPrimary:   count == 0,  // First wallet is automatically primary
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return domain.Wallet{}, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"wallet_id":  created.ID,
		"is_primary": created.IsPrimary,
	}).Info("Wallet added")
	return created, nil
}

// SetPrimary swaps the user's primary wallet to walletID. The clear and set
// run in one transaction, so under any interleaving of concurrent calls the
// user ends with exactly one primary wallet.
func SetPrimary(db *gorm.DB, userID, walletID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var target domain.Wallet
		if err := tx.Where("id = ? AND user_id = ?", walletID, userID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrWalletNotFound
			}
			return err
		}
		if target.IsPrimary {
			return nil // Already primary, nothing to swap
		}
		// Clear the current primary, then set the new one
		if err := tx.Model(&domain.Wallet{}).
			Where("user_id = ? AND is_primary = ?", userID, true).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Wallet{}).
			Where("id = ? AND user_id = ?", walletID, userID).
			Update("is_primary", true).Error
	})
}

// RemoveWallet deletes a wallet. A primary wallet cannot be removed while the
// user still has others; the sole remaining wallet may be removed, leaving
// the user walletless.
func RemoveWallet(db *gorm.DB, userID, walletID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var target domain.Wallet
		if err := tx.Where("id = ? AND user_id = ?", walletID, userID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrWalletNotFound
			}
			return err
		}
		if target.IsPrimary {
			var others int64
			if err := tx.Model(&domain.Wallet{}).
				Where("user_id = ? AND id <> ?", userID, walletID).
				Count(&others).Error; err != nil {
				return err
			}
			if others > 0 {
				return domain.ErrCannotRemovePrimary
			}
		}
		return tx.Delete(&target).Error
	})
}

// Owned returns the wallet a user has registered under address, or
// ErrWalletNotFound when no such binding exists. The lease signing path uses
// this to confirm a signer routes funds to an address they actually own.
func Owned(db *gorm.DB, userID uint, address string) (domain.Wallet, error) {
	var w domain.Wallet
	if err := db.Where("user_id = ? AND address = ?", userID, address).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Wallet{}, domain.ErrWalletNotFound
		}
		return domain.Wallet{}, err
	}
	return w, nil
}

// ListWallets returns all wallets for a user, primary first.
func ListWallets(db *gorm.DB, userID uint) ([]domain.Wallet, error) {
	var wallets []domain.Wallet
	err := db.Where("user_id = ?", userID).
		Order("is_primary desc, id asc").
		Find(&wallets).Error
	return wallets, err
}

// PrimaryWallet returns the user's primary wallet.
func PrimaryWallet(db *gorm.DB, userID uint) (domain.Wallet, error) {
	var w domain.Wallet
	if err := db.Where("user_id = ? AND is_primary = ?", userID, true).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Wallet{}, domain.ErrWalletNotFound
		}
		return domain.Wallet{}, err
	}
	return w, nil
}
