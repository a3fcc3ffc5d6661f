package database

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FetchCheckpoint returns the checkpoint for a (chain, contract) pair, or
// (nil, nil) when the pair has never been synced.
func FetchCheckpoint(db *gorm.DB, chainID uint64, address string) (*SyncCheckpoint, error) {
	var checkpoint SyncCheckpoint
	err := db.Where(&SyncCheckpoint{ChainID: chainID, ContractAddress: normalizeAddress(address)}).
		First(&checkpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "FetchCheckpoint")
	}
	return &checkpoint, nil
}

// AdvanceCheckpoint moves the watermark for a pair forward. The watermark is
// written with a guarded UPDATE that only ever increases last_block, so
// overlapping scans racing on the same pair can never move it backwards; a
// lower or zero lastBlock updates status and sync time only.
func AdvanceCheckpoint(db *gorm.DB, chainID uint64, address string, lastBlock uint64, status string, errMsg string) error {
	address = normalizeAddress(address)
	now := time.Now()

	row := SyncCheckpoint{
		ChainID:         chainID,
		ContractAddress: address,
		LastBlock:       lastBlock,
		Status:          status,
		Error:           errMsg,
		LastSyncAt:      now,
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return errors.Wrap(res.Error, "AdvanceCheckpoint: create")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	err := db.Model(&SyncCheckpoint{}).
		Where("chain_id = ? AND contract_address = ?", chainID, address).
		Updates(map[string]interface{}{
			"status":       status,
			"error":        errMsg,
			"last_sync_at": now,
		}).Error
	if err != nil {
		return errors.Wrap(err, "AdvanceCheckpoint: status")
	}

	err = db.Model(&SyncCheckpoint{}).
		Where("chain_id = ? AND contract_address = ? AND last_block < ?", chainID, address, lastBlock).
		Update("last_block", lastBlock).Error
	return errors.Wrap(err, "AdvanceCheckpoint: advance")
}

// ListCheckpoints returns all checkpoints, for the monitor endpoint.
func ListCheckpoints(db *gorm.DB) ([]SyncCheckpoint, error) {
	var checkpoints []SyncCheckpoint
	err := db.Order("chain_id, contract_address").Find(&checkpoints).Error
	if err != nil {
		return nil, errors.Wrap(err, "ListCheckpoints")
	}
	return checkpoints, nil
}

func normalizeAddress(address string) string {
	return strings.ToLower(address)
}
