// Package storage persists rooms, participants and peer bindings with gorm on sqlite.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// Store implements core.Store.
type Store struct {
	db *gorm.DB
}

var _ core.Store = (*Store)(nil)

// Open connects to the sqlite database at dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, wrap(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, wrap(err)
	}
	// sqlite serializes writers anyway; one connection also keeps :memory: databases alive.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&roomRecord{}, &participantRecord{}, &peerBindingRecord{}); err != nil {
		return nil, wrap(err)
	}
	log.Info().Str("module", "storage").Str("dsn", dsn).Msg("store opened")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap(err)
	}
	return wrap(sqlDB.Close())
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %w", core.ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", core.ErrStorage, err)
}

func (s *Store) InsertRoom(ctx context.Context, name domain.RoomName) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&roomRecord{}).Where("name = ?", string(name)).Count(&n).Error; err != nil {
			return wrap(err)
		}
		if n > 0 {
			return fmt.Errorf("%w: room %q", core.ErrAlreadyExists, name)
		}
		return wrap(tx.Create(&roomRecord{Name: string(name)}).Error)
	})
}

func (s *Store) ListRooms(ctx context.Context) ([]domain.RoomName, error) {
	var rows []roomRecord
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, wrap(err)
	}
	out := make([]domain.RoomName, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.RoomName(r.Name))
	}
	return out, nil
}

func (s *Store) FindRoom(ctx context.Context, name domain.RoomName) (domain.Room, error) {
	var row roomRecord
	if err := s.db.WithContext(ctx).Where("name = ?", string(name)).First(&row).Error; err != nil {
		return domain.Room{}, wrap(err)
	}
	parts, err := s.ListParticipants(ctx, name)
	if err != nil {
		return domain.Room{}, err
	}
	room := domain.Room{Name: domain.RoomName(row.Name), Emails: make([]domain.Identity, 0, len(parts))}
	for _, p := range parts {
		room.Emails = append(room.Emails, p.Email)
	}
	return room, nil
}

func (s *Store) DeleteRoom(ctx context.Context, name domain.RoomName) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_name = ?", string(name)).Delete(&participantRecord{}).Error; err != nil {
			return wrap(err)
		}
		res := tx.Where("name = ?", string(name)).Delete(&roomRecord{})
		if res.Error != nil {
			return wrap(res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: room %q", core.ErrNotFound, name)
		}
		return nil
	})
}

func (s *Store) ReplaceRoom(ctx context.Context, old domain.RoomName, room domain.Room) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_name = ?", string(old)).Delete(&participantRecord{}).Error; err != nil {
			return wrap(err)
		}
		res := tx.Where("name = ?", string(old)).Delete(&roomRecord{})
		if res.Error != nil {
			return wrap(res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: room %q", core.ErrNotFound, old)
		}
		if err := tx.Create(&roomRecord{Name: string(room.Name)}).Error; err != nil {
			return wrap(err)
		}
		for _, email := range room.Emails {
			if err := tx.Create(&participantRecord{Email: string(email), RoomName: string(room.Name)}).Error; err != nil {
				return wrap(err)
			}
		}
		return nil
	})
}

func (s *Store) InsertParticipant(ctx context.Context, email domain.Identity, room domain.RoomName) (domain.Participant, error) {
	row := participantRecord{Email: string(email), RoomName: string(room)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Participant{}, wrap(err)
	}
	return toParticipant(row), nil
}

func (s *Store) ListParticipants(ctx context.Context, room domain.RoomName) ([]domain.Participant, error) {
	var rows []participantRecord
	if err := s.db.WithContext(ctx).Where("room_name = ?", string(room)).Order("id").Find(&rows).Error; err != nil {
		return nil, wrap(err)
	}
	out := make([]domain.Participant, 0, len(rows))
	for _, r := range rows {
		out = append(out, toParticipant(r))
	}
	return out, nil
}

func (s *Store) DeleteParticipant(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&participantRecord{}, id)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: participant %d", core.ErrNotFound, id)
	}
	return nil
}

func (s *Store) UpsertPeerBinding(ctx context.Context, email domain.Identity, peer domain.PeerID) error {
	row := peerBindingRecord{Email: string(email), PeerID: string(peer)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"peer_id", "updated_at"}),
	}).Create(&row).Error
	return wrap(err)
}

func (s *Store) FindPeerByEmail(ctx context.Context, email domain.Identity) (domain.PeerID, error) {
	var row peerBindingRecord
	if err := s.db.WithContext(ctx).Where("email = ?", string(email)).First(&row).Error; err != nil {
		return "", wrap(err)
	}
	return domain.PeerID(row.PeerID), nil
}

// FindEmailByPeer resolves the identity that most recently claimed peer.
func (s *Store) FindEmailByPeer(ctx context.Context, peer domain.PeerID) (domain.Identity, error) {
	var row peerBindingRecord
	err := s.db.WithContext(ctx).
		Where("peer_id = ?", string(peer)).
		Order("updated_at DESC").
		First(&row).Error
	if err != nil {
		return "", wrap(err)
	}
	return domain.Identity(row.Email), nil
}

func toParticipant(r participantRecord) domain.Participant {
	return domain.Participant{ID: r.ID, Email: domain.Identity(r.Email), Room: domain.RoomName(r.RoomName)}
}
