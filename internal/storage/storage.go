package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"propertyhub/web/internal/models"
)

// Store is the durable client-side state: the session tuple and the
// per-property favorite marks. It is the only state that must survive a
// process restart.
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// sessionRecord is the single persisted session row. The fixed primary key
// keeps the table at most one row wide.
type sessionRecord struct {
	ID        int    `gorm:"primaryKey"`
	Token     string `gorm:"not null"`
	UserJSON  string `gorm:"not null"`
	UpdatedAt time.Time
}

func (sessionRecord) TableName() string { return "session" }

type favoriteRecord struct {
	PropertyID string `gorm:"primaryKey"`
	Favorite   bool
	State      string
	UpdatedAt  time.Time
}

func (favoriteRecord) TableName() string { return "favorites" }

func NewStore(dbPath string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// RunMigrations creates the session and favorites tables.
func (s *Store) RunMigrations() error {
	if err := s.db.AutoMigrate(&sessionRecord{}, &favoriteRecord{}); err != nil {
		return fmt.Errorf("failed to run storage migrations: %w", err)
	}
	return nil
}

// SaveSession persists the session tuple, replacing any previous one.
func (s *Store) SaveSession(sess models.Session) error {
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("failed to encode session user: %w", err)
	}

	record := sessionRecord{
		ID:        1,
		Token:     sess.Token,
		UserJSON:  string(userJSON),
		UpdatedAt: time.Now(),
	}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession returns the persisted session tuple, or an empty session when
// none was saved. A stored row that no longer decodes is an error; callers
// decide how to degrade.
func (s *Store) LoadSession() (models.Session, error) {
	var record sessionRecord
	err := s.db.First(&record, 1).Error
	if err == gorm.ErrRecordNotFound {
		return models.Session{}, nil
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	var user *models.User
	if err := json.Unmarshal([]byte(record.UserJSON), &user); err != nil {
		return models.Session{}, fmt.Errorf("failed to decode session user: %w", err)
	}
	if user != nil && !user.Role.Valid() {
		return models.Session{}, fmt.Errorf("persisted session has unknown role %q", user.Role)
	}

	return models.Session{Token: record.Token, User: user}, nil
}

// ClearSession removes the persisted session tuple. Clearing an already
// empty store is a no-op.
func (s *Store) ClearSession() error {
	if err := s.db.Delete(&sessionRecord{}, 1).Error; err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// SaveFavorite upserts a favorite mark.
func (s *Store) SaveFavorite(mark models.FavoriteMark) error {
	record := favoriteRecord{
		PropertyID: mark.PropertyID,
		Favorite:   mark.Favorite,
		State:      string(mark.State),
		UpdatedAt:  mark.UpdatedAt,
	}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save favorite mark: %w", err)
	}
	return nil
}

// ListFavorites returns all persisted favorite marks.
func (s *Store) ListFavorites() ([]models.FavoriteMark, error) {
	var records []favoriteRecord
	if err := s.db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list favorite marks: %w", err)
	}

	marks := make([]models.FavoriteMark, len(records))
	for i, r := range records {
		marks[i] = models.FavoriteMark{
			PropertyID: r.PropertyID,
			Favorite:   r.Favorite,
			State:      models.FavoriteState(r.State),
			UpdatedAt:  r.UpdatedAt,
		}
	}
	return marks, nil
}

// DeleteFavorite removes a favorite mark.
func (s *Store) DeleteFavorite(propertyID string) error {
	if err := s.db.Delete(&favoriteRecord{}, "property_id = ?", propertyID).Error; err != nil {
		return fmt.Errorf("failed to delete favorite mark: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
