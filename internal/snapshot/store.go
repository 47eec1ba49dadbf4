package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/skillsync-backend/internal/domain"
)

// Store persists the last fetched social collections to a local sqlite file,
// so a restart can render the feed before the first network round-trip
// completes. It is a cache of remote state, never a source of truth: every
// save replaces the whole table.
type Store struct {
	db *gorm.DB
}

type userRow struct {
	ID             string `gorm:"primaryKey"`
	Name           string
	Email          string
	Country        string
	ProfilePicture string
	Skills         datatypes.JSON
	Bio            string
	AboutMe        string
	Following      datatypes.JSON
	Followers      datatypes.JSON
	SavedAt        time.Time
}

type postRow struct {
	ID        string `gorm:"primaryKey"`
	AuthorID  string
	Type      string
	Title     string
	Content   string
	MediaURL  string
	Likes     datatypes.JSON
	Comments  datatypes.JSON
	Timestamp time.Time
	Position  int `gorm:"index"`
	SavedAt   time.Time
}

func (userRow) TableName() string { return "snapshot_users" }
func (postRow) TableName() string { return "snapshot_posts" }

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if err := db.AutoMigrate(&userRow{}, &postRow{}); err != nil {
		return nil, fmt.Errorf("migrate snapshot db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) SaveUsers(users []domain.User) error {
	now := time.Now().UTC()
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userRow{
			ID:             u.ID,
			Name:           u.Name,
			Email:          u.Email,
			Country:        u.Country,
			ProfilePicture: u.ProfilePicture,
			Skills:         mustJSON(u.Skills),
			Bio:            u.Bio,
			AboutMe:        u.AboutMe,
			Following:      mustJSON(u.Following),
			Followers:      mustJSON(u.Followers),
			SavedAt:        now,
		})
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&userRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (s *Store) LoadUsers() ([]domain.User, error) {
	var rows []userRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		u := domain.User{
			ID:             row.ID,
			Name:           row.Name,
			Email:          row.Email,
			Country:        row.Country,
			ProfilePicture: row.ProfilePicture,
			Bio:            row.Bio,
			AboutMe:        row.AboutMe,
		}
		if err := fromJSON(row.Skills, &u.Skills); err != nil {
			return nil, err
		}
		if err := fromJSON(row.Following, &u.Following); err != nil {
			return nil, err
		}
		if err := fromJSON(row.Followers, &u.Followers); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Store) SavePosts(posts []domain.Post) error {
	now := time.Now().UTC()
	rows := make([]postRow, 0, len(posts))
	for i, p := range posts {
		rows = append(rows, postRow{
			ID:        p.ID,
			AuthorID:  p.AuthorID,
			Type:      string(p.Type),
			Title:     p.Title,
			Content:   p.Content,
			MediaURL:  p.MediaURL,
			Likes:     mustJSON(p.Likes),
			Comments:  mustJSON(p.Comments),
			Timestamp: p.Timestamp,
			Position:  i,
			SavedAt:   now,
		})
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&postRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// LoadPosts returns the feed in the order it was saved, newest first.
func (s *Store) LoadPosts() ([]domain.Post, error) {
	var rows []postRow
	if err := s.db.Order("position asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	posts := make([]domain.Post, 0, len(rows))
	for _, row := range rows {
		p := domain.Post{
			ID:        row.ID,
			AuthorID:  row.AuthorID,
			Type:      domain.PostType(row.Type),
			Title:     row.Title,
			Content:   row.Content,
			MediaURL:  row.MediaURL,
			Timestamp: row.Timestamp,
		}
		if err := fromJSON(row.Likes, &p.Likes); err != nil {
			return nil, err
		}
		if err := fromJSON(row.Comments, &p.Comments); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func fromJSON(raw datatypes.JSON, out any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
