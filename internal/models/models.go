package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User represents an account with role-based access
type User struct {
	BaseModel
	Username     string    `json:"username" gorm:"unique;not null"`
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         string    `json:"role" gorm:"not null;default:user"`
	IsSuperuser  bool      `json:"is_superuser" gorm:"not null;default:false"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsAdmin reports whether the user holds the admin role or the superuser flag
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

// Image represents an uploaded image and its indexed feature vector
type Image struct {
	BaseModel
	UserID   string `json:"user_id" gorm:"not null;index"`
	Filename string `json:"filename" gorm:"not null"`
	Path     string `json:"-" gorm:"not null"` // Path on disk relative to the media dir
	Label    string `json:"label"`             // Optional dataset label (seeded images)
	// Feature vector serialized as JSON; empty until the indexing worker runs
	FeatureVector string `json:"-" gorm:"type:text"`
	Indexed       bool   `json:"indexed" gorm:"not null;default:false"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// SearchHistory records one similarity search performed by a user
type SearchHistory struct {
	BaseModel
	UserID       string `json:"user_id" gorm:"not null;index"`
	ResultsCount int    `json:"results_count" gorm:"not null"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&User{}, &Image{}, &SearchHistory{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
