// internal/models/profile.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type Profile struct {
	BaseModel
	FullName string      `json:"full_name" gorm:"size:255;not null"`
	Email    string      `json:"email" gorm:"uniqueIndex;size:255;not null"`
	// Managed by the upstream authentication collaborator; stored here so
	// profiles remain the single identity table.
	PasswordHash   string      `json:"-" gorm:"size:255"`
	Role           ProfileRole `json:"role" gorm:"type:varchar(10);not null;index"`
	OrganizationID *uuid.UUID  `json:"organization_id" gorm:"type:uuid;index"`
	// Agent's configured cut of gross commission, 0-100. Nil falls back to
	// the platform default at resolution time.
	DefaultSplitPercentage *decimal.Decimal `json:"default_split_percentage" gorm:"type:numeric(5,2)"`
	IsActive               bool             `json:"is_active" gorm:"default:true"`

	// Relationships
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Transactions []Transaction `json:"transactions,omitempty" gorm:"foreignKey:AgentID"`
}

func (p *Profile) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = string(hashedPassword)
	return nil
}

func (p *Profile) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password))
}

// Actor builds the authorization descriptor for this profile.
func (p *Profile) Actor() Actor {
	return Actor{
		ID:             p.ID,
		Role:           p.Role,
		OrganizationID: p.OrganizationID,
	}
}
