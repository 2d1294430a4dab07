// Package domain models one Slack workspace install of the app: the
// bot credentials granted during OAuth plus the billing tier the
// workspace is on.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/pelshen/namedraw/internal/usage/domain"
	"gorm.io/datatypes"
)

type Installation struct {
	ID           snowflake.ID         `gorm:"primaryKey" json:"id"`
	TeamID       string               `gorm:"uniqueIndex;not null;type:text" json:"team_id"`
	TeamName     string               `gorm:"type:text" json:"team_name,omitempty"`
	EnterpriseID string               `gorm:"index;type:text" json:"enterprise_id,omitempty"`
	BotUserID    string               `gorm:"type:text" json:"bot_user_id,omitempty"`
	BotToken     string               `gorm:"not null;type:text" json:"-"`
	PlanType     usagedomain.PlanType `gorm:"type:text;not null;default:FREE" json:"plan_type"`
	Raw          datatypes.JSONMap    `gorm:"type:jsonb;not null;default:'{}'" json:"raw,omitempty"`
	CreatedAt    time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Installation) TableName() string { return "installations" }
