package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ProfileVisibility 控制档案在目录中的可见性。
type ProfileVisibility string

const (
	ProfileVisibilityPublic  ProfileVisibility = "public"
	ProfileVisibilityPrivate ProfileVisibility = "private"
)

// Valid reports whether v is a known visibility.
func (v ProfileVisibility) Valid() bool {
	return v == ProfileVisibilityPublic || v == ProfileVisibilityPrivate
}

// Well-known education types. Other keys may appear in EduDetails and are
// matched as plain strings.
const (
	EduTypeSchool        = "school"
	EduTypeUndergraduate = "undergraduate"
	EduTypePostgraduate  = "postgraduate"
)

// EduDetails maps an education type to its raw JSON value. The value shape
// depends on the type:
//
//	"school":        {"<school name>": <year>, ...}
//	"undergraduate": {"university": "...", "department": "...", "year": "2018-2022"}
//	other:           "free text"
type EduDetails map[string]json.RawMessage

// Profile 是目录中的一条用户档案记录，以 username 作为主键。
type Profile struct {
	Username   string            `gorm:"primaryKey;type:varchar(100)" json:"username"`
	FirstName  string            `gorm:"column:firstname;type:varchar(100);not null" json:"firstname"`
	LastName   string            `gorm:"column:lastname;type:varchar(100);not null" json:"lastname"`
	PenName    string            `gorm:"column:penname;type:varchar(100);not null" json:"penname"`
	Instagram  string            `gorm:"type:varchar(100)" json:"instagram"`
	Snapchat   string            `gorm:"type:varchar(100)" json:"snapchat"`
	Phone      string            `gorm:"type:varchar(100)" json:"phone"`
	Visibility ProfileVisibility `gorm:"type:varchar(10);not null;default:'public'" json:"visibility"`
	EduDetails EduDetails        `gorm:"type:text;serializer:json" json:"edu_details"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`

	// 小写副本，名字子串搜索不依赖数据库的大小写折叠
	FirstNameFold string `gorm:"column:firstname_fold;type:text;not null;default:''" json:"-"`
	LastNameFold  string `gorm:"column:lastname_fold;type:text;not null;default:''" json:"-"`
	PenNameFold   string `gorm:"column:penname_fold;type:text;not null;default:''" json:"-"`
}

// BeforeSave keeps the folded name columns in step with the names.
func (p *Profile) BeforeSave(tx *gorm.DB) error {
	p.FirstNameFold = strings.ToLower(p.FirstName)
	p.LastNameFold = strings.ToLower(p.LastName)
	p.PenNameFold = strings.ToLower(p.PenName)
	return nil
}

// TableName 指定 Profile 模型的表名。
func (Profile) TableName() string {
	return "profiles"
}
