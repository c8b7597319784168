package user

import "time"

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"column:username;uniqueIndex;not null"`
	Department   string    `gorm:"column:department"`
	Position     string    `gorm:"column:position;not null;default:employee"`
	SupervisorID *int64    `gorm:"column:supervisor_id"`
	Supervisor   *User     `gorm:"foreignKey:SupervisorID"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
