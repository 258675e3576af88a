package models

type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

type User struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	ChatID    int64  `gorm:"uniqueIndex;not null" json:"chat_id"`
	Username  string `json:"username"`
	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `gorm:"type:varchar(20);default:'client'" json:"role"`
}

// IsAdmin проверяет, является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SetRole устанавливает роль
func (u *User) SetRole(role Role) {
	u.Role = role
}

// DisplayName имя для сообщений
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if u.Username != "" {
		name += " (@" + u.Username + ")"
	}
	return name
}

// TableName задает имя таблицы в БД
func (User) TableName() string {
	return "users"
}
