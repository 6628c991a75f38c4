package model

import "time"

// Роли коллабораторов папки
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

type Folder struct {
	UUID       string  `db:"uuid" json:"uuid"`
	OwnerUUID  string  `db:"owner_uuid" json:"owner_uuid"`
	ParentUUID *string `db:"parent_uuid" json:"parent_folder"`
	Name       string  `db:"name" json:"name"`
	// PasswordHash не сериализуется наружу, клиент видит только флаг HasPassword
	PasswordHash *string    `db:"password_hash" json:"-"`
	IsDeleted    bool       `db:"is_deleted" json:"is_deleted"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// HasPassword : true, если папка защищена паролем
func (f *Folder) HasPassword() bool {
	return f.PasswordHash != nil && *f.PasswordHash != ""
}

type Collaborator struct {
	FolderUUID string    `db:"folder_uuid" json:"folder_uuid"`
	UserUUID   string    `db:"user_uuid" json:"user_uuid"`
	Role       string    `db:"role" json:"role"`
	Username   string    `db:"username" json:"username"`
	Email      string    `db:"email" json:"email"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FolderNavItem : элемент плоского списка папок для навигации и выбора папки при переносе
type FolderNavItem struct {
	UUID        string  `db:"uuid" json:"uuid"`
	Name        string  `db:"name" json:"name"`
	ParentUUID  *string `db:"parent_uuid" json:"parent_folder"`
	HasPassword bool    `db:"has_password" json:"has_password"`
}
