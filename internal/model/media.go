package model

import "time"

type Media struct {
	UUID       string  `db:"uuid" json:"uuid"`
	OwnerUUID  string  `db:"owner_uuid" json:"owner_uuid"`
	FolderUUID *string `db:"folder_uuid" json:"folder"`
	Filename   string  `db:"filename" json:"filename"`
	StoragePath string `db:"storage_path" json:"-"`
	MimeType    string `db:"mime_type" json:"mime_type"`
	// MediaType : грубый тип — первый сегмент MIME-типа (image, video, audio...)
	MediaType  string     `db:"media_type" json:"type"`
	SizeBytes  int64      `db:"size_bytes" json:"size_bytes"`
	IsFavorite bool       `db:"is_favorite" json:"is_favorite"`
	IsDeleted  bool       `db:"is_deleted" json:"is_deleted"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}
