package model

// Режимы просмотра содержимого
const (
	ViewDrive = "drive"
	ViewTrash = "trash"
)

// TypeFavorites : специальный фильтр — показывает только избранные медиа и скрывает папки
const TypeFavorites = "favorites"

// ContentQuery : параметры запроса листинга, как их прислал клиент
type ContentQuery struct {
	Password   string
	GrantToken string
	View       string
	Search     string
	Type       string
}

// ContentFilter : явные критерии выборки, собираются один раз на запрос
// и передаются в репозитории папок и медиа
type ContentFilter struct {
	OwnerUUID     string
	ParentUUID    *string // nil — корень дерева
	TrashOnly     bool
	Search        string // подстрока, без учёта регистра
	MediaType     string // "" — любой тип
	FavoritesOnly bool
	// FoldersNone : вернуть пустой список папок (режим favorites)
	FoldersNone bool
}

// ContentResult : результат листинга папки
type ContentResult struct {
	Folders       []Folder
	Media         []Media
	MediaURLs     map[string]string // uuid медиа -> pre-signed GET URL
	UserRole      string
	CurrentFolder *Folder
	FolderToken   string
}

// FolderNode : облегчённый узел дерева для построения adjacency-индекса в памяти
type FolderNode struct {
	UUID       string  `db:"uuid"`
	ParentUUID *string `db:"parent_uuid"`
}
