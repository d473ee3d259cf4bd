package models

// Entity is a label row shared across manga. Each category keeps its own
// table, so queries select the table through Category.EntityTable.
type Entity struct {
	ID   int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Category describes where one label classification lives in the schema.
type Category struct {
	Key         string
	EntityTable string
	JoinTable   string
	JoinColumn  string
}

var (
	CategoryTags       = Category{Key: "tags", EntityTable: "tags", JoinTable: "manga_tags", JoinColumn: "tag_id"}
	CategoryArtists    = Category{Key: "artists", EntityTable: "artists", JoinTable: "manga_artists", JoinColumn: "artist_id"}
	CategoryParodies   = Category{Key: "parodies", EntityTable: "parodies", JoinTable: "manga_parodies", JoinColumn: "parody_id"}
	CategoryLanguages  = Category{Key: "languages", EntityTable: "languages", JoinTable: "manga_languages", JoinColumn: "language_id"}
	CategoryCategories = Category{Key: "categories", EntityTable: "categories", JoinTable: "manga_categories", JoinColumn: "category_id"}
	CategoryGroups     = Category{Key: "groups", EntityTable: "groups", JoinTable: "manga_groups", JoinColumn: "group_id"}
	CategoryCharacters = Category{Key: "characters", EntityTable: "characters", JoinTable: "manga_characters", JoinColumn: "character_id"}
)

// Categories lists every label classification in a stable order.
var Categories = []Category{
	CategoryTags,
	CategoryArtists,
	CategoryParodies,
	CategoryLanguages,
	CategoryCategories,
	CategoryGroups,
	CategoryCharacters,
}

// CategoryByKey returns the category registered under key ("tags", "artists", ...).
func CategoryByKey(key string) (Category, bool) {
	for _, c := range Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}
