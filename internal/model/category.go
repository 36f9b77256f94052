package model

// CategoryKind distinguishes real categories from the create-new entry
// that selection lists end with.
type CategoryKind int

const (
	CategoryReal CategoryKind = iota
	CategoryCreateNew
)

// CreateNewCategoryID is the id of the synthesized create-new entry.
const CreateNewCategoryID = "__create_new__"

// Category is a user-visible spending bucket.
type Category struct {
	Kind CategoryKind
	ID   string
	Name string
	Icon string
}

// IsCreateNew reports whether c is the create-new entry.
func (c Category) IsCreateNew() bool {
	return c.Kind == CategoryCreateNew
}

// CreateNewCategory returns the create-new entry.
func CreateNewCategory() Category {
	return Category{
		Kind: CategoryCreateNew,
		ID:   CreateNewCategoryID,
		Name: "add new",
		Icon: "plus.circle.fill",
	}
}
