package notes

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the top level of the tree. It owns subcategories.
type Category struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Subcategory belongs to exactly one category and owns notes.
type Subcategory struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CategoryID  primitive.ObjectID `bson:"category_id" json:"categoryId"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Note belongs to exactly one subcategory.
type Note struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Content       string             `bson:"content" json:"content"` // markdown
	SubcategoryID primitive.ObjectID `bson:"subcategory_id" json:"subcategoryId"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// CreateCategoryInput is the input for creating a category
type CreateCategoryInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateSubcategoryInput is the input for creating a subcategory
type CreateSubcategoryInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CategoryID  string `json:"categoryId"`
}

// CreateNoteInput is the input for creating a note
type CreateNoteInput struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	SubcategoryID string `json:"subcategoryId"`
}

// GroupPatch is a partial update for categories and subcategories. Nil
// fields are left untouched.
type GroupPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// NotePatch is a partial update for notes. Nil fields are left untouched.
type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}
