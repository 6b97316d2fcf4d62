package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
	ErrNoteNotFound        = errors.New("note not found")
)

// Repository is the storage contract behind the gateway. Single-entity
// deletes never cascade; the bulk deletes exist for the cascade and treat
// zero matches as success.
type Repository interface {
	InsertCategory(ctx context.Context, c *Category) error
	FindCategory(ctx context.Context, id primitive.ObjectID) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	UpdateCategory(ctx context.Context, id primitive.ObjectID, p GroupPatch) (*Category, error)
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error

	InsertSubcategory(ctx context.Context, s *Subcategory) error
	FindSubcategory(ctx context.Context, id primitive.ObjectID) (*Subcategory, error)
	ListSubcategories(ctx context.Context, categoryID primitive.ObjectID) ([]*Subcategory, error)
	UpdateSubcategory(ctx context.Context, id primitive.ObjectID, p GroupPatch) (*Subcategory, error)
	DeleteSubcategory(ctx context.Context, id primitive.ObjectID) error
	DeleteSubcategoriesByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error)

	InsertNote(ctx context.Context, n *Note) error
	FindNote(ctx context.Context, id primitive.ObjectID) (*Note, error)
	ListNotes(ctx context.Context, subcategoryID primitive.ObjectID) ([]*Note, error)
	UpdateNote(ctx context.Context, id primitive.ObjectID, p NotePatch) (*Note, error)
	DeleteNote(ctx context.Context, id primitive.ObjectID) error
	DeleteNotesBySubcategories(ctx context.Context, subcategoryIDs []primitive.ObjectID) (int64, error)
}

// MongoRepo stores the tree in three collections.
type MongoRepo struct {
	categories    *mongo.Collection
	subcategories *mongo.Collection
	notes         *mongo.Collection
}

// NewMongoRepo creates a repository over the database's collections
func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		categories:    db.Collection("categories"),
		subcategories: db.Collection("subcategories"),
		notes:         db.Collection("notes"),
	}
}

// EnsureIndexes creates the indexes backing the list orderings.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	sets := []struct {
		coll    *mongo.Collection
		indexes []mongo.IndexModel
	}{
		{r.categories, []mongo.IndexModel{
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "title", Value: 1}}},
		}},
		{r.subcategories, []mongo.IndexModel{
			{Keys: bson.D{{Key: "category_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "title", Value: 1}}},
		}},
		{r.notes, []mongo.IndexModel{
			{Keys: bson.D{{Key: "subcategory_id", Value: 1}, {Key: "updated_at", Value: -1}}},
			{Keys: bson.D{{Key: "title", Value: 1}}},
		}},
	}

	for _, s := range sets {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.indexes); err != nil {
			return fmt.Errorf("create %s indexes: %w", s.coll.Name(), err)
		}
	}
	return nil
}

// --- Categories ---

// InsertCategory creates a new category, assigning its ID and timestamps
func (r *MongoRepo) InsertCategory(ctx context.Context, c *Category) error {
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	if _, err := r.categories.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// FindCategory retrieves a category by its ID
func (r *MongoRepo) FindCategory(ctx context.Context, id primitive.ObjectID) (*Category, error) {
	var c Category
	err := r.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category %s: %w", id.Hex(), err)
	}
	return &c, nil
}

// ListCategories returns every category, newest first.
func (r *MongoRepo) ListCategories(ctx context.Context) ([]*Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.categories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer cursor.Close(ctx)

	categories := []*Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory applies a partial update and returns the stored result
func (r *MongoRepo) UpdateCategory(ctx context.Context, id primitive.ObjectID, p GroupPatch) (*Category, error) {
	var c Category
	err := r.categories.FindOneAndUpdate(ctx, bson.M{"_id": id}, groupUpdate(p), returnAfter()).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update category %s: %w", id.Hex(), err)
	}
	return &c, nil
}

// DeleteCategory removes one category. Its subcategories are left alone.
func (r *MongoRepo) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.categories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// --- Subcategories ---

// InsertSubcategory creates a new subcategory, assigning its ID and timestamps
func (r *MongoRepo) InsertSubcategory(ctx context.Context, s *Subcategory) error {
	s.ID = primitive.NewObjectID()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt

	if _, err := r.subcategories.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("insert subcategory: %w", err)
	}
	return nil
}

// FindSubcategory retrieves a subcategory by its ID
func (r *MongoRepo) FindSubcategory(ctx context.Context, id primitive.ObjectID) (*Subcategory, error) {
	var s Subcategory
	err := r.subcategories.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSubcategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find subcategory %s: %w", id.Hex(), err)
	}
	return &s, nil
}

// ListSubcategories returns the subcategories of one category, newest first.
func (r *MongoRepo) ListSubcategories(ctx context.Context, categoryID primitive.ObjectID) ([]*Subcategory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.subcategories.Find(ctx, bson.M{"category_id": categoryID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer cursor.Close(ctx)

	subcategories := []*Subcategory{}
	if err := cursor.All(ctx, &subcategories); err != nil {
		return nil, fmt.Errorf("decode subcategories: %w", err)
	}
	return subcategories, nil
}

// UpdateSubcategory applies a partial update and returns the stored result
func (r *MongoRepo) UpdateSubcategory(ctx context.Context, id primitive.ObjectID, p GroupPatch) (*Subcategory, error) {
	var s Subcategory
	err := r.subcategories.FindOneAndUpdate(ctx, bson.M{"_id": id}, groupUpdate(p), returnAfter()).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSubcategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update subcategory %s: %w", id.Hex(), err)
	}
	return &s, nil
}

// DeleteSubcategory removes one subcategory. Its notes are left alone.
func (r *MongoRepo) DeleteSubcategory(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.subcategories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete subcategory: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrSubcategoryNotFound
	}
	return nil
}

// DeleteSubcategoriesByCategory removes every subcategory of a category and returns the count
func (r *MongoRepo) DeleteSubcategoriesByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	result, err := r.subcategories.DeleteMany(ctx, bson.M{"category_id": categoryID})
	if err != nil {
		return 0, fmt.Errorf("delete subcategories of %s: %w", categoryID.Hex(), err)
	}
	return result.DeletedCount, nil
}

// --- Notes ---

// InsertNote creates a new note, assigning its ID and timestamps
func (r *MongoRepo) InsertNote(ctx context.Context, n *Note) error {
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt

	if _, err := r.notes.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// FindNote retrieves a note by its ID
func (r *MongoRepo) FindNote(ctx context.Context, id primitive.ObjectID) (*Note, error) {
	var n Note
	err := r.notes.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find note %s: %w", id.Hex(), err)
	}
	return &n, nil
}

// ListNotes returns the notes of one subcategory, most recently updated first.
func (r *MongoRepo) ListNotes(ctx context.Context, subcategoryID primitive.ObjectID) ([]*Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.notes.Find(ctx, bson.M{"subcategory_id": subcategoryID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer cursor.Close(ctx)

	notes := []*Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	return notes, nil
}

// UpdateNote sets the supplied fields and refreshes updated_at
func (r *MongoRepo) UpdateNote(ctx context.Context, id primitive.ObjectID, p NotePatch) (*Note, error) {
	set := bson.M{"updated_at": time.Now()}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Content != nil {
		set["content"] = *p.Content
	}

	var n Note
	err := r.notes.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, returnAfter()).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update note %s: %w", id.Hex(), err)
	}
	return &n, nil
}

// DeleteNote removes a note by its ID
func (r *MongoRepo) DeleteNote(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.notes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// DeleteNotesBySubcategories removes every note in the given subcategories and returns the count
func (r *MongoRepo) DeleteNotesBySubcategories(ctx context.Context, subcategoryIDs []primitive.ObjectID) (int64, error) {
	if len(subcategoryIDs) == 0 {
		return 0, nil
	}
	result, err := r.notes.DeleteMany(ctx, bson.M{"subcategory_id": bson.M{"$in": subcategoryIDs}})
	if err != nil {
		return 0, fmt.Errorf("delete notes: %w", err)
	}
	return result.DeletedCount, nil
}

// --- Helpers ---

func groupUpdate(p GroupPatch) bson.M {
	set := bson.M{"updated_at": time.Now()}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	return bson.M{"$set": set}
}

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
