package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftlane/storefront-backend/pkg/db"
	"github.com/craftlane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/craftlane/storefront-backend/pkg/errors"
)

// Service exposes category management operations.
type Service interface {
	Create(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	List(ctx context.Context) ([]CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateCategoryInput holds the validated payload to create a category.
type CreateCategoryInput struct {
	Name     string
	ParentID *uuid.UUID
}

// CategoryDTO is the API shape of a category node.
type CategoryDTO struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

type productUsageChecker interface {
	CountProductsByCategory(ctx context.Context, category string) (int64, error)
}

type service struct {
	repo     Repository
	products productUsageChecker
	dbClient *db.Client
}

// NewService constructs a category service instance.
func NewService(repo Repository, products productUsageChecker, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product usage checker required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, products: products, dbClient: dbClient}, nil
}

func (s *service) Create(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	if input.ParentID != nil {
		if _, err := s.repo.FindByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "parent category not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent category")
		}
	}

	category := &models.Category{
		Name:     input.Name,
		ParentID: input.ParentID,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category name already exists under this parent")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert category")
	}
	return newCategoryDTO(category), nil
}

func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list categories")
	}
	dtos := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		dtos = append(dtos, *newCategoryDTO(&categories[i]))
	}
	return dtos, nil
}

// Delete removes the category subtree, children first. The traversal walks the
// tree with an explicit stack and refuses when any node is still referenced by
// a product's category name.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	root, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}

	ordered, err := s.postOrder(ctx, root)
	if err != nil {
		return err
	}

	for _, node := range ordered {
		count, err := s.products.CountProductsByCategory(ctx, node.Name)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count category usage")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("category %q in use by %d products", node.Name, count))
		}
	}

	ids := make([]uuid.UUID, 0, len(ordered))
	for _, node := range ordered {
		ids = append(ids, node.ID)
	}
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, ids)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete category subtree")
	}
	return nil
}

// postOrder flattens the subtree rooted at node so children always precede
// their parent in the returned slice.
func (s *service) postOrder(ctx context.Context, root *models.Category) ([]models.Category, error) {
	stack := []models.Category{*root}
	var reversed []models.Category
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reversed = append(reversed, node)

		children, err := s.repo.ListChildren(ctx, node.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list category children")
		}
		stack = append(stack, children...)
	}

	ordered := make([]models.Category, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		ordered = append(ordered, reversed[i])
	}
	return ordered, nil
}

func newCategoryDTO(category *models.Category) *CategoryDTO {
	return &CategoryDTO{
		ID:       category.ID,
		Name:     category.Name,
		ParentID: category.ParentID,
	}
}
