package project

import (
	"context"

	"github.com/clouddwh/architect/internal/docstore"
	"github.com/clouddwh/architect/internal/document"
)

// ErrNotFound is returned when the project does not exist.
var ErrNotFound = document.ErrNotFound

// Service implements the project operations over the document store.
type Service struct {
	db *document.DB
}

func NewService(db *document.DB) *Service {
	return &Service{db: db}
}

// Create validates def and stores it as a new project with a store-assigned id.
func (s *Service) Create(ctx context.Context, def Definition) (*Project, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	var data Data
	def.apply(&data)
	return document.Create(ctx, s.db, Collection, data, "")
}

// Update overwrites the mutable fields of p with def and restamps the
// alteration metadata.
func (s *Service) Update(ctx context.Context, p *Project, def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	def.apply(&p.Data)
	return document.Update(ctx, s.db, p)
}

func (s *Service) Load(ctx context.Context, id string) (*Project, error) {
	return document.Load[Data](ctx, s.db, Collection, id)
}

// LoadProjects returns every project whose access list contains accountID.
func (s *Service) LoadProjects(ctx context.Context, accountID string) ([]*Project, error) {
	return document.LoadAll[Data](ctx, s.db, Collection,
		docstore.Where("access", docstore.OpArrayContains, accountID))
}

func (s *Service) Delete(ctx context.Context, p *Project) error {
	return document.Delete(ctx, s.db, p)
}
