package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veriport/bgv-api/internal/models"
	appErrors "github.com/veriport/bgv-api/pkg/errors"
)

type schemaRepository interface {
	List(ctx context.Context) ([]models.ServiceFormSchema, error)
	GetByServiceID(ctx context.Context, serviceID string) (*models.ServiceFormSchema, error)
}

// SchemaService exposes the read-only service form schemas.
type SchemaService struct {
	repo schemaRepository
}

// NewSchemaService constructs the schema service.
func NewSchemaService(repo schemaRepository) *SchemaService {
	return &SchemaService{repo: repo}
}

// List returns every service form schema in report order.
func (s *SchemaService) List(ctx context.Context) ([]models.ServiceFormSchema, error) {
	return s.repo.List(ctx)
}

// Get returns one service's form schema.
func (s *SchemaService) Get(ctx context.Context, serviceID string) (*models.ServiceFormSchema, error) {
	schema, err := s.repo.GetByServiceID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("service %s not found", serviceID))
		}
		return nil, err
	}
	return schema, nil
}
