package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/veriport/bgv-api/internal/models"
)

// SchemaRepository reads the per-service report form schemas that drive
// annexure table shape and report rendering.
type SchemaRepository struct {
	db *sqlx.DB
}

// NewSchemaRepository constructs the repository.
func NewSchemaRepository(db *sqlx.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// List returns every service form schema ordered for report assembly.
func (r *SchemaRepository) List(ctx context.Context) ([]models.ServiceFormSchema, error) {
	const query = `SELECT service_id, db_table, heading, rows, excel_sorting, created_at
FROM service_form_schemas ORDER BY excel_sorting ASC, service_id ASC`
	var schemas []models.ServiceFormSchema
	if err := r.db.SelectContext(ctx, &schemas, query); err != nil {
		return nil, fmt.Errorf("list service schemas: %w", err)
	}
	for i := range schemas {
		if err := decodeRows(&schemas[i]); err != nil {
			return nil, err
		}
	}
	return schemas, nil
}

// GetByServiceID fetches one service form schema.
func (r *SchemaRepository) GetByServiceID(ctx context.Context, serviceID string) (*models.ServiceFormSchema, error) {
	const query = `SELECT service_id, db_table, heading, rows, excel_sorting, created_at
FROM service_form_schemas WHERE service_id = $1`
	var schema models.ServiceFormSchema
	if err := r.db.GetContext(ctx, &schema, query, serviceID); err != nil {
		return nil, err
	}
	if err := decodeRows(&schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

func decodeRows(schema *models.ServiceFormSchema) error {
	if len(schema.RawRows) == 0 {
		return nil
	}
	if err := json.Unmarshal(schema.RawRows, &schema.Rows); err != nil {
		return fmt.Errorf("decode form rows for service %s: %w", schema.ServiceID, err)
	}
	return nil
}
