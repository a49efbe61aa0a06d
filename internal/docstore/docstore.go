package docstore

import "context"

// Record is one stored document.
type Record struct {
	ID   string
	Data map[string]interface{}
}

// Op names a query operator. Only equality is supported.
type Op string

const OpEqual Op = "=="

// Store is the document database collaborator: collections of keyed
// records with field-equality queries. Get and List exist for the catalog
// and order screens; the cart only ever queries by owner field.
type Store interface {
	QueryByField(ctx context.Context, collection, field string, op Op, value interface{}) ([]Record, error)
	Get(ctx context.Context, collection, id string) (Record, error)
	List(ctx context.Context, collection string) ([]Record, error)
	Create(ctx context.Context, collection string, data map[string]interface{}) (string, error)
	Update(ctx context.Context, collection, id string, partial map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
}
