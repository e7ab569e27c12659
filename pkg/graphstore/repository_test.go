package graphstore

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/biomind/repurposing/pkg/domain"
	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock"), nil), mock
}

func TestSearch_RejectsInvalidKind(t *testing.T) {
	repo, _ := newMockRepo(t)
	_, err := repo.Search(context.Background(), domain.EntityKind("bogus"), "metformin")
	if !coreerrors.Is(err, coreerrors.KindInputInvalid) {
		t.Fatalf("Search() error = %v, want KindInputInvalid", err)
	}
}

func TestSearch_ReturnsMatchingEntities(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows([]string{"id", "kind", "canonical_name", "aliases", "extraction_method", "extraction_confidence", "metadata"}).
		AddRow("drug:metformin", "drug", "Metformin", []byte("[]"), "curated", 1.0, []byte("{}"))
	mock.ExpectQuery("SELECT id, kind, canonical_name").WillReturnRows(rows)

	entities, err := repo.Search(context.Background(), domain.KindDrug, "metformin")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(entities) != 1 || entities[0].ID != "drug:metformin" {
		t.Fatalf("Search() = %+v, want one drug:metformin entity", entities)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDrugTargets_MapsRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows([]string{"source_id", "target_id", "relation", "confidence", "extraction_method", "evidence_count", "supporting_citation_ids"}).
		AddRow("drug:metformin", "gene:ampk", "modulates", 0.6, "ner_model", 2, []byte(`["111","222"]`))
	mock.ExpectQuery("FROM kg_edges e JOIN kg_nodes t").WillReturnRows(rows)

	edges, err := repo.DrugTargets(context.Background(), "drug:metformin")
	if err != nil {
		t.Fatalf("DrugTargets() error = %v", err)
	}
	if len(edges) != 1 || edges[0].Relation != domain.RelModulates {
		t.Fatalf("DrugTargets() = %+v, want one modulates edge", edges)
	}
	if len(edges[0].SupportingCitationIDs) != 2 {
		t.Errorf("SupportingCitationIDs = %v, want 2 entries", edges[0].SupportingCitationIDs)
	}
}

func TestUpsertEntity_RejectsKindConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	existingRows := sqlmock.NewRows([]string{"id", "kind", "canonical_name", "aliases", "extraction_method", "extraction_confidence", "metadata"}).
		AddRow("drug:metformin", "drug", "Metformin", []byte("[]"), "curated", 1.0, []byte("{}"))
	mock.ExpectQuery("FROM kg_nodes WHERE id").WillReturnRows(existingRows)

	incoming, err := domain.NewEntity("drug:metformin", "metformin", domain.KindGene, domain.MethodNER, 0.5, nil, nil)
	if err != nil {
		t.Fatalf("NewEntity() error = %v", err)
	}

	_, err = repo.UpsertEntity(context.Background(), *incoming)
	if !coreerrors.Is(err, coreerrors.KindInputInvalid) {
		t.Fatalf("UpsertEntity() error = %v, want KindInputInvalid (kind conflict)", err)
	}
}
