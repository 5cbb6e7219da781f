package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository/memory"
	"github.com/medilab/lab-api/internal/service/catalog"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

func newService(t *testing.T) (*catalog.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return catalog.NewService(memory.NewCatalog(store), time.Minute, time.Minute, zerolog.Nop()), store
}

func TestGetCachesLookups(t *testing.T) {
	svc, store := newService(t)
	test := &model.LabTest{Name: "CBC", Category: "hematology", PriceCents: 40000, IsActive: true}
	store.AddLabTest(test)

	first, err := svc.Get(context.Background(), test.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), first.PriceCents)

	// The repository copy changes, the cached value does not.
	test.PriceCents = 50000
	second, err := svc.Get(context.Background(), test.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40000), second.PriceCents)
}

func TestGetByIDsFailsOnMissing(t *testing.T) {
	svc, store := newService(t)
	test := &model.LabTest{Name: "CBC", PriceCents: 40000, IsActive: true}
	store.AddLabTest(test)

	_, err := svc.GetByIDs(context.Background(), []uuid.UUID{test.ID, uuid.New()})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
}

func TestGetByIDsPreservesRequestOrder(t *testing.T) {
	svc, store := newService(t)
	a := &model.LabTest{Name: "A", PriceCents: 100, IsActive: true}
	b := &model.LabTest{Name: "B", PriceCents: 200, IsActive: true}
	store.AddLabTest(a)
	store.AddLabTest(b)

	tests, err := svc.GetByIDs(context.Background(), []uuid.UUID{b.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, tests, 2)
	assert.Equal(t, "B", tests[0].Name)
	assert.Equal(t, "A", tests[1].Name)
}

func TestListActiveExcludesInactive(t *testing.T) {
	svc, store := newService(t)
	store.AddLabTest(&model.LabTest{Name: "Active", PriceCents: 100, IsActive: true})
	store.AddLabTest(&model.LabTest{Name: "Retired", PriceCents: 100, IsActive: false})

	tests, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "Active", tests[0].Name)
}
