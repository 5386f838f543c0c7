package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartasset/asset-api/internal/models"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
)

type mockAssetRepo struct {
	assets     map[string]models.Asset
	refs       map[string]int
	lastFilter models.AssetFilter
	created    *models.Asset
	deleted    []string
}

func (m *mockAssetRepo) List(ctx context.Context, filter models.AssetFilter) ([]models.Asset, error) {
	m.lastFilter = filter
	var list []models.Asset
	for _, a := range m.assets {
		list = append(list, a)
	}
	return list, nil
}

func (m *mockAssetRepo) FindByID(ctx context.Context, id string) (*models.Asset, error) {
	if a, ok := m.assets[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssetRepo) FindBySerial(ctx context.Context, serial string) (*models.Asset, error) {
	for _, a := range m.assets {
		if a.SerialNumber == serial {
			match := a
			return &match, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssetRepo) Create(ctx context.Context, asset *models.Asset) error {
	if m.assets == nil {
		m.assets = make(map[string]models.Asset)
	}
	m.assets[asset.ID] = *asset
	m.created = asset
	return nil
}

func (m *mockAssetRepo) Update(ctx context.Context, asset *models.Asset) error {
	m.assets[asset.ID] = *asset
	return nil
}

func (m *mockAssetRepo) ReferenceCount(ctx context.Context, id string) (int, error) {
	return m.refs[id], nil
}

func (m *mockAssetRepo) Delete(ctx context.Context, id string) error {
	delete(m.assets, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockAuditRecorder struct {
	logs []models.AuditLog
}

func (m *mockAuditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func newAssetFixture() (*AssetService, *mockAssetRepo, *mockAuditRecorder) {
	repo := &mockAssetRepo{
		assets: map[string]models.Asset{
			"asset-1": {ID: "asset-1", Name: "Laptop", Type: "laptop", SerialNumber: "SN-1", Status: models.AssetAvailable},
		},
		refs: map[string]int{},
	}
	audits := &mockAuditRecorder{}
	svc := NewAssetService(repo, audits, nil, nil)
	return svc, repo, audits
}

func TestAssetListForcesEmployeeScope(t *testing.T) {
	svc, repo, _ := newAssetFixture()

	_, err := svc.List(context.Background(), employeeActor, models.AssetFilter{EmployeeID: "emp-2"})
	require.NoError(t, err)
	assert.Equal(t, "emp-1", repo.lastFilter.EmployeeID)

	_, err = svc.List(context.Background(), adminActor, models.AssetFilter{EmployeeID: "emp-2"})
	require.NoError(t, err)
	assert.Equal(t, "emp-2", repo.lastFilter.EmployeeID)
}

func TestAssetCreateDefaultsAndAudits(t *testing.T) {
	svc, repo, audits := newAssetFixture()

	asset, err := svc.Create(context.Background(), adminActor, CreateAssetRequest{
		Name: "  Monitor ", Type: "monitor", SerialNumber: " MN-7 ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Monitor", asset.Name)
	assert.Equal(t, "MN-7", asset.SerialNumber)
	assert.Equal(t, models.AssetAvailable, asset.Status)
	assert.NotEmpty(t, repo.created.ID)

	require.Len(t, audits.logs, 1)
	assert.Equal(t, models.AuditActionAssetCreate, audits.logs[0].Action)
	assert.Equal(t, "asset", audits.logs[0].Resource)
}

func TestAssetCreateRejectsDuplicateSerial(t *testing.T) {
	svc, _, _ := newAssetFixture()

	_, err := svc.Create(context.Background(), adminActor, CreateAssetRequest{
		Name: "Laptop 2", Type: "laptop", SerialNumber: "SN-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAssetCreateRequiresAdmin(t *testing.T) {
	svc, _, _ := newAssetFixture()

	_, err := svc.Create(context.Background(), employeeActor, CreateAssetRequest{
		Name: "Monitor", Type: "monitor", SerialNumber: "MN-7",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAssetDeleteProtectsReferencedAssets(t *testing.T) {
	svc, repo, _ := newAssetFixture()
	repo.refs["asset-1"] = 2

	err := svc.Delete(context.Background(), adminActor, "asset-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)

	repo.refs["asset-1"] = 0
	require.NoError(t, svc.Delete(context.Background(), adminActor, "asset-1"))
	assert.Equal(t, []string{"asset-1"}, repo.deleted)
}

func TestAssetExportFormats(t *testing.T) {
	svc, _, _ := newAssetFixture()

	payload, contentType, err := svc.Export(context.Background(), adminActor, models.AssetFilter{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name,Type,Serial Number,Status,Purchase Date", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "SN-1")

	payload, contentType, err = svc.Export(context.Background(), adminActor, models.AssetFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))

	_, _, err = svc.Export(context.Background(), adminActor, models.AssetFilter{}, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Export(context.Background(), employeeActor, models.AssetFilter{}, "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
