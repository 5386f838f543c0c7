package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartasset/asset-api/internal/models"
	appErrors "github.com/smartasset/asset-api/pkg/errors"
)

type mockTicketRepo struct {
	tickets map[string]models.RepairTicket
	scoped  map[string][]string
	created *models.RepairTicket
}

func (m *mockTicketRepo) FindByID(ctx context.Context, id string) (*models.RepairTicket, error) {
	if ticket, ok := m.tickets[id]; ok {
		return &ticket, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTicketRepo) List(ctx context.Context, filter models.TicketFilter) ([]models.RepairTicket, error) {
	var list []models.RepairTicket
	if filter.EmployeeID != "" {
		for _, id := range m.scoped[filter.EmployeeID] {
			if ticket, ok := m.tickets[id]; ok {
				list = append(list, ticket)
			}
		}
		return list, nil
	}
	for _, ticket := range m.tickets {
		list = append(list, ticket)
	}
	return list, nil
}

func (m *mockTicketRepo) Create(ctx context.Context, ticket *models.RepairTicket) error {
	if m.tickets == nil {
		m.tickets = make(map[string]models.RepairTicket)
	}
	m.tickets[ticket.ID] = *ticket
	m.created = ticket
	return nil
}

func (m *mockTicketRepo) Update(ctx context.Context, ticket *models.RepairTicket) error {
	m.tickets[ticket.ID] = *ticket
	return nil
}

func newTicketFixture() (*TicketService, *mockTicketRepo, *mockNotifier) {
	repo := &mockTicketRepo{tickets: map[string]models.RepairTicket{}, scoped: map[string][]string{}}
	assets := &mockAssetDir{assets: map[string]models.Asset{
		"asset-1": {ID: "asset-1", Name: "Printer", SerialNumber: "PR-9", Status: models.AssetRepair},
	}}
	users := &mockUserDir{users: map[string]models.User{
		"emp-1":   {ID: "emp-1", FullName: "Jordan Lee", Role: models.RoleEmployee},
		"tech-1":  {ID: "tech-1", FullName: "Riley Kim", Role: models.RoleEmployee},
		"admin-1": {ID: "admin-1", FullName: "Admin", Role: models.RoleAdmin},
	}}
	notif := &mockNotifier{adminIDs: []string{"admin-1", "admin-2"}}
	svc := NewTicketService(repo, assets, users, notif, nil, nil, "/media/avatars")
	return svc, repo, notif
}

func TestTicketCreateByEmployeeNotifiesAdmins(t *testing.T) {
	svc, repo, notif := newTicketFixture()

	tech := "tech-1"
	detail, err := svc.Create(context.Background(), employeeActor, CreateTicketRequest{
		AssetID: "asset-1", Issue: "paper jam", AssignedTechnician: &tech,
	})
	require.NoError(t, err)

	assert.Equal(t, models.TicketOpen, detail.Status)
	assert.Nil(t, repo.created.AssignedTechnician, "non-admin creators must not pick a technician")
	assert.Equal(t, "emp-1", repo.created.CreatedBy)

	require.Len(t, notif.sent, 1)
	assert.ElementsMatch(t, []string{"admin-1", "admin-2"}, notif.sent[0].userIDs)
	assert.Equal(t, models.NotifTicketCreated, notif.sent[0].notifType)
	assert.Equal(t, "New ticket created", notif.sent[0].title)
	assert.Equal(t, "Jordan Lee created a ticket for Printer (PR-9).", notif.sent[0].message)
}

func TestTicketCreateByAdminNotifiesTechnician(t *testing.T) {
	svc, repo, notif := newTicketFixture()

	tech := "tech-1"
	_, err := svc.Create(context.Background(), adminActor, CreateTicketRequest{
		AssetID: "asset-1", Issue: "paper jam", AssignedTechnician: &tech,
	})
	require.NoError(t, err)

	require.NotNil(t, repo.created.AssignedTechnician)
	assert.Equal(t, "tech-1", *repo.created.AssignedTechnician)

	require.Len(t, notif.sent, 1)
	assert.Equal(t, []string{"tech-1"}, notif.sent[0].userIDs)
	assert.Equal(t, "Ticket assigned", notif.sent[0].title)
	assert.Equal(t, "You were assigned a ticket for Printer (PR-9).", notif.sent[0].message)
}

func TestTicketCreateByAdminWithoutTechnicianIsSilent(t *testing.T) {
	svc, _, notif := newTicketFixture()

	_, err := svc.Create(context.Background(), adminActor, CreateTicketRequest{AssetID: "asset-1", Issue: "paper jam"})
	require.NoError(t, err)
	assert.Empty(t, notif.sent)
}

func TestTicketUpdateRequiresAdmin(t *testing.T) {
	svc, repo, _ := newTicketFixture()
	repo.tickets["tk-1"] = models.RepairTicket{ID: "tk-1", AssetID: "asset-1", CreatedBy: "emp-1", Status: models.TicketOpen}

	_, err := svc.Update(context.Background(), employeeActor, "tk-1", UpdateTicketRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestTicketUpdateStatusChangeNotifiesCreator(t *testing.T) {
	svc, repo, notif := newTicketFixture()
	repo.tickets["tk-1"] = models.RepairTicket{ID: "tk-1", AssetID: "asset-1", CreatedBy: "emp-1", Status: models.TicketOpen}

	status := string(models.TicketInProgress)
	_, err := svc.Update(context.Background(), adminActor, "tk-1", UpdateTicketRequest{Status: &status})
	require.NoError(t, err)

	require.Len(t, notif.sent, 1)
	assert.Equal(t, []string{"emp-1"}, notif.sent[0].userIDs)
	assert.Equal(t, "Ticket updated", notif.sent[0].title)
	assert.Equal(t, "Ticket status changed: OPEN -> IN_PROGRESS", notif.sent[0].message)
}

func TestTicketUpdateTechnicianChangeNotifiesTechnician(t *testing.T) {
	svc, repo, notif := newTicketFixture()
	repo.tickets["tk-1"] = models.RepairTicket{ID: "tk-1", AssetID: "asset-1", CreatedBy: "emp-1", Status: models.TicketOpen}

	tech := "tech-1"
	_, err := svc.Update(context.Background(), adminActor, "tk-1", UpdateTicketRequest{AssignedTechnician: &tech})
	require.NoError(t, err)

	require.Len(t, notif.sent, 1)
	assert.Equal(t, []string{"tech-1"}, notif.sent[0].userIDs)
	assert.Equal(t, "You were assigned a ticket for Printer (PR-9).", notif.sent[0].message)
}

func TestTicketUpdateClearsTechnician(t *testing.T) {
	svc, repo, notif := newTicketFixture()
	tech := "tech-1"
	repo.tickets["tk-1"] = models.RepairTicket{ID: "tk-1", AssetID: "asset-1", CreatedBy: "emp-1", Status: models.TicketOpen, AssignedTechnician: &tech}

	empty := ""
	detail, err := svc.Update(context.Background(), adminActor, "tk-1", UpdateTicketRequest{AssignedTechnician: &empty})
	require.NoError(t, err)

	assert.Nil(t, detail.AssignedTechnician)
	assert.Empty(t, notif.sent)
}

func TestMarkDoneChecksOrder(t *testing.T) {
	svc, repo, _ := newTicketFixture()
	tech := "tech-1"
	resolvedAt := time.Now()

	repo.tickets["resolved"] = models.RepairTicket{ID: "resolved", AssetID: "asset-1", CreatedBy: "emp-1", Status: models.TicketResolved, AssignedTechnician: &tech, ResolvedAt: &resolvedAt}
	repo.tickets["unassigned"] = models.RepairTicket{ID: "unassigned", AssetID: "asset-1", CreatedBy: "emp-1", Status: models.TicketOpen}
	repo.tickets["foreign"] = models.RepairTicket{ID: "foreign", AssetID: "asset-1", CreatedBy: "emp-1", Status: models.TicketOpen, AssignedTechnician: &tech}

	techActor := models.Actor{ID: "tech-1", Role: models.RoleEmployee}

	_, err := svc.MarkDone(context.Background(), techActor, "resolved", ResolutionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "Ticket is already resolved/closed", appErrors.FromError(err).Message)

	_, err = svc.MarkDone(context.Background(), adminActor, "unassigned", ResolutionRequest{})
	require.Error(t, err)
	assert.Equal(t, "No technician assigned", appErrors.FromError(err).Message)

	_, err = svc.MarkDone(context.Background(), adminActor, "foreign", ResolutionRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "Only the assigned technician can mark done", appErrors.FromError(err).Message)
}

func TestMarkDoneResolvesAndNotifiesEveryoneButTechnician(t *testing.T) {
	svc, repo, notif := newTicketFixture()
	tech := "tech-1"
	repo.tickets["tk-1"] = models.RepairTicket{ID: "tk-1", AssetID: "asset-1", CreatedBy: "emp-1", Status: models.TicketInProgress, AssignedTechnician: &tech}

	techActor := models.Actor{ID: "tech-1", Role: models.RoleEmployee}
	detail, err := svc.MarkDone(context.Background(), techActor, "tk-1", ResolutionRequest{Note: "  replaced fuser  "})
	require.NoError(t, err)

	assert.Equal(t, models.TicketResolved, detail.Status)
	assert.Equal(t, "replaced fuser", detail.ResolutionNote)
	assert.NotNil(t, detail.ResolvedAt)
	require.NotNil(t, detail.ResolvedBy)
	assert.Equal(t, "tech-1", *detail.ResolvedBy)

	require.Len(t, notif.sent, 1)
	assert.ElementsMatch(t, []string{"emp-1", "admin-1", "admin-2"}, notif.sent[0].userIDs)
	assert.NotContains(t, notif.sent[0].userIDs, "tech-1")
	assert.Equal(t, "Ticket resolved", notif.sent[0].title)
	assert.Equal(t, "Work marked done for Printer (PR-9). Note: replaced fuser", notif.sent[0].message)
}

func TestApproveCloseRequiresResolved(t *testing.T) {
	svc, repo, _ := newTicketFixture()
	repo.tickets["open"] = models.RepairTicket{ID: "open", AssetID: "asset-1", CreatedBy: "emp-1", Status: models.TicketOpen}
	repo.tickets["closed"] = models.RepairTicket{ID: "closed", AssetID: "asset-1", CreatedBy: "emp-1", Status: models.TicketClosed}

	_, err := svc.ApproveClose(context.Background(), adminActor, "open")
	require.Error(t, err)
	assert.Equal(t, "Ticket must be RESOLVED before closing", appErrors.FromError(err).Message)

	_, err = svc.ApproveClose(context.Background(), adminActor, "closed")
	require.Error(t, err)
	assert.Equal(t, "Ticket is already closed", appErrors.FromError(err).Message)

	_, err = svc.ApproveClose(context.Background(), employeeActor, "open")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestApproveCloseNotifiesCreatorAndTechnician(t *testing.T) {
	svc, repo, notif := newTicketFixture()
	tech := "tech-1"
	repo.tickets["tk-1"] = models.RepairTicket{ID: "tk-1", AssetID: "asset-1", CreatedBy: "emp-1", Status: models.TicketResolved, AssignedTechnician: &tech}

	detail, err := svc.ApproveClose(context.Background(), adminActor, "tk-1")
	require.NoError(t, err)

	assert.Equal(t, models.TicketClosed, detail.Status)
	require.Len(t, notif.sent, 1)
	assert.ElementsMatch(t, []string{"emp-1", "tech-1"}, notif.sent[0].userIDs)
	assert.Equal(t, "Ticket closed", notif.sent[0].title)
	assert.Equal(t, "Admin verified and closed the ticket for Printer (PR-9).", notif.sent[0].message)
}

func TestTicketVisibilityHidesForeignTickets(t *testing.T) {
	svc, repo, _ := newTicketFixture()
	repo.tickets["tk-1"] = models.RepairTicket{ID: "tk-1", AssetID: "asset-1", CreatedBy: "emp-2", Status: models.TicketOpen}

	_, err := svc.Get(context.Background(), employeeActor, "tk-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	repo.scoped["emp-1"] = []string{"tk-1"}
	detail, err := svc.Get(context.Background(), employeeActor, "tk-1")
	require.NoError(t, err)
	assert.Equal(t, "tk-1", detail.ID)
}
