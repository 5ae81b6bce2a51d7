package services

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"watermap-api/config"
	"watermap-api/models"
	"watermap-api/repositories"
)

type WorkflowTestSuite struct {
	suite.Suite
	db        *gorm.DB
	waterRepo repositories.WaterObjectRepository
	logRepo   repositories.ChangeLogRepository
	service   WaterObjectService
	catalog   CatalogService

	expert models.User
	other  models.User
	admin  models.User
}

func (suite *WorkflowTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		suite.T().Fatal("Failed to open test database:", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		suite.T().Fatal(err)
	}
	// One connection so every query sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		suite.T().Fatal("Failed to migrate test database:", err)
	}

	suite.db = db
	suite.waterRepo = repositories.NewWaterObjectRepository(db)
	suite.logRepo = repositories.NewChangeLogRepository(db)
	suite.service = NewWaterObjectService(suite.waterRepo, suite.logRepo)
	suite.catalog = NewCatalogService(suite.waterRepo)

	suite.expert = models.User{Name: "Aigerim", Email: "aigerim@example.com", Password: "x", Role: models.RoleExpert}
	suite.other = models.User{Name: "Bolat", Email: "bolat@example.com", Password: "x", Role: models.RoleExpert}
	suite.admin = models.User{Name: "Dana", Email: "dana@example.com", Password: "x", Role: models.RoleAdmin}
	suite.NoError(db.Create(&suite.expert).Error)
	suite.NoError(db.Create(&suite.other).Error)
	suite.NoError(db.Create(&suite.admin).Error)
}

func lakeRequest(name string) models.CreateWaterObjectRequest {
	return models.CreateWaterObjectRequest{
		NameKZ:     name,
		ObjectType: models.ObjectTypeLake,
		Geometry:   json.RawMessage(`{"type":"Polygon","coordinates":[[[73.0,46.0],[74.0,46.0],[74.0,47.0],[73.0,47.0],[73.0,46.0]]]}`),
	}
}

func (suite *WorkflowTestSuite) reload(id uint) *models.WaterObject {
	obj, err := suite.waterRepo.GetByID(id)
	suite.Require().NoError(err)
	return obj
}

func (suite *WorkflowTestSuite) publish(id uint) {
	suite.Require().NoError(suite.service.Submit(id, suite.expert.ID, models.RoleExpert))
	suite.Require().NoError(suite.service.Approve(id, suite.admin.ID, nil))
}

func (suite *WorkflowTestSuite) TestLifecycleScenario() {
	obj, err := suite.service.Create(lakeRequest("Balkhash"), suite.expert.ID)
	suite.Require().NoError(err)
	suite.Equal(models.StatusDraft, obj.Status)
	suite.Equal(1, obj.Version)
	suite.NotEqual(uuid.Nil, obj.CanonicalID)

	suite.NoError(suite.service.Submit(obj.ID, suite.expert.ID, models.RoleExpert))
	suite.Equal(models.StatusPending, suite.reload(obj.ID).Status)

	suite.NoError(suite.service.Reject(obj.ID, suite.admin.ID, "Missing Russian name"))
	rejected := suite.reload(obj.ID)
	suite.Equal(models.StatusRejected, rejected.Status)
	suite.Require().NotNil(rejected.RejectionReason)
	suite.Equal("Missing Russian name", *rejected.RejectionReason)

	nameRU := "Балхаш"
	updated, err := suite.service.Update(obj.ID, models.UpdateWaterObjectRequest{NameRU: &nameRU}, suite.expert.ID, models.RoleExpert)
	suite.Require().NoError(err)
	suite.Equal(models.StatusDraft, updated.Status)
	suite.Nil(updated.RejectionReason)
	suite.Require().NotNil(updated.NameRU)
	suite.Equal("Балхаш", *updated.NameRU)

	suite.NoError(suite.service.Submit(obj.ID, suite.expert.ID, models.RoleExpert))
	suite.NoError(suite.service.Approve(obj.ID, suite.admin.ID, nil))

	published := suite.reload(obj.ID)
	suite.Equal(models.StatusPublished, published.Status)
	suite.NotNil(published.PublishedAt)
	suite.Require().NotNil(published.ReviewedBy)
	suite.Equal(suite.admin.ID, *published.ReviewedBy)

	fc, err := suite.catalog.ListPublished("")
	suite.Require().NoError(err)
	suite.Require().Len(fc.Features, 1)
	suite.Equal(obj.CanonicalID.String(), fc.Features[0].ID)
}

func (suite *WorkflowTestSuite) TestSinglePublishedInvariant() {
	v1, err := suite.service.Create(lakeRequest("Alakol"), suite.expert.ID)
	suite.Require().NoError(err)
	suite.publish(v1.ID)

	v2, err := suite.service.CreateRevision(v1.ID, suite.expert.ID)
	suite.Require().NoError(err)
	suite.Equal(v1.CanonicalID, v2.CanonicalID)
	suite.Equal(2, v2.Version)
	suite.Equal(models.StatusDraft, v2.Status)

	suite.NoError(suite.service.Submit(v2.ID, suite.expert.ID, models.RoleExpert))
	suite.NoError(suite.service.Approve(v2.ID, suite.admin.ID, nil))

	suite.Equal(models.StatusArchived, suite.reload(v1.ID).Status)
	suite.Equal(models.StatusPublished, suite.reload(v2.ID).Status)

	count, err := suite.waterRepo.CountPublished(v1.CanonicalID)
	suite.Require().NoError(err)
	suite.EqualValues(1, count)

	feature, err := suite.catalog.GetPublished(v1.CanonicalID)
	suite.Require().NoError(err)
	suite.EqualValues(2, feature.Properties["version"])
}

func (suite *WorkflowTestSuite) TestSiblingPendingRowsPublishAtMostOne() {
	v1, err := suite.service.Create(lakeRequest("Balkhash"), suite.expert.ID)
	suite.Require().NoError(err)
	suite.publish(v1.ID)

	// Two revisions of the same lineage, both awaiting review.
	v2, err := suite.service.CreateRevision(v1.ID, suite.expert.ID)
	suite.Require().NoError(err)
	v3, err := suite.service.CreateRevision(v1.ID, suite.expert.ID)
	suite.Require().NoError(err)
	suite.NoError(suite.service.Submit(v2.ID, suite.expert.ID, models.RoleExpert))
	suite.NoError(suite.service.Submit(v3.ID, suite.expert.ID, models.RoleExpert))

	suite.NoError(suite.service.Approve(v2.ID, suite.admin.ID, nil))
	suite.NoError(suite.service.Approve(v3.ID, suite.admin.ID, nil))

	count, err := suite.waterRepo.CountPublished(v1.CanonicalID)
	suite.Require().NoError(err)
	suite.EqualValues(1, count)

	suite.Equal(models.StatusArchived, suite.reload(v1.ID).Status)
	suite.Equal(models.StatusArchived, suite.reload(v2.ID).Status)
	suite.Equal(models.StatusPublished, suite.reload(v3.ID).Status)
}

func (suite *WorkflowTestSuite) TestPendingIsTheOnlyApprovableState() {
	obj, err := suite.service.Create(lakeRequest("Zaysan"), suite.expert.ID)
	suite.Require().NoError(err)

	// Draft cannot be approved or rejected.
	suite.ErrorIs(suite.service.Approve(obj.ID, suite.admin.ID, nil), models.ErrInvalidTransition)
	suite.ErrorIs(suite.service.Reject(obj.ID, suite.admin.ID, "no"), models.ErrInvalidTransition)

	suite.publish(obj.ID)

	// Published rows cannot be resubmitted or approved again.
	suite.ErrorIs(suite.service.Submit(obj.ID, suite.expert.ID, models.RoleExpert), models.ErrInvalidTransition)
	suite.ErrorIs(suite.service.Approve(obj.ID, suite.admin.ID, nil), models.ErrInvalidTransition)

	// And the row is untouched by the failed calls.
	suite.Equal(models.StatusPublished, suite.reload(obj.ID).Status)
}

func (suite *WorkflowTestSuite) TestUpdateOwnership() {
	obj, err := suite.service.Create(lakeRequest("Markakol"), suite.expert.ID)
	suite.Require().NoError(err)

	name := "renamed"
	_, err = suite.service.Update(obj.ID, models.UpdateWaterObjectRequest{NameKZ: &name}, suite.other.ID, models.RoleExpert)
	suite.ErrorIs(err, models.ErrForbidden)

	// Admins may edit anyone's draft.
	_, err = suite.service.Update(obj.ID, models.UpdateWaterObjectRequest{NameKZ: &name}, suite.admin.ID, models.RoleAdmin)
	suite.NoError(err)
	suite.Equal("renamed", suite.reload(obj.ID).NameKZ)
}

func (suite *WorkflowTestSuite) TestEmptyUpdateIsIdempotent() {
	obj, err := suite.service.Create(lakeRequest("Tengiz"), suite.expert.ID)
	suite.Require().NoError(err)
	before := suite.reload(obj.ID)

	after, err := suite.service.Update(obj.ID, models.UpdateWaterObjectRequest{}, suite.expert.ID, models.RoleExpert)
	suite.Require().NoError(err)

	suite.Equal(models.StatusDraft, after.Status)
	suite.Nil(after.RejectionReason)
	suite.Equal(before.NameKZ, after.NameKZ)
	suite.Equal(before.NameRU, after.NameRU)
	suite.Equal(before.ObjectType, after.ObjectType)
	suite.JSONEq(string(before.Geometry), string(after.Geometry))
	suite.Equal(before.Version, after.Version)
	suite.Equal(before.CanonicalID, after.CanonicalID)
}

func (suite *WorkflowTestSuite) TestUpdateRevalidatesGeometryAgainstObjectType() {
	obj, err := suite.service.Create(lakeRequest("Kopa"), suite.expert.ID)
	suite.Require().NoError(err)

	// A lake cannot become a line.
	_, err = suite.service.Update(obj.ID, models.UpdateWaterObjectRequest{
		Geometry: json.RawMessage(`{"type":"LineString","coordinates":[[73.0,46.0],[74.0,47.0]]}`),
	}, suite.expert.ID, models.RoleExpert)

	var validationErr *models.ValidationError
	suite.Require().ErrorAs(err, &validationErr)
	suite.Len(validationErr.Errors, 1)
}

func (suite *WorkflowTestSuite) TestDeleteRules() {
	obj, err := suite.service.Create(lakeRequest("Shalkar"), suite.expert.ID)
	suite.Require().NoError(err)

	suite.ErrorIs(suite.service.Delete(obj.ID, suite.other.ID, models.RoleExpert), models.ErrForbidden)

	suite.publish(obj.ID)
	suite.ErrorIs(suite.service.Delete(obj.ID, suite.expert.ID, models.RoleExpert), models.ErrCannotDeletePublished)
	suite.Equal(models.StatusPublished, suite.reload(obj.ID).Status)

	draft, err := suite.service.Create(lakeRequest("Temporary"), suite.expert.ID)
	suite.Require().NoError(err)
	suite.NoError(suite.service.Delete(draft.ID, suite.expert.ID, models.RoleExpert))
	_, err = suite.service.Update(draft.ID, models.UpdateWaterObjectRequest{}, suite.expert.ID, models.RoleExpert)
	suite.ErrorIs(err, models.ErrNotFound)
}

func (suite *WorkflowTestSuite) TestRejectRequiresReason() {
	obj, err := suite.service.Create(lakeRequest("Sasykkol"), suite.expert.ID)
	suite.Require().NoError(err)
	suite.NoError(suite.service.Submit(obj.ID, suite.expert.ID, models.RoleExpert))

	suite.ErrorIs(suite.service.Reject(obj.ID, suite.admin.ID, ""), models.ErrMissingReason)
	suite.Equal(models.StatusPending, suite.reload(obj.ID).Status)
}

func (suite *WorkflowTestSuite) TestCreateCollectsEveryValidationError() {
	_, err := suite.service.Create(models.CreateWaterObjectRequest{
		ObjectType: models.ObjectTypeRiver,
		Geometry:   json.RawMessage(`{"type":"Polygon","coordinates":[[[100.5,30.0],[101.0,30.0],[101.0,31.0],[100.5,30.0]]]}`),
	}, suite.expert.ID)

	var validationErr *models.ValidationError
	suite.Require().ErrorAs(err, &validationErr)
	// Missing name, wrong geometry type for a river, and out-of-region
	// coordinates, all reported together.
	suite.Len(validationErr.Errors, 3)
	suite.Contains(validationErr.Errors, "name_kz is required")
}

func (suite *WorkflowTestSuite) TestChangeLogTrail() {
	obj, err := suite.service.Create(lakeRequest("Borovoe"), suite.expert.ID)
	suite.Require().NoError(err)
	suite.NoError(suite.service.Submit(obj.ID, suite.expert.ID, models.RoleExpert))
	suite.NoError(suite.service.Reject(obj.ID, suite.admin.ID, "needs sources"))
	suite.NoError(suite.service.Submit(obj.ID, suite.expert.ID, models.RoleExpert))
	suite.NoError(suite.service.Approve(obj.ID, suite.admin.ID, nil))

	entries, err := suite.logRepo.ListByCanonicalID(obj.CanonicalID)
	suite.Require().NoError(err)

	actions := make([]models.ChangeAction, len(entries))
	for i, entry := range entries {
		actions[i] = entry.Action
		suite.Equal(obj.ID, entry.WaterObjectID)
	}
	suite.Equal([]models.ChangeAction{
		models.ActionCreate,
		models.ActionSubmit,
		models.ActionReject,
		models.ActionSubmit,
		models.ActionApprove,
	}, actions)

	rejectEntry := entries[2]
	suite.Require().NotNil(rejectEntry.ReviewerNotes)
	suite.Equal("needs sources", *rejectEntry.ReviewerNotes)
}

func (suite *WorkflowTestSuite) TestGetDiff() {
	v1, err := suite.service.Create(lakeRequest("Karakol"), suite.expert.ID)
	suite.Require().NoError(err)
	suite.NoError(suite.service.Submit(v1.ID, suite.expert.ID, models.RoleExpert))

	// Never-published lineage.
	diff, err := suite.service.GetDiff(v1.ID)
	suite.Require().NoError(err)
	suite.True(diff.IsNewObject)
	suite.Nil(diff.Published)

	suite.NoError(suite.service.Approve(v1.ID, suite.admin.ID, nil))

	v2, err := suite.service.CreateRevision(v1.ID, suite.expert.ID)
	suite.Require().NoError(err)
	suite.NoError(suite.service.Submit(v2.ID, suite.expert.ID, models.RoleExpert))

	diff, err = suite.service.GetDiff(v2.ID)
	suite.Require().NoError(err)
	suite.False(diff.IsNewObject)
	suite.Require().NotNil(diff.Published)
	suite.Equal(v1.ID, diff.Published.ID)
	suite.Equal(v2.ID, diff.Pending.ID)

	// Diff is only defined for pending rows.
	_, err = suite.service.GetDiff(v1.ID)
	suite.ErrorIs(err, models.ErrNotFound)
}

func (suite *WorkflowTestSuite) TestListByOwnerAndPending() {
	mine, err := suite.service.Create(lakeRequest("Mine"), suite.expert.ID)
	suite.Require().NoError(err)
	theirs, err := suite.service.Create(lakeRequest("Theirs"), suite.other.ID)
	suite.Require().NoError(err)
	suite.NoError(suite.service.Submit(theirs.ID, suite.other.ID, models.RoleExpert))

	drafts, err := suite.service.ListByOwner(suite.expert.ID, []models.ObjectStatus{models.StatusDraft, models.StatusPending, models.StatusRejected})
	suite.Require().NoError(err)
	suite.Require().Len(drafts, 1)
	suite.Equal(mine.ID, drafts[0].ID)

	pending, err := suite.service.ListPending()
	suite.Require().NoError(err)
	suite.Require().Len(pending, 1)
	suite.Equal(theirs.ID, pending[0].ID)
}

func (suite *WorkflowTestSuite) TestHistoryOrderedByVersion() {
	v1, err := suite.service.Create(lakeRequest("Shelek"), suite.expert.ID)
	suite.Require().NoError(err)
	suite.publish(v1.ID)
	v2, err := suite.service.CreateRevision(v1.ID, suite.expert.ID)
	suite.Require().NoError(err)

	history, err := suite.service.History(v1.CanonicalID)
	suite.Require().NoError(err)
	suite.Require().Len(history, 2)
	suite.Equal(v2.ID, history[0].ID)
	suite.Equal(v1.ID, history[1].ID)
}

func (suite *WorkflowTestSuite) TestNotFound() {
	_, err := suite.service.Update(99999, models.UpdateWaterObjectRequest{}, suite.expert.ID, models.RoleExpert)
	suite.ErrorIs(err, models.ErrNotFound)
	suite.ErrorIs(suite.service.Submit(99999, suite.expert.ID, models.RoleExpert), models.ErrNotFound)
	suite.ErrorIs(suite.service.Approve(99999, suite.admin.ID, nil), models.ErrNotFound)
	suite.ErrorIs(suite.service.Delete(99999, suite.expert.ID, models.RoleExpert), models.ErrNotFound)
}

func TestWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowTestSuite))
}
