package integrity

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"asset-sync/core/enrich"
	"asset-sync/core/registry"
	"asset-sync/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T) (*fiber.App, *mocks.Client, *gorm.DB) {
	app := fiber.New()
	mockClient := new(mocks.Client)
	db := setupDB(t)
	svc := NewService(mockClient, testConfig(), db, enrich.Columns(enrich.DefaultPrefix), zap.NewNop())
	handler := NewHandler(svc)
	handler.RegisterRoutes(app)
	return app, mockClient, db
}

func decode(t *testing.T, r io.Reader) map[string]any {
	var body map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}

func TestHandleStructureCheck(t *testing.T) {
	app, mockClient, _ := setupTestApp(t)

	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
	mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(emptyListing())

	req := httptest.NewRequest("GET", "/integrity/structure", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Equal(t, "checked", body["status"])
	assert.Len(t, body["missing"], 4)
}

func TestHandleStructureCheck_Fix(t *testing.T) {
	app, mockClient, _ := setupTestApp(t)

	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
	mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(emptyListing())
	mockClient.On("PutObject", mock.Anything, "test-bucket", mock.Anything, mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

	req := httptest.NewRequest("GET", "/integrity/structure?fix=true", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "fixed", decode(t, resp.Body)["status"])
	mockClient.AssertNumberOfCalls(t, "PutObject", 4)
}

func TestHandleStructureCheck_BucketError(t *testing.T) {
	app, mockClient, _ := setupTestApp(t)
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, assert.AnError)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/structure", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}

func TestHandleSchemaCheck(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/schema", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, decode(t, resp.Body)["matched"])
}

func TestHandleColumnsCheck(t *testing.T) {
	app, _, db := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/columns", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Len(t, decode(t, resp.Body)["missing"], len(enrich.Slots))

	resp, err = app.Test(httptest.NewRequest("GET", "/integrity/columns?fix=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "fixed", decode(t, resp.Body)["status"])
	assert.True(t, db.Migrator().HasColumn(registry.AssetsTable, enrich.Column(enrich.DefaultPrefix, enrich.Slots[0])))
}

func TestHandleSerialsCheck(t *testing.T) {
	app, _, db := setupTestApp(t)
	require.NoError(t, db.Create(&[]registry.Asset{{Serial: "ABC1"}, {Serial: "abc1"}}).Error)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/serials", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	dups := decode(t, resp.Body)["duplicates"].([]any)
	require.Len(t, dups, 1)
	assert.Equal(t, "ABC1", dups[0].(map[string]any)["serial"])
}

func TestHandleIntegrityCheck(t *testing.T) {
	app, mockClient, _ := setupTestApp(t)

	// Fail BucketExists so the structure check reports an error in place
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, assert.AnError)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity", nil), 2000)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Contains(t, body, "structure")
	assert.Contains(t, body, "schema")
	assert.Contains(t, body, "columns")
	assert.Contains(t, body, "serials")
}

func TestHandleSchemaCheck_NoDatabase(t *testing.T) {
	app := fiber.New()
	NewHandler(NewService(nil, testConfig(), nil, nil, zap.NewNop())).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/schema", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}
