package controller

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"huddle_backend/internal/model"
	"huddle_backend/pkg/database"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Organizer{},
		&model.Community{},
		&model.Event{},
	))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	return db
}

func jsonPut(t *testing.T, app *fiber.App, path, body string) int {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestUpdateEventOmittedFieldsKeepValues(t *testing.T) {
	db := setupTestDB(t)

	community := &model.Community{
		OrganizerID: 1,
		Name:        "Runners",
		Slug:        "runners",
		Status:      model.CommunityStatusActive,
	}
	require.NoError(t, db.Create(community).Error)

	starts := time.Date(2026, 9, 12, 18, 0, 0, 0, time.UTC)
	event := &model.Event{
		CommunityID: community.ID,
		Title:       "Evening Run",
		Slug:        "evening-run",
		Description: "Easy 5k along the river",
		Location:    "North Gate",
		StartsAt:    starts,
		Capacity:    30,
	}
	require.NoError(t, db.Create(event).Error)

	app := fiber.New()
	app.Put("/events/:event_id", func(c *fiber.Ctx) error {
		c.Locals("community", community)
		return UpdateEvent(c)
	})

	status := jsonPut(t, app, fmt.Sprintf("/events/%d", event.ID), `{"title":"Morning Run"}`)
	assert.Equal(t, fiber.StatusOK, status)

	var got model.Event
	require.NoError(t, db.First(&got, event.ID).Error)
	assert.Equal(t, "Morning Run", got.Title)
	assert.Equal(t, "morning-run", got.Slug)
	assert.Equal(t, "Easy 5k along the river", got.Description)
	assert.Equal(t, "North Gate", got.Location)
	assert.Equal(t, 30, got.Capacity)
	assert.True(t, got.StartsAt.Equal(starts))
}

func TestUpdateEventClearsFieldSentEmpty(t *testing.T) {
	db := setupTestDB(t)

	community := &model.Community{
		OrganizerID: 1,
		Name:        "Runners",
		Slug:        "runners",
		Status:      model.CommunityStatusActive,
	}
	require.NoError(t, db.Create(community).Error)

	event := &model.Event{
		CommunityID: community.ID,
		Title:       "Evening Run",
		Slug:        "evening-run",
		Description: "Easy 5k along the river",
	}
	require.NoError(t, db.Create(event).Error)

	app := fiber.New()
	app.Put("/events/:event_id", func(c *fiber.Ctx) error {
		c.Locals("community", community)
		return UpdateEvent(c)
	})

	status := jsonPut(t, app, fmt.Sprintf("/events/%d", event.ID), `{"description":""}`)
	assert.Equal(t, fiber.StatusOK, status)

	var got model.Event
	require.NoError(t, db.First(&got, event.ID).Error)
	assert.Empty(t, got.Description)
	assert.Equal(t, "Evening Run", got.Title)
}

func TestUpdateCommunityOmittedFieldsKeepValues(t *testing.T) {
	db := setupTestDB(t)

	community := &model.Community{
		OrganizerID: 1,
		Name:        "Runners",
		Slug:        "runners",
		Description: "Weekly group runs",
		Topic:       "sports",
		City:        "Leiden",
		Status:      model.CommunityStatusActive,
	}
	require.NoError(t, db.Create(community).Error)

	app := fiber.New()
	app.Put("/communities/:id", func(c *fiber.Ctx) error {
		c.Locals("community", community)
		return UpdateCommunity(c)
	})

	status := jsonPut(t, app, fmt.Sprintf("/communities/%d", community.ID), `{"city":"Utrecht"}`)
	assert.Equal(t, fiber.StatusOK, status)

	var got model.Community
	require.NoError(t, db.First(&got, community.ID).Error)
	assert.Equal(t, "Utrecht", got.City)
	assert.Equal(t, "Weekly group runs", got.Description)
	assert.Equal(t, "sports", got.Topic)
	assert.Equal(t, "Runners", got.Name)
	assert.Equal(t, model.CommunityStatusActive, got.Status)
}
