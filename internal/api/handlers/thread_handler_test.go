package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/api/handlers"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/api/middleware"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/services"
)

// sessionFor simulates an authenticated request for handler tests.
func sessionFor(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextKeyUserID, userID)
		}
		c.Next()
	}
}

func setupThreadRouter(userID string, svc *MockThreadService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessionFor(userID))
	handlers.RegisterThreadRoutes(r, handlers.NewThreadHandler(svc), middleware.RequireSession())
	return r
}

func TestThreadHandler_CreateThread_New(t *testing.T) {
	mockSvc := new(MockThreadService)
	buyerID := uuid.NewString()
	listingID := uuid.NewString()
	r := setupThreadRouter(buyerID, mockSvc)

	thread := &models.Thread{ID: uuid.NewString(), ListingID: listingID, BuyerID: buyerID}
	mockSvc.On("StartThread", mock.Anything, buyerID, listingID, "Is this still available?").Return(thread, true, nil)

	body, _ := json.Marshal(gin.H{"listingId": listingID, "message": "Is this still available?"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/threads", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var respBody map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, thread.ID, respBody["threadId"])
	mockSvc.AssertExpectations(t)
}

func TestThreadHandler_CreateThread_Existing(t *testing.T) {
	mockSvc := new(MockThreadService)
	buyerID := uuid.NewString()
	listingID := uuid.NewString()
	r := setupThreadRouter(buyerID, mockSvc)

	thread := &models.Thread{ID: uuid.NewString(), ListingID: listingID, BuyerID: buyerID}
	mockSvc.On("StartThread", mock.Anything, buyerID, listingID, "hello again").Return(thread, false, nil)

	body, _ := json.Marshal(gin.H{"listingId": listingID, "message": "hello again"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/threads", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestThreadHandler_CreateThread_Unauthenticated(t *testing.T) {
	r := setupThreadRouter("", new(MockThreadService))

	body, _ := json.Marshal(gin.H{"listingId": uuid.NewString(), "message": "hi"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/threads", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "You must be signed in.")
}

func TestThreadHandler_CreateThread_MissingListingID(t *testing.T) {
	r := setupThreadRouter(uuid.NewString(), new(MockThreadService))

	body, _ := json.Marshal(gin.H{"message": "hi there"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/threads", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "listingId is required.")
}

func TestThreadHandler_CreateThread_InvalidJSON(t *testing.T) {
	r := setupThreadRouter(uuid.NewString(), new(MockThreadService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/threads", bytes.NewReader([]byte("{not json")))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid JSON body.")
}

func TestThreadHandler_CreateThread_SelfMessage(t *testing.T) {
	mockSvc := new(MockThreadService)
	ownerID := uuid.NewString()
	listingID := uuid.NewString()
	r := setupThreadRouter(ownerID, mockSvc)

	mockSvc.On("StartThread", mock.Anything, ownerID, listingID, "me again").
		Return(nil, false, services.ErrSelfMessage)

	body, _ := json.Marshal(gin.H{"listingId": listingID, "message": "me again"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/threads", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "You cannot message your own listing.")
	mockSvc.AssertExpectations(t)
}

func TestThreadHandler_CreateThread_ListingNotFound(t *testing.T) {
	mockSvc := new(MockThreadService)
	buyerID := uuid.NewString()
	listingID := uuid.NewString()
	r := setupThreadRouter(buyerID, mockSvc)

	mockSvc.On("StartThread", mock.Anything, buyerID, listingID, "hi").
		Return(nil, false, services.ErrListingNotFound)

	body, _ := json.Marshal(gin.H{"listingId": listingID, "message": "hi"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/threads", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Listing not found.")
}

func TestThreadHandler_ListThreads(t *testing.T) {
	mockSvc := new(MockThreadService)
	userID := uuid.NewString()
	r := setupThreadRouter(userID, mockSvc)

	summaries := []models.ThreadSummary{
		{Thread: models.Thread{ID: uuid.NewString(), BuyerID: userID, LastMessageAt: time.Now()}, ListingTitle: "Alfa Romeo GTV6"},
	}
	mockSvc.On("ListInbox", mock.Anything, userID).Return(summaries, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/threads", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	threads, ok := respBody["threads"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, threads, 1)
	mockSvc.AssertExpectations(t)
}

func TestThreadHandler_GetThread_NotParticipant(t *testing.T) {
	mockSvc := new(MockThreadService)
	userID := uuid.NewString()
	threadID := uuid.NewString()
	r := setupThreadRouter(userID, mockSvc)

	mockSvc.On("GetThread", mock.Anything, threadID, userID).
		Return(nil, nil, services.ErrNotParticipant)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/threads/"+threadID, nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "You are not part of this conversation.")
}

func TestThreadHandler_GetThread_Success(t *testing.T) {
	mockSvc := new(MockThreadService)
	userID := uuid.NewString()
	threadID := uuid.NewString()
	r := setupThreadRouter(userID, mockSvc)

	thread := &models.Thread{ID: threadID, BuyerID: userID}
	messages := []models.Message{
		{ID: uuid.NewString(), ThreadID: threadID, SenderID: userID, Body: "first"},
		{ID: uuid.NewString(), ThreadID: threadID, SenderID: uuid.NewString(), Body: "second"},
	}
	mockSvc.On("GetThread", mock.Anything, threadID, userID).Return(thread, messages, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/threads/"+threadID, nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	msgs, ok := respBody["messages"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, msgs, 2)
	mockSvc.AssertExpectations(t)
}

func TestThreadHandler_GetThread_InvalidID(t *testing.T) {
	r := setupThreadRouter(uuid.NewString(), new(MockThreadService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/threads/not-a-uuid", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Thread not found.")
}
