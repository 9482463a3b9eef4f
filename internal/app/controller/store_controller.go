package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/savoryhq/savory-backend/internal/app/repository"
	"github.com/savoryhq/savory-backend/internal/app/service"
	"github.com/savoryhq/savory-backend/internal/errors"
	"github.com/savoryhq/savory-backend/internal/middleware"
)

type StoreController struct {
	storeService service.StoreService
}

func NewStoreController(storeService service.StoreService) *StoreController {
	return &StoreController{storeService: storeService}
}

// CreateStore handles POST /api/v1/stores
func (ctrl *StoreController) CreateStore(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	var input service.CreateStoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	store, err := ctrl.storeService.CreateStore(userID, &input)
	if err != nil {
		log.Error("Failed to create store", err, map[string]interface{}{
			"user_id": userID,
		})
		errors.ParseAndRespond(c, http.StatusInternalServerError, err, "store")
		return
	}

	log.Info("Store created", map[string]interface{}{
		"store_id": store.ID,
		"slug":     store.Slug,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": fmt.Sprintf("Successfully created %s", store.Name),
		"store":   store,
	})
}

// ListStores handles GET /api/v1/stores and GET /api/v1/stores/page/:page.
// A page past the end answers with a redirect to the last page.
func (ctrl *StoreController) ListStores(c *gin.Context) {
	page := 1
	if raw := c.Param("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid page number")
			return
		}
		page = parsed
	}

	list, err := ctrl.storeService.ListStores(page)
	if err != nil {
		errors.InternalError(c, "")
		return
	}

	if list.OutOfRange {
		c.Redirect(http.StatusFound, fmt.Sprintf("/api/v1/stores/page/%d", list.Page))
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetStoreBySlug handles GET /api/v1/stores/slug/:slug. Signed-in
// viewers also get whether they hearted the store.
func (ctrl *StoreController) GetStoreBySlug(c *gin.Context) {
	store, err := ctrl.storeService.GetStoreBySlug(c.Param("slug"))
	if err != nil {
		if err == service.ErrStoreNotFound {
			errors.NotFound(c, errors.StoreNotFound, "Store not found")
			return
		}
		errors.InternalError(c, "")
		return
	}

	response := gin.H{"store": store}
	if userID, ok := middleware.GetUserID(c); ok {
		hearted, err := ctrl.storeService.IsHearted(userID, store.ID)
		if err != nil {
			errors.InternalError(c, "")
			return
		}
		response["hearted"] = hearted
	}
	c.JSON(http.StatusOK, response)
}

// UpdateStore handles PUT /api/v1/stores/:id
func (ctrl *StoreController) UpdateStore(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var input service.UpdateStoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	store, err := ctrl.storeService.UpdateStore(userID, storeID, &input)
	if err != nil {
		switch err {
		case service.ErrStoreNotFound:
			errors.NotFound(c, errors.StoreNotFound, "Store not found")
		case service.ErrStoreAccessDenied:
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzOwnerOnly, "You must own a store in order to edit it")
		default:
			log.Error("Failed to update store", err, map[string]interface{}{
				"store_id": storeID,
				"user_id":  userID,
			})
			errors.ParseAndRespond(c, http.StatusInternalServerError, err, "store")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Successfully updated %s", store.Name),
		"store":   store,
	})
}

// ListTags handles GET /api/v1/tags and GET /api/v1/tags/:tag
func (ctrl *StoreController) ListTags(c *gin.Context) {
	page, err := ctrl.storeService.StoresByTag(c.Param("tag"))
	if err != nil {
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, page)
}

// Search handles GET /api/v1/stores/search?q=
func (ctrl *StoreController) Search(c *gin.Context) {
	hits, err := ctrl.storeService.Search(c.Query("q"))
	if err != nil {
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, hits)
}

// Near handles GET /api/v1/stores/near?lng=&lat=
func (ctrl *StoreController) Near(c *gin.Context) {
	stores, err := ctrl.storeService.Near(c.Query("lng"), c.Query("lat"))
	if err != nil {
		errors.InternalError(c, "")
		return
	}

	if stores == nil {
		stores = []repository.NearStore{}
	}
	c.JSON(http.StatusOK, stores)
}

// TopStores handles GET /api/v1/stores/top
func (ctrl *StoreController) TopStores(c *gin.Context) {
	rated, err := ctrl.storeService.TopStores()
	if err != nil {
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"stores": rated})
}

// ToggleHeart handles POST /api/v1/stores/:id/heart and returns the
// user with the updated hearts list.
func (ctrl *StoreController) ToggleHeart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	user, err := ctrl.storeService.ToggleHeart(userID, storeID)
	if err != nil {
		if err == service.ErrStoreNotFound {
			errors.NotFound(c, errors.StoreNotFound, "Store not found")
			return
		}
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, user)
}

// HeartedStores handles GET /api/v1/hearts
func (ctrl *StoreController) HeartedStores(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	stores, err := ctrl.storeService.HeartedStores(userID)
	if err != nil {
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

// ExportStores handles GET /api/v1/stores/export, streaming the
// directory as an XLSX workbook.
func (ctrl *StoreController) ExportStores(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	f, err := ctrl.storeService.ExportStores()
	if err != nil {
		log.Error("Failed to export stores", err)
		errors.InternalError(c, "")
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="stores.xlsx"`)
	if err := f.Write(c.Writer); err != nil {
		log.Error("Failed to write export", err)
	}
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid id")
		return 0, err
	}
	return uint(id), nil
}
