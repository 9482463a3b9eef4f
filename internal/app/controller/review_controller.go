package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savoryhq/savory-backend/internal/app/service"
	"github.com/savoryhq/savory-backend/internal/errors"
	"github.com/savoryhq/savory-backend/internal/middleware"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

// AddReview handles POST /api/v1/stores/:id/reviews
func (ctrl *ReviewController) AddReview(c *gin.Context) {
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

	var input service.AddReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	review, err := ctrl.reviewService.AddReview(userID, storeID, &input)
	if err != nil {
		switch err {
		case service.ErrStoreNotFound:
			errors.NotFound(c, errors.StoreNotFound, "Store not found")
		case service.ErrInvalidRating:
			errors.BadRequest(c, errors.ReviewInvalidRating, "Rating must be between 1 and 5")
		default:
			log.Error("Failed to add review", err, map[string]interface{}{
				"store_id": storeID,
				"user_id":  userID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review saved!",
		"review":  review,
	})
}

// ListReviews handles GET /api/v1/stores/:id/reviews
func (ctrl *ReviewController) ListReviews(c *gin.Context) {
	storeID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	reviews, err := ctrl.reviewService.ListByStore(storeID)
	if err != nil {
		if err == service.ErrStoreNotFound {
			errors.NotFound(c, errors.StoreNotFound, "Store not found")
			return
		}
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
