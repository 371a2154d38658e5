package ratings

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gighub-app/gighub_be/internal/models"
)

var (
	ErrInvalidRating   = errors.New("rating must be an integer between 1 and 5")
	ErrDuplicateReview = errors.New("user has already reviewed this gig")
	ErrGigNotFound     = errors.New("gig not found")

	errVersionConflict = errors.New("gig version changed by a concurrent writer")
)

const submitRetries = 3

// RatingService owns the invariant that a gig's rating is the arithmetic mean
// of its review ratings and num_reviews is their count.
type RatingService struct {
	DB *gorm.DB
}

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{DB: db}
}

// SubmitReview appends a review and recomputes the gig's aggregates in a single
// transaction. The aggregate write is guarded by the gig's version counter: if
// a concurrent submission got there first, the whole transaction rolls back and
// is retried, so no appended review is ever lost.
func (s *RatingService) SubmitReview(gigID, userID uuid.UUID, username string, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	for attempt := 0; attempt < submitRetries; attempt++ {
		review, err := s.trySubmit(gigID, userID, username, rating, comment)
		if errors.Is(err, errVersionConflict) {
			continue
		}
		return review, err
	}
	return nil, fmt.Errorf("submit review: gig %s kept changing under us", gigID)
}

func (s *RatingService) trySubmit(gigID, userID uuid.UUID, username string, rating int, comment string) (*models.Review, error) {
	review := &models.Review{
		GigID:    gigID,
		UserID:   userID,
		Username: username,
		Rating:   rating,
		Comment:  comment,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var gig models.Gig
		if err := tx.First(&gig, "id = ?", gigID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGigNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&models.Review{}).
			Where("gig_id = ? AND user_id = ?", gigID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateReview
		}

		if err := tx.Create(review).Error; err != nil {
			return err
		}

		// Recompute from the review rows, our own insert included.
		var agg struct {
			Count int64
			Sum   int64
		}
		if err := tx.Model(&models.Review{}).
			Select("COUNT(*) as count, COALESCE(SUM(rating), 0) as sum").
			Where("gig_id = ?", gigID).
			Scan(&agg).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Gig{}).
			Where("id = ? AND version = ?", gig.ID, gig.Version).
			Updates(map[string]interface{}{
				"rating":      float64(agg.Sum) / float64(agg.Count),
				"num_reviews": agg.Count,
				"version":     gig.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errVersionConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}
