package dto

import "github.com/noah-isme/teacher-review-api/pkg/throttle"

// SubmitReviewRequest is the review submission payload. Pointer fields distinguish a missing value
// from its zero value.
type SubmitReviewRequest struct {
	TeacherID     string                 `json:"teacher_id" validate:"required"`
	Rating        *float64               `json:"rating" validate:"required,rating_step"`
	DoesRollCall  *bool                  `json:"does_roll_call" validate:"required"`
	Comment       string                 `json:"comment" validate:"nonblank"`
	CourseReviews []CourseReviewRequest  `json:"course_reviews" validate:"omitempty,dive"`
	CourseTags    []CourseTagRequest     `json:"course_tags" validate:"omitempty,dive"`
	Device        *throttle.DeviceTraits `json:"device,omitempty"`
}

// CourseReviewRequest rates one course, referenced by id or by name.
type CourseReviewRequest struct {
	CourseID      string   `json:"course_id" validate:"required_without=CourseName"`
	CourseName    string   `json:"course_name" validate:"required_without=CourseID"`
	CourseRating  *float64 `json:"course_rating" validate:"required,rating_step"`
	CourseComment *string  `json:"course_comment,omitempty"`
}

// CourseTagRequest tags the review with a course without rating it.
type CourseTagRequest struct {
	CourseName string  `json:"course_name" validate:"nonblank"`
	CourseCode *string `json:"course_code,omitempty"`
}

// SubmitReviewResponse identifies the stored review.
type SubmitReviewResponse struct {
	ReviewID string `json:"review_id"`
}

// VoteRequest casts one helpfulness vote.
type VoteRequest struct {
	ReviewID string `json:"review_id"`
	VoteType string `json:"vote_type"`
}
