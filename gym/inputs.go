package gym

import (
	"encoding/json"
	"time"
)

// Inputs are what an editor form holds and what a create request sends. ID
// is never serialized; it is set only when the form was opened on an
// existing record and is how create and update are told apart.
//
// Patches carry only the fields to change. Input.Patch() sets every field
// the form exposes, empty ones included, so a cleared field is cleared on
// the server too. Patch tags accept the cleared value of optional fields.

// UserInput is the member form and the body of POST /users.
type UserInput struct {
	ID     int64      `json:"-"`
	Name   string     `json:"name" validate:"required,max=50"`
	Phone  string     `json:"phone" validate:"required,max=20"`
	Gender Gender     `json:"gender,omitempty" validate:"omitempty,oneof=1 2"`
	Email  string     `json:"email,omitempty" validate:"omitempty,email"`
	Status UserStatus `json:"status,omitempty" validate:"omitempty,oneof=1 2 3"`
}

// UserPatch is a partial PUT /users/{id} body; nil fields are left alone.
type UserPatch struct {
	Name   *string     `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Phone  *string     `json:"phone,omitempty" validate:"omitempty,min=1,max=20"`
	Gender *Gender     `json:"gender,omitempty" validate:"omitempty,oneof=0 1 2"`
	Email  *string     `json:"email,omitempty" validate:"omitempty,email|len=0"`
	Status *UserStatus `json:"status,omitempty" validate:"omitempty,oneof=0 1 2 3"`
}

func (in UserInput) RecordID() int64 { return in.ID }

// Patch returns a patch setting every form field.
func (in UserInput) Patch() UserPatch {
	return UserPatch{
		Name:   &in.Name,
		Phone:  &in.Phone,
		Gender: &in.Gender,
		Email:  &in.Email,
		Status: &in.Status,
	}
}

// Input pre-populates an editor with u.
func (u User) Input() UserInput {
	return UserInput{ID: u.ID, Name: u.Name, Phone: u.Phone, Gender: u.Gender, Email: u.Email, Status: u.Status}
}

// CardInput is the membership card form and the body of POST /cards.
// A nil RemainingTimes or TotalTimes means the card is not counted.
type CardInput struct {
	ID             int64      `json:"-"`
	CardNo         string     `json:"card_no,omitempty" validate:"omitempty,max=32"`
	UserID         int64      `json:"user_id" validate:"required,gt=0"`
	CardTypeID     int64      `json:"card_type_id" validate:"required,gt=0"`
	Status         CardStatus `json:"status,omitempty" validate:"omitempty,oneof=1 2 3 4 5"`
	StartDate      Date       `json:"start_date" validate:"required"`
	EndDate        Date       `json:"end_date" validate:"required"`
	RemainingTimes *int       `json:"remaining_times,omitempty" validate:"omitempty,gte=0"`
	TotalTimes     *int       `json:"total_times,omitempty" validate:"omitempty,gte=0"`
	FreezeTimes    int        `json:"freeze_times" validate:"gte=0"`
	FreezeDays     int        `json:"freeze_days" validate:"gte=0"`
	PurchasePrice  float64    `json:"purchase_price" validate:"gte=0"`
	Remark         string     `json:"remark,omitempty"`
}

// CardPatch is a partial PUT /cards/{id} body; nil fields are left alone.
type CardPatch struct {
	CardNo         *string     `json:"card_no,omitempty" validate:"omitempty,max=32"`
	UserID         *int64      `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	CardTypeID     *int64      `json:"card_type_id,omitempty" validate:"omitempty,gt=0"`
	Status         *CardStatus `json:"status,omitempty" validate:"omitempty,oneof=0 1 2 3 4 5"`
	StartDate      *Date       `json:"start_date,omitempty"`
	EndDate        *Date       `json:"end_date,omitempty"`
	RemainingTimes *Count      `json:"remaining_times,omitempty"`
	TotalTimes     *Count      `json:"total_times,omitempty"`
	FreezeTimes    *int        `json:"freeze_times,omitempty" validate:"omitempty,gte=0"`
	FreezeDays     *int        `json:"freeze_days,omitempty" validate:"omitempty,gte=0"`
	PurchasePrice  *float64    `json:"purchase_price,omitempty" validate:"omitempty,gte=0"`
	Remark         *string     `json:"remark,omitempty"`
}

// Count is a patch value for a count that may be absent. A Count with a
// nil N is sent as null and clears the count.
type Count struct {
	N *int
}

func (c Count) MarshalJSON() ([]byte, error) { return json.Marshal(c.N) }

func (in CardInput) RecordID() int64 { return in.ID }

// Patch returns a patch setting every form field.
func (in CardInput) Patch() CardPatch {
	return CardPatch{
		CardNo:         &in.CardNo,
		UserID:         &in.UserID,
		CardTypeID:     &in.CardTypeID,
		Status:         &in.Status,
		StartDate:      &in.StartDate,
		EndDate:        &in.EndDate,
		RemainingTimes: &Count{N: in.RemainingTimes},
		TotalTimes:     &Count{N: in.TotalTimes},
		FreezeTimes:    &in.FreezeTimes,
		FreezeDays:     &in.FreezeDays,
		PurchasePrice:  &in.PurchasePrice,
		Remark:         &in.Remark,
	}
}

// Input pre-populates an editor with c.
func (c MembershipCard) Input() CardInput {
	return CardInput{
		ID:             c.ID,
		CardNo:         c.CardNo,
		UserID:         c.UserID,
		CardTypeID:     c.CardTypeID,
		Status:         c.Status,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		RemainingTimes: c.RemainingTimes,
		TotalTimes:     c.TotalTimes,
		FreezeTimes:    c.FreezeTimes,
		FreezeDays:     c.FreezeDays,
		PurchasePrice:  c.PurchasePrice,
		Remark:         c.Remark,
	}
}

// CoachInput is the coach form and the body of POST /coaches.
type CoachInput struct {
	ID          int64       `json:"-"`
	Name        string      `json:"name" validate:"required,max=50"`
	Phone       string      `json:"phone" validate:"required,max=20"`
	Gender      Gender      `json:"gender,omitempty" validate:"omitempty,oneof=1 2"`
	Email       string      `json:"email,omitempty" validate:"omitempty,email"`
	Specialties string      `json:"specialties,omitempty"`
	Experience  int         `json:"experience" validate:"gte=0"`
	Status      CoachStatus `json:"status,omitempty" validate:"omitempty,oneof=1 2 3"`
}

// CoachPatch is a partial PUT /coaches/{id} body; nil fields are left alone.
type CoachPatch struct {
	Name        *string      `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Phone       *string      `json:"phone,omitempty" validate:"omitempty,min=1,max=20"`
	Gender      *Gender      `json:"gender,omitempty" validate:"omitempty,oneof=0 1 2"`
	Email       *string      `json:"email,omitempty" validate:"omitempty,email|len=0"`
	Specialties *string      `json:"specialties,omitempty"`
	Experience  *int         `json:"experience,omitempty" validate:"omitempty,gte=0"`
	Status      *CoachStatus `json:"status,omitempty" validate:"omitempty,oneof=0 1 2 3"`
}

func (in CoachInput) RecordID() int64 { return in.ID }

// Patch returns a patch setting every form field.
func (in CoachInput) Patch() CoachPatch {
	return CoachPatch{
		Name:        &in.Name,
		Phone:       &in.Phone,
		Gender:      &in.Gender,
		Email:       &in.Email,
		Specialties: &in.Specialties,
		Experience:  &in.Experience,
		Status:      &in.Status,
	}
}

// Input pre-populates an editor with c.
func (c Coach) Input() CoachInput {
	return CoachInput{
		ID:          c.ID,
		Name:        c.Name,
		Phone:       c.Phone,
		Gender:      c.Gender,
		Email:       c.Email,
		Specialties: c.Specialties,
		Experience:  c.Experience,
		Status:      c.Status,
	}
}

// CourseInput is the course form and the body of POST /courses.
type CourseInput struct {
	ID          int64        `json:"-"`
	CoachID     int64        `json:"coach_id" validate:"required,gt=0"`
	CourseName  string       `json:"course_name" validate:"required,max=100"`
	CourseType  CourseType   `json:"course_type" validate:"required,oneof=1 2"`
	StartTime   time.Time    `json:"start_time" validate:"required"`
	EndTime     time.Time    `json:"end_time" validate:"required,gtfield=StartTime"`
	MaxCapacity int          `json:"max_capacity" validate:"required,gt=0"`
	Price       float64      `json:"price" validate:"gte=0"`
	Status      CourseStatus `json:"status,omitempty" validate:"omitempty,oneof=1 2 3 4"`
	Description string       `json:"description,omitempty"`
	Remark      string       `json:"remark,omitempty"`
}

// CoursePatch is a partial PUT /courses/{id} body; nil fields are left alone.
type CoursePatch struct {
	CoachID     *int64        `json:"coach_id,omitempty" validate:"omitempty,gt=0"`
	CourseName  *string       `json:"course_name,omitempty" validate:"omitempty,min=1,max=100"`
	CourseType  *CourseType   `json:"course_type,omitempty" validate:"omitempty,oneof=1 2"`
	StartTime   *time.Time    `json:"start_time,omitempty"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	MaxCapacity *int          `json:"max_capacity,omitempty" validate:"omitempty,gt=0"`
	Price       *float64      `json:"price,omitempty" validate:"omitempty,gte=0"`
	Status      *CourseStatus `json:"status,omitempty" validate:"omitempty,oneof=0 1 2 3 4"`
	Description *string       `json:"description,omitempty"`
	Remark      *string       `json:"remark,omitempty"`
}

func (in CourseInput) RecordID() int64 { return in.ID }

// Patch returns a patch setting every form field.
func (in CourseInput) Patch() CoursePatch {
	return CoursePatch{
		CoachID:     &in.CoachID,
		CourseName:  &in.CourseName,
		CourseType:  &in.CourseType,
		StartTime:   &in.StartTime,
		EndTime:     &in.EndTime,
		MaxCapacity: &in.MaxCapacity,
		Price:       &in.Price,
		Status:      &in.Status,
		Description: &in.Description,
		Remark:      &in.Remark,
	}
}

// Input pre-populates an editor with c.
func (c Course) Input() CourseInput {
	return CourseInput{
		ID:          c.ID,
		CoachID:     c.CoachID,
		CourseName:  c.CourseName,
		CourseType:  c.CourseType,
		StartTime:   c.StartTime,
		EndTime:     c.EndTime,
		MaxCapacity: c.MaxCapacity,
		Price:       c.Price,
		Status:      c.Status,
		Description: c.Description,
		Remark:      c.Remark,
	}
}

// RegisterInput is the body of POST /register.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=50"`
	Phone    string `json:"phone" validate:"required,max=20"`
	Password string `json:"password" validate:"required,min=6"`
}
