package gym

import "time"

// User is a registered gym member.
type User struct {
	ID        int64      `json:"id"`
	UserNo    string     `json:"user_no"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Gender    Gender     `json:"gender,omitempty"`
	Email     string     `json:"email,omitempty"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// MembershipCard is a card held by a user. Status and the date range are
// independent fields; the console never derives one from the other.
type MembershipCard struct {
	ID             int64      `json:"id"`
	CardNo         string     `json:"card_no"`
	UserID         int64      `json:"user_id"`
	CardTypeID     int64      `json:"card_type_id"`
	Status         CardStatus `json:"status"`
	StartDate      Date       `json:"start_date"`
	EndDate        Date       `json:"end_date"`
	RemainingTimes *int       `json:"remaining_times,omitempty"`
	TotalTimes     *int       `json:"total_times,omitempty"`
	FreezeTimes    int        `json:"freeze_times"`
	FreezeDays     int        `json:"freeze_days"`
	IsFrozen       int        `json:"is_frozen"`
	PurchasePrice  float64    `json:"purchase_price"`
	Remark         string     `json:"remark,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Coach is an instructor that courses reference.
type Coach struct {
	ID          int64       `json:"id"`
	CoachNo     string      `json:"coach_no"`
	Name        string      `json:"name"`
	Phone       string      `json:"phone"`
	Gender      Gender      `json:"gender,omitempty"`
	Email       string      `json:"email,omitempty"`
	Specialties string      `json:"specialties,omitempty"`
	Experience  int         `json:"experience,omitempty"`
	Status      CoachStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Course is a scheduled private or group class. CurrentCount never exceeds
// MaxCapacity; the server enforces it.
type Course struct {
	ID           int64        `json:"id"`
	CoachID      int64        `json:"coach_id"`
	CourseName   string       `json:"course_name"`
	CourseType   CourseType   `json:"course_type"`
	StartTime    time.Time    `json:"start_time"`
	EndTime      time.Time    `json:"end_time"`
	MaxCapacity  int          `json:"max_capacity"`
	CurrentCount int          `json:"current_count"`
	Price        float64      `json:"price"`
	Status       CourseStatus `json:"status"`
	Description  string       `json:"description,omitempty"`
	Remark       string       `json:"remark,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// UserStats holds the training aggregates served by /users/{id}/stats.
type UserStats struct {
	UserID          int64 `json:"user_id"`
	TotalDays       int   `json:"total_days"`
	TotalTimes      int   `json:"total_times"`
	ContinuousDays  int   `json:"continuous_days"`
	LastCheckInDate *Date `json:"last_check_in_date,omitempty"`
	MonthTimes      int   `json:"month_times"`
	YearTimes       int   `json:"year_times"`
}

func (u User) RecordID() int64           { return u.ID }
func (c MembershipCard) RecordID() int64 { return c.ID }
func (c Coach) RecordID() int64          { return c.ID }
func (c Course) RecordID() int64         { return c.ID }
