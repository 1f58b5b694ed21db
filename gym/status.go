package gym

import "fmt"

// Gender of a user or coach. Zero means not provided.
type Gender int

const (
	GenderMale   Gender = 1
	GenderFemale Gender = 2
)

// UserStatus is the account state of a member.
type UserStatus int

const (
	UserActive      UserStatus = 1
	UserFrozen      UserStatus = 2
	UserBlacklisted UserStatus = 3
)

// CardStatus is the lifecycle state of a membership card.
type CardStatus int

const (
	CardNormal         CardStatus = 1
	CardExpired        CardStatus = 2
	CardFrozen         CardStatus = 3
	CardTransferredOut CardStatus = 4
	CardRefunded       CardStatus = 5
)

// CoachStatus is the employment state of a coach.
type CoachStatus int

const (
	CoachActive   CoachStatus = 1
	CoachOnLeave  CoachStatus = 2
	CoachResigned CoachStatus = 3
)

// CourseType tells private sessions from group classes.
type CourseType int

const (
	CoursePrivate CourseType = 1
	CourseGroup   CourseType = 2
)

// CourseStatus is the booking state of a course.
type CourseStatus int

const (
	CourseBookable  CourseStatus = 1
	CourseFull      CourseStatus = 2
	CourseCancelled CourseStatus = 3
	CourseCompleted CourseStatus = 4
)

var genderLabels = map[Gender]string{
	GenderMale:   "male",
	GenderFemale: "female",
}

var userStatusLabels = map[UserStatus]string{
	UserActive:      "active",
	UserFrozen:      "frozen",
	UserBlacklisted: "blacklisted",
}

var cardStatusLabels = map[CardStatus]string{
	CardNormal:         "normal",
	CardExpired:        "expired",
	CardFrozen:         "frozen",
	CardTransferredOut: "transferred out",
	CardRefunded:       "refunded",
}

var coachStatusLabels = map[CoachStatus]string{
	CoachActive:   "active",
	CoachOnLeave:  "on leave",
	CoachResigned: "resigned",
}

var courseTypeLabels = map[CourseType]string{
	CoursePrivate: "private",
	CourseGroup:   "group",
}

var courseStatusLabels = map[CourseStatus]string{
	CourseBookable:  "bookable",
	CourseFull:      "full",
	CourseCancelled: "cancelled",
	CourseCompleted: "completed",
}

// label looks v up in table; values outside the table render as Type(n) so
// a status the console does not know about is visible instead of blank.
func label[K ~int](table map[K]string, typ string, v K) string {
	if s, ok := table[v]; ok {
		return s
	}
	return fmt.Sprintf("%s(%d)", typ, int(v))
}

// Gender zero is "not provided" and renders empty.
func (g Gender) String() string {
	if g == 0 {
		return ""
	}
	return label(genderLabels, "Gender", g)
}

func (s UserStatus) String() string   { return label(userStatusLabels, "UserStatus", s) }
func (s CardStatus) String() string   { return label(cardStatusLabels, "CardStatus", s) }
func (s CoachStatus) String() string  { return label(coachStatusLabels, "CoachStatus", s) }
func (t CourseType) String() string   { return label(courseTypeLabels, "CourseType", t) }
func (s CourseStatus) String() string { return label(courseStatusLabels, "CourseStatus", s) }

func (g Gender) Valid() bool       { return known(genderLabels, g) }
func (s UserStatus) Valid() bool   { return known(userStatusLabels, s) }
func (s CardStatus) Valid() bool   { return known(cardStatusLabels, s) }
func (s CoachStatus) Valid() bool  { return known(coachStatusLabels, s) }
func (t CourseType) Valid() bool   { return known(courseTypeLabels, t) }
func (s CourseStatus) Valid() bool { return known(courseStatusLabels, s) }

func known[K ~int](table map[K]string, v K) bool {
	_, ok := table[v]
	return ok
}

// Known values of each enum in code order, for pickers.
var (
	Genders        = []Gender{GenderMale, GenderFemale}
	UserStatuses   = []UserStatus{UserActive, UserFrozen, UserBlacklisted}
	CardStatuses   = []CardStatus{CardNormal, CardExpired, CardFrozen, CardTransferredOut, CardRefunded}
	CoachStatuses  = []CoachStatus{CoachActive, CoachOnLeave, CoachResigned}
	CourseTypes    = []CourseType{CoursePrivate, CourseGroup}
	CourseStatuses = []CourseStatus{CourseBookable, CourseFull, CourseCancelled, CourseCompleted}
)
