package console

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"gym-console/controller"
	"gym-console/gym"
	"gym-console/service"
)

const timeColumn = 16

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func newUsersPage(sh *Shell) *resourcePage[gym.User, gym.UserInput] {
	svc := sh.app.Services.Users
	p := &resourcePage[gym.User, gym.UserInput]{
		title: "Members",
		noun:  "member",
		list: controller.NewList[gym.User, gym.UserInput](svc, controller.Config[gym.User, gym.UserInput]{
			Noun:      "member",
			Route:     "users",
			PageSize:  sh.app.PageSize,
			Blank:     func() gym.UserInput { return gym.UserInput{Status: gym.UserActive} },
			FormOf:    gym.User.Input,
			Notifier:  sh,
			Confirmer: sh,
			Navigator: sh,
			Log:       sh.log,
		}),
		detail: controller.NewDetail[gym.User](svc.Get, sh.log),
		columns: []column[gym.User]{
			{"ID", 5, func(u gym.User) string { return idString(u.ID) }},
			{"No", 10, func(u gym.User) string { return u.UserNo }},
			{"Name", 20, func(u gym.User) string { return u.Name }},
			{"Phone", 15, func(u gym.User) string { return u.Phone }},
			{"Gender", 7, func(u gym.User) string { return u.Gender.String() }},
			{"Email", 24, func(u gym.User) string { return u.Email }},
			{"Status", 11, func(u gym.User) string { return u.Status.String() }},
			{"Joined", timeColumn, func(u gym.User) string { return gym.FormatMinute(u.CreatedAt) }},
		},
		form: func(in *gym.UserInput) []field {
			return []field{
				textField("Name", &in.Name),
				textField("Phone", &in.Phone),
				enumField("Gender", &in.Gender, gym.Genders, true),
				textField("Email", &in.Email),
				enumField("Status", &in.Status, gym.UserStatuses, false),
			}
		},
		facts: func(u gym.User) [][2]string {
			return [][2]string{
				{"Member no", u.UserNo},
				{"Name", u.Name},
				{"Phone", u.Phone},
				{"Gender", orDash(u.Gender.String())},
				{"Email", orDash(u.Email)},
				{"Status", u.Status.String()},
				{"Joined", gym.FormatMinute(u.CreatedAt)},
			}
		},
	}

	stats := controller.NewDetail[gym.UserStats](svc.Stats, sh.log)
	p.extra = func(ctx context.Context, w io.Writer, id int64) {
		st := stats.Load(ctx, id)
		fmt.Fprintln(w, "\nTraining")
		switch st.Status {
		case controller.Ready:
			s := st.Record
			last := "-"
			if s.LastCheckInDate != nil && !s.LastCheckInDate.IsZero() {
				last = s.LastCheckInDate.String()
			}
			printFacts(w, [][2]string{
				{"Training days", strconv.Itoa(s.TotalDays)},
				{"Check-ins", strconv.Itoa(s.TotalTimes)},
				{"Streak (days)", strconv.Itoa(s.ContinuousDays)},
				{"This month", strconv.Itoa(s.MonthTimes)},
				{"This year", strconv.Itoa(s.YearTimes)},
				{"Last check-in", last},
			})
		case controller.NotFound:
			fmt.Fprintln(w, "No statistics.")
		default:
			fmt.Fprintf(w, "Statistics unavailable: %v\n", st.Err)
		}
	}
	return p
}

func newCardsPage(sh *Shell, users *controller.ReferenceList[gym.User]) *resourcePage[gym.MembershipCard, gym.CardInput] {
	svc := sh.app.Services.Cards
	return &resourcePage[gym.MembershipCard, gym.CardInput]{
		title: "Membership cards",
		noun:  "card",
		list: controller.NewList[gym.MembershipCard, gym.CardInput](svc, controller.Config[gym.MembershipCard, gym.CardInput]{
			Noun:       "card",
			Route:      "cards",
			PageSize:   sh.app.PageSize,
			Blank:      func() gym.CardInput { return gym.CardInput{Status: gym.CardNormal} },
			FormOf:     gym.MembershipCard.Input,
			References: []controller.Loader{users},
			Notifier:   sh,
			Confirmer:  sh,
			Navigator:  sh,
			Log:        sh.log,
		}),
		detail: controller.NewDetail[gym.MembershipCard](svc.Get, sh.log),
		columns: []column[gym.MembershipCard]{
			{"ID", 5, func(c gym.MembershipCard) string { return idString(c.ID) }},
			{"Card No", 12, func(c gym.MembershipCard) string { return c.CardNo }},
			{"Owner", 20, func(c gym.MembershipCard) string { return users.Label(c.UserID) }},
			{"Type", 5, func(c gym.MembershipCard) string { return idString(c.CardTypeID) }},
			{"Status", 15, func(c gym.MembershipCard) string { return c.Status.String() }},
			{"Start", 10, func(c gym.MembershipCard) string { return c.StartDate.String() }},
			{"End", 10, func(c gym.MembershipCard) string { return c.EndDate.String() }},
			{"Left", 9, func(c gym.MembershipCard) string { return visits(c.RemainingTimes, c.TotalTimes) }},
		},
		form: func(in *gym.CardInput) []field {
			return []field{
				refField("Owner", &in.UserID, users.Label),
				textField("Card no", &in.CardNo),
				refField("Card type", &in.CardTypeID, func(id int64) string { return "type " + idString(id) }),
				enumField("Status", &in.Status, gym.CardStatuses, false),
				dateField("Start date", &in.StartDate),
				dateField("End date", &in.EndDate),
				optionalIntField("Remaining visits", &in.RemainingTimes),
				optionalIntField("Total visits", &in.TotalTimes),
				intField("Freezes used", &in.FreezeTimes),
				intField("Days frozen", &in.FreezeDays),
				moneyField("Price", &in.PurchasePrice),
				textField("Remark", &in.Remark),
			}
		},
		facts: func(c gym.MembershipCard) [][2]string {
			frozen := "no"
			if c.IsFrozen != 0 {
				frozen = "yes"
			}
			return [][2]string{
				{"Card no", c.CardNo},
				{"Owner", users.Label(c.UserID)},
				{"Card type", idString(c.CardTypeID)},
				{"Status", c.Status.String()},
				{"Valid", c.StartDate.String() + " to " + c.EndDate.String()},
				{"Visits left", visits(c.RemainingTimes, c.TotalTimes)},
				{"Frozen", frozen},
				{"Freezes", fmt.Sprintf("%d (%d days)", c.FreezeTimes, c.FreezeDays)},
				{"Price", formatMoney(c.PurchasePrice)},
				{"Remark", orDash(c.Remark)},
			}
		},
	}
}

// visits renders remaining/total for counted cards and "-" for time
// based ones.
func visits(remaining, total *int) string {
	switch {
	case remaining == nil:
		return "-"
	case total == nil:
		return strconv.Itoa(*remaining)
	}
	return fmt.Sprintf("%d/%d", *remaining, *total)
}

func newCoachesPage(sh *Shell) *resourcePage[gym.Coach, gym.CoachInput] {
	svc := sh.app.Services.Coaches
	return &resourcePage[gym.Coach, gym.CoachInput]{
		title: "Coaches",
		noun:  "coach",
		list: controller.NewList[gym.Coach, gym.CoachInput](svc, controller.Config[gym.Coach, gym.CoachInput]{
			Noun:      "coach",
			Route:     "coaches",
			PageSize:  sh.app.PageSize,
			Blank:     func() gym.CoachInput { return gym.CoachInput{Status: gym.CoachActive} },
			FormOf:    gym.Coach.Input,
			Notifier:  sh,
			Confirmer: sh,
			Navigator: sh,
			Log:       sh.log,
		}),
		detail: controller.NewDetail[gym.Coach](svc.Get, sh.log),
		columns: []column[gym.Coach]{
			{"ID", 5, func(c gym.Coach) string { return idString(c.ID) }},
			{"No", 10, func(c gym.Coach) string { return c.CoachNo }},
			{"Name", 20, func(c gym.Coach) string { return c.Name }},
			{"Phone", 15, func(c gym.Coach) string { return c.Phone }},
			{"Gender", 7, func(c gym.Coach) string { return c.Gender.String() }},
			{"Specialties", 24, func(c gym.Coach) string { return c.Specialties }},
			{"Years", 5, func(c gym.Coach) string { return strconv.Itoa(c.Experience) }},
			{"Status", 9, func(c gym.Coach) string { return c.Status.String() }},
		},
		form: func(in *gym.CoachInput) []field {
			return []field{
				textField("Name", &in.Name),
				textField("Phone", &in.Phone),
				enumField("Gender", &in.Gender, gym.Genders, true),
				textField("Email", &in.Email),
				textField("Specialties", &in.Specialties),
				intField("Years of experience", &in.Experience),
				enumField("Status", &in.Status, gym.CoachStatuses, false),
			}
		},
		facts: func(c gym.Coach) [][2]string {
			return [][2]string{
				{"Coach no", c.CoachNo},
				{"Name", c.Name},
				{"Phone", c.Phone},
				{"Gender", orDash(c.Gender.String())},
				{"Email", orDash(c.Email)},
				{"Specialties", orDash(c.Specialties)},
				{"Experience", fmt.Sprintf("%d years", c.Experience)},
				{"Status", c.Status.String()},
			}
		},
	}
}

func newCoursesPage(sh *Shell, coaches *controller.ReferenceList[gym.Coach]) *resourcePage[gym.Course, gym.CourseInput] {
	svc := sh.app.Services.Courses
	return &resourcePage[gym.Course, gym.CourseInput]{
		title: "Courses",
		noun:  "course",
		list: controller.NewList[gym.Course, gym.CourseInput](svc, controller.Config[gym.Course, gym.CourseInput]{
			Noun:     "course",
			Route:    "courses",
			PageSize: sh.app.PageSize,
			Blank: func() gym.CourseInput {
				return gym.CourseInput{CourseType: gym.CourseGroup, Status: gym.CourseBookable}
			},
			FormOf:     gym.Course.Input,
			References: []controller.Loader{coaches},
			Notifier:   sh,
			Confirmer:  sh,
			Navigator:  sh,
			Log:        sh.log,
		}),
		detail: controller.NewDetail[gym.Course](svc.Get, sh.log),
		columns: []column[gym.Course]{
			{"ID", 5, func(c gym.Course) string { return idString(c.ID) }},
			{"Course", 20, func(c gym.Course) string { return c.CourseName }},
			{"Coach", 16, func(c gym.Course) string { return coaches.Label(c.CoachID) }},
			{"Type", 7, func(c gym.Course) string { return c.CourseType.String() }},
			{"Start", timeColumn, func(c gym.Course) string { return gym.FormatMinute(c.StartTime) }},
			{"End", timeColumn, func(c gym.Course) string { return gym.FormatMinute(c.EndTime) }},
			{"Booked", 7, func(c gym.Course) string { return fmt.Sprintf("%d/%d", c.CurrentCount, c.MaxCapacity) }},
			{"Price", 8, func(c gym.Course) string { return formatMoney(c.Price) }},
			{"Status", 9, func(c gym.Course) string { return c.Status.String() }},
		},
		form: func(in *gym.CourseInput) []field {
			return []field{
				textField("Name", &in.CourseName),
				refField("Coach", &in.CoachID, coaches.Label),
				enumField("Type", &in.CourseType, gym.CourseTypes, false),
				minuteField("Starts", &in.StartTime),
				minuteField("Ends", &in.EndTime),
				intField("Capacity", &in.MaxCapacity),
				moneyField("Price", &in.Price),
				enumField("Status", &in.Status, gym.CourseStatuses, false),
				textField("Description", &in.Description),
				textField("Remark", &in.Remark),
			}
		},
		facts: func(c gym.Course) [][2]string {
			return [][2]string{
				{"Course", c.CourseName},
				{"Coach", coaches.Label(c.CoachID)},
				{"Type", c.CourseType.String()},
				{"Time", gym.FormatMinute(c.StartTime) + " to " + gym.FormatMinute(c.EndTime)},
				{"Booked", fmt.Sprintf("%d of %d", c.CurrentCount, c.MaxCapacity)},
				{"Price", formatMoney(c.Price)},
				{"Status", c.Status.String()},
				{"Description", orDash(c.Description)},
				{"Remark", orDash(c.Remark)},
			}
		},
	}
}

func newUserReferences(sh *Shell) *controller.ReferenceList[gym.User] {
	return controller.NewReferenceList[gym.User]("users", sh.app.Services.Users.List,
		func(u gym.User) string { return u.Name }, sh.app.ReferencePageSize, sh.log)
}

func newCoachReferences(sh *Shell) *controller.ReferenceList[gym.Coach] {
	return controller.NewReferenceList[gym.Coach]("coaches", sh.app.Services.Coaches.List,
		func(c gym.Coach) string { return c.Name }, sh.app.ReferencePageSize, sh.log)
}

// count returns the number of records a list reports, fetching one row.
func count[T any](ctx context.Context, list func(context.Context, service.Query) (service.Page[T], error)) (int, error) {
	p, err := list(ctx, service.Query{Page: 1, PageSize: 1})
	if err != nil {
		return 0, err
	}
	return p.Total, nil
}
