package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"gym-console/api"
	"gym-console/gym"
	"gym-console/service"
)

const (
	routeBooking = "courses/booking"

	// bookingPageSize is large enough to load every scheduled course at once.
	bookingPageSize = 1000
)

type dayGroup struct {
	day     gym.Date
	courses []gym.Course
}

// groupByDay sorts courses by start time and groups them by the date they
// start on, in the offset the server sent.
func groupByDay(courses []gym.Course) []dayGroup {
	sorted := append([]gym.Course(nil), courses...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime.Before(sorted[j].StartTime) })

	var groups []dayGroup
	for _, c := range sorted {
		d := gym.DateOf(c.StartTime)
		if n := len(groups); n > 0 && groups[n-1].day == d {
			groups[n-1].courses = append(groups[n-1].courses, c)
			continue
		}
		groups = append(groups, dayGroup{day: d, courses: []gym.Course{c}})
	}
	return groups
}

// badge marks a course open for booking or not.
func badge(s gym.CourseStatus) string {
	if s == gym.CourseBookable {
		return "[+]"
	}
	return "[-]"
}

// booking shows the course calendar: every course grouped by day.
func (sh *Shell) booking(ctx context.Context) {
	page, err := sh.app.Services.Courses.List(ctx, service.Query{Page: 1, PageSize: bookingPageSize})
	if err != nil {
		sh.Failure("Could not load course calendar", err)
		if errors.Is(err, api.ErrUnauthorized) {
			sh.Navigate(routeBooking)
		}
		return
	}
	sh.coaches.Load(ctx)
	printBooking(sh.out, groupByDay(page.Items), sh.coaches.Label)
	if page.Total > len(page.Items) {
		fmt.Fprintf(sh.out, "Showing %d of %d courses.\n", len(page.Items), page.Total)
	}
}

func printBooking(w io.Writer, groups []dayGroup, coach func(int64) string) {
	fmt.Fprintln(w, "\nCourse booking")
	if len(groups) == 0 {
		fmt.Fprintln(w, "No courses scheduled.")
		return
	}
	for _, g := range groups {
		fmt.Fprintf(w, "\n%s\n", g.day)
		for _, c := range g.courses {
			fmt.Fprintf(w, "  %s %s  %-20s %-16s %d/%d %s\n",
				badge(c.Status),
				c.StartTime.Format("15:04"),
				truncateString(c.CourseName, 20),
				truncateString(coach(c.CoachID), 16),
				c.CurrentCount, c.MaxCapacity,
				c.Status)
		}
	}
}
