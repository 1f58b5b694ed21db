package service

import (
	"context"
	"fmt"
	"strconv"

	"gym-console/api"
	"gym-console/gym"
)

type (
	CardService   = Resource[gym.MembershipCard, gym.CardInput, gym.CardPatch]
	CoachService  = Resource[gym.Coach, gym.CoachInput, gym.CoachPatch]
	CourseService = Resource[gym.Course, gym.CourseInput, gym.CoursePatch]
)

// UserService adds the training statistics read to the user resource.
type UserService struct {
	*Resource[gym.User, gym.UserInput, gym.UserPatch]
}

// Stats fetches the aggregates of one user.
func (s *UserService) Stats(ctx context.Context, id int64) (gym.UserStats, error) {
	var st gym.UserStats
	path := "/users/" + strconv.FormatInt(id, 10) + "/stats"
	if err := s.client.Get(ctx, path, nil, &st); err != nil {
		return st, fmt.Errorf("get %s: %w", path, err)
	}
	return st, nil
}

// Services bundles the resource services of the console.
type Services struct {
	Users   *UserService
	Cards   *CardService
	Coaches *CoachService
	Courses *CourseService
}

// NewServices mounts every resource on client.
func NewServices(client *api.Client) *Services {
	return &Services{
		Users:   &UserService{NewResource[gym.User, gym.UserInput, gym.UserPatch](client, "/users")},
		Cards:   NewResource[gym.MembershipCard, gym.CardInput, gym.CardPatch](client, "/cards"),
		Coaches: NewResource[gym.Coach, gym.CoachInput, gym.CoachPatch](client, "/coaches"),
		Courses: NewResource[gym.Course, gym.CourseInput, gym.CoursePatch](client, "/courses"),
	}
}
